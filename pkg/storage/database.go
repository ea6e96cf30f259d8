// Package storage provides the local encrypted message cache. The
// client engine works without it; when attached, the dispatch loop
// mirrors every observed incoming message into it.
package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/pbkdf2"
)

var ErrNotFound = errors.New("not found")

const (
	keySize          = 32
	nonceSize        = 12
	pbkdf2Iterations = 100000
	derivationSalt   = "Nimbus-Message-Cache-v1"
)

// MessageDB manages the encrypted local message cache
type MessageDB struct {
	db            *sql.DB
	encryptionKey []byte // Derived from the user passphrase
}

// NewMessageDB opens (or creates) the message cache at dbPath. Message
// bodies are encrypted at rest with a key derived from passphrase.
func NewMessageDB(dbPath, passphrase string) (*MessageDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %v", err)
	}

	mdb := &MessageDB{
		db:            db,
		encryptionKey: deriveKey(passphrase),
	}

	if err := mdb.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return mdb, nil
}

// deriveKey derives the at-rest encryption key from the passphrase
func deriveKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), []byte(derivationSalt), pbkdf2Iterations, keySize, sha256.New)
}

// initSchema creates database tables
func (db *MessageDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		message_id TEXT PRIMARY KEY,
		chat_jid TEXT NOT NULL,
		sender TEXT NOT NULL,
		participant TEXT,
		body BLOB,
		msg_type INTEGER NOT NULL,
		quoted_id TEXT,
		timestamp INTEGER NOT NULL,
		received_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_jid, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp DESC);
	`

	if _, err := db.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %v", err)
	}
	return nil
}

// Close closes the database connection
func (db *MessageDB) Close() error {
	return db.db.Close()
}

// sealBody encrypts a message body for storage with AES-256-GCM,
// prepending the random nonce to the ciphertext
func (db *MessageDB) sealBody(body []byte) ([]byte, error) {
	block, err := aes.NewCipher(db.encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, body, nil), nil
}

// openBody decrypts a stored message body
func (db *MessageDB) openBody(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("sealed body too short")
	}

	block, err := aes.NewCipher(db.encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
}
