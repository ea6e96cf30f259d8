package storage

import (
	"database/sql"
	"fmt"

	"github.com/NimbusChat/nimbus-client/pkg/protocol"
)

// ===== MESSAGE OPERATIONS =====

// SaveMessage stores the most recently observed version of a message.
// Re-saving an id replaces the row; nothing is ever deleted.
func (db *MessageDB) SaveMessage(msg *protocol.IncomingMessage) error {
	sealed, err := db.sealBody([]byte(msg.Body))
	if err != nil {
		return fmt.Errorf("failed to encrypt body: %v", err)
	}

	chatJID := msg.From
	if msg.GroupJID != "" {
		chatJID = msg.GroupJID
	}

	query := `
		INSERT OR REPLACE INTO messages (
			message_id, chat_jid, sender, participant,
			body, msg_type, quoted_id, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.db.Exec(
		query,
		msg.ID,
		chatJID,
		msg.From,
		msg.Participant,
		sealed,
		msg.Type,
		msg.QuotedID,
		msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %v", err)
	}
	return nil
}

// GetMessage loads one message by id
func (db *MessageDB) GetMessage(messageID string) (*protocol.IncomingMessage, error) {
	row := db.db.QueryRow(`
		SELECT message_id, chat_jid, sender, participant, body, msg_type, quoted_id, timestamp
		FROM messages WHERE message_id = ?
	`, messageID)

	msg, err := db.scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return msg, err
}

// GetConversation loads the most recent messages for a chat JID,
// newest first
func (db *MessageDB) GetConversation(chatJID string, limit int) ([]*protocol.IncomingMessage, error) {
	rows, err := db.db.Query(`
		SELECT message_id, chat_jid, sender, participant, body, msg_type, quoted_id, timestamp
		FROM messages WHERE chat_jid = ?
		ORDER BY timestamp DESC LIMIT ?
	`, chatJID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %v", err)
	}
	defer rows.Close()

	var messages []*protocol.IncomingMessage
	for rows.Next() {
		msg, err := db.scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MessageCount returns the number of stored messages
func (db *MessageDB) MessageCount() (int, error) {
	var count int
	err := db.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&count)
	return count, err
}

// rowScanner covers both sql.Row and sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMessage reads one message row and decrypts its body
func (db *MessageDB) scanMessage(row rowScanner) (*protocol.IncomingMessage, error) {
	var (
		msg     protocol.IncomingMessage
		chatJID string
		sealed  []byte
		msgType int
	)

	err := row.Scan(&msg.ID, &chatJID, &msg.From, &msg.Participant, &sealed, &msgType, &msg.QuotedID, &msg.Timestamp)
	if err != nil {
		return nil, err
	}

	body, err := db.openBody(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt body: %v", err)
	}

	msg.Body = string(body)
	msg.Type = protocol.MessageType(msgType)
	if protocol.IsGroupJID(chatJID) {
		msg.GroupJID = chatJID
	}
	return &msg, nil
}
