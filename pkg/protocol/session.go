package protocol

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrDecryptFailed = errors.New("frame decryption failed")

// Frames shorter than this were never AEAD-sealed; they belong to the
// pre-session bootstrap window and pass through DecryptFrame unchanged.
const minEncryptedFrameSize = 32

// NoiseSession holds the transport encryption state for one live
// connection: two distinct AES-256-GCM keys and two independent
// monotonic counters, one per direction. A counter value is never
// reused for its direction while the session is alive; reuse would
// break AEAD nonce uniqueness. The session is replaced wholesale on
// reconnect and is never shared between loops: the dispatch loop is
// the sole mutator of the decrypt counter and the outbound send path
// the sole mutator of the encrypt counter.
type NoiseSession struct {
	encCipher  cipher.AEAD
	decCipher  cipher.AEAD
	encCounter uint64
	decCounter uint64
}

// NewNoiseSession creates a session from the two 32-byte directional keys
func NewNoiseSession(encKey, decKey []byte) *NoiseSession {
	return &NoiseSession{
		encCipher: newGCM(encKey),
		decCipher: newGCM(decKey),
	}
}

// newGCM builds an AES-256-GCM AEAD from a 32-byte key. The
// constructors only fail on invalid key sizes, which the handshake
// derivation rules out.
func newGCM(key []byte) cipher.AEAD {
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(fmt.Sprintf("invalid transport key: %v", err))
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		panic(fmt.Sprintf("failed to create GCM: %v", err))
	}
	return gcm
}

// nonceFor builds the 12-byte nonce for a counter value: 4 zero bytes
// followed by the counter in big-endian
func nonceFor(counter uint64) []byte {
	nonce := make([]byte, 12)
	binary.BigEndian.PutUint64(nonce[4:], counter)
	return nonce
}

// EncryptFrame seals plaintext with the session's encrypt key and
// advances the encrypt counter by exactly one
func (s *NoiseSession) EncryptFrame(plaintext []byte) ([]byte, error) {
	ciphertext := s.encCipher.Seal(nil, nonceFor(s.encCounter), plaintext, nil)
	s.encCounter++
	return ciphertext, nil
}

// DecryptFrame opens ciphertext with the session's decrypt key and
// advances the decrypt counter by exactly one on success. Inputs
// shorter than 32 bytes are returned unchanged; they predate the
// session. A failed open leaves the counter untouched so the next
// frame is tried against the same nonce.
func (s *NoiseSession) DecryptFrame(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < minEncryptedFrameSize {
		return ciphertext, nil
	}

	plaintext, err := s.decCipher.Open(nil, nonceFor(s.decCounter), ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	s.decCounter++
	return plaintext, nil
}

// EncryptCounter returns the number of frames sealed so far
func (s *NoiseSession) EncryptCounter() uint64 { return s.encCounter }

// DecryptCounter returns the number of frames opened so far
func (s *NoiseSession) DecryptCounter() uint64 { return s.decCounter }
