package protocol

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// Protocol constants
const (
	// Handshake prologue, hashed once to seed the transcript and salt
	HandshakePrologue = "Nimbus_Noise_25519_AESGCM_SHA256\x00\x01"

	// HKDF context label for transport key derivation
	TransportKeyInfo = "Nimbus Transport Keys v1"

	// Message id prefix; every id is MessageIDPrefix + 24 uppercase hex chars
	MessageIDPrefix = "3EB0"

	// Registration ids are 14-bit
	MaxRegistrationID = 0x3FFF
)

// TLV tags for message frames
const (
	TagMessageID    uint8 = 0x0A
	TagRecipientJID uint8 = 0x12
	TagTextContent  uint8 = 0x1A
	TagQuotedID     uint8 = 0x22
)

// JID server suffixes
const (
	UserServerSuffix = "@s.whatsapp.net"
	GroupSuffix      = "@g.us"
)

// MessageType identifies the content of a chat message
type MessageType uint8

const (
	TextMessage MessageType = iota
	ImageMessage
	VideoMessage
	AudioMessage
	DocumentMessage
	StickerMessage
	ReactionMessage
)

// String returns a human-readable message type name
func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case ImageMessage:
		return "image"
	case VideoMessage:
		return "video"
	case AudioMessage:
		return "audio"
	case DocumentMessage:
		return "document"
	case StickerMessage:
		return "sticker"
	case ReactionMessage:
		return "reaction"
	default:
		return "unknown"
	}
}

// ===== HELPER FUNCTIONS =====

// GenerateMessageID generates a random message id: the fixed prefix
// followed by 12 random bytes hex-encoded in upper case.
func GenerateMessageID() string {
	var raw [12]byte
	if _, err := rand.Read(raw[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// a timestamp so the id is at least unique per millisecond
		ts := uint64(time.Now().UnixNano())
		for i := 0; i < 8; i++ {
			raw[i] = byte(ts >> (8 * i))
		}
	}
	return MessageIDPrefix + strings.ToUpper(hex.EncodeToString(raw[:]))
}

// NowUnixMilli returns current time in Unix milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
