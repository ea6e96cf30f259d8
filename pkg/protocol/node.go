package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
)

var ErrContentTooLong = errors.New("content exceeds maximum encodable length")

// MaxContentLength is the largest value the 2-byte continuation
// length encoding can express
const MaxContentLength = 16383

// ===== FRAME ENCODING =====

// EncodeMessageFrame encodes an outgoing message as an ordered
// sequence of tag/length/value records: message id (0x0A), recipient
// JID (0x12), text content (0x1A) and, when present, the quoted
// message id (0x22).
func EncodeMessageFrame(msg *OutgoingMessage) ([]byte, error) {
	var buf bytes.Buffer

	if err := writeRecord(&buf, TagMessageID, []byte(msg.ID)); err != nil {
		return nil, err
	}
	if err := writeRecord(&buf, TagRecipientJID, []byte(msg.To)); err != nil {
		return nil, err
	}
	if err := writeRecord(&buf, TagTextContent, []byte(msg.Body)); err != nil {
		return nil, err
	}
	if msg.QuotedID != "" {
		if err := writeRecord(&buf, TagQuotedID, []byte(msg.QuotedID)); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// writeRecord appends one tag/length/value record. Values under 128
// bytes use a single length byte; longer values set the high bit of
// the first byte to carry the low 7 bits, with the remaining bits in
// the second byte.
func writeRecord(buf *bytes.Buffer, tag uint8, value []byte) error {
	n := len(value)
	if n > MaxContentLength {
		return ErrContentTooLong
	}

	buf.WriteByte(tag)
	if n < 128 {
		buf.WriteByte(uint8(n))
	} else {
		buf.WriteByte(uint8(n&0x7F) | 0x80)
		buf.WriteByte(uint8(n >> 7))
	}
	buf.Write(value)
	return nil
}

// ===== FRAME DECODING =====

// FrameKind classifies a decoded incoming frame
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameMessage
	FramePresence
)

// DecodeFrame inspects the leading tag byte of a decrypted incoming
// frame. A message tag yields a stub IncomingMessage whose id is the
// hex digest of the following bytes (up to 12); a text-content tag is
// interpreted as a presence update. Anything else is unknown and the
// caller drops it. Decoding the full structured detail the encoder
// can produce is deferred until the relay's real schema is mapped.
func DecodeFrame(data []byte) (FrameKind, *IncomingMessage) {
	if len(data) == 0 {
		return FrameUnknown, nil
	}

	switch data[0] {
	case TagMessageID:
		idBytes := data[1:]
		if len(idBytes) > 12 {
			idBytes = idBytes[:12]
		}
		return FrameMessage, &IncomingMessage{
			ID:        hex.EncodeToString(idBytes),
			Timestamp: NowUnixMilli(),
			Type:      TextMessage,
		}

	case TagTextContent:
		return FramePresence, nil

	default:
		return FrameUnknown, nil
	}
}
