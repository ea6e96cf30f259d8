package network

import (
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/NimbusChat/nimbus-client/pkg/crypto"
	"github.com/NimbusChat/nimbus-client/pkg/protocol"
)

// SendText sends a text message to a JID. replyTo may be empty; when
// set it becomes the quoted-message reference. Returns the generated
// message id.
func (c *Client) SendText(to, text, replyTo string) (string, error) {
	return c.SendMessage(&protocol.OutgoingMessage{
		To:       to,
		Body:     text,
		Type:     protocol.TextMessage,
		QuotedID: replyTo,
	})
}

// SendMessage encodes, seals and writes one outgoing message. It
// requires a live session; without one no message id is generated.
// The send path is the sole mutator of the session's encrypt counter.
func (c *Client) SendMessage(msg *protocol.OutgoingMessage) (string, error) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	if c.session == nil || c.conn == nil {
		return "", ErrNotConnected
	}

	if msg.ID == "" {
		msg.ID = protocol.GenerateMessageID()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = protocol.NowUnixMilli()
	}

	frame, err := protocol.EncodeMessageFrame(msg)
	if err != nil {
		return "", fmt.Errorf("frame encoding failed: %w", err)
	}

	sealed, err := c.session.EncryptFrame(frame)
	if err != nil {
		return "", fmt.Errorf("frame encryption failed: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.BinaryMessage, sealed); err != nil {
		return "", fmt.Errorf("transport write failed: %w", err)
	}

	return msg.ID, nil
}

// mediaTypeFor maps a message content type onto its media derivation
// label
func mediaTypeFor(t protocol.MessageType) crypto.MediaType {
	switch t {
	case protocol.ImageMessage:
		return crypto.MediaImage
	case protocol.StickerMessage:
		return crypto.MediaSticker
	case protocol.VideoMessage:
		return crypto.MediaVideo
	case protocol.AudioMessage:
		return crypto.MediaAudio
	default:
		return crypto.MediaDocument
	}
}

// SendMedia seals a media payload under a fresh media key and sends
// the message carrying its reference. The sealed ciphertext is
// returned for the caller to upload; its location goes into the
// reference as given.
func (c *Client) SendMedia(to string, payload []byte, msgType protocol.MessageType, mimeType, caption, uploadURL string) (string, []byte, error) {
	if !c.hasSession() {
		return "", nil, ErrNotConnected
	}

	enc, err := crypto.EncryptMedia(payload, mediaTypeFor(msgType))
	if err != nil {
		return "", nil, fmt.Errorf("media encryption failed: %w", err)
	}

	id, err := c.SendMessage(&protocol.OutgoingMessage{
		To:   to,
		Body: caption,
		Type: msgType,
		Media: &protocol.MediaReference{
			URL:      uploadURL,
			MediaKey: enc.MediaKey,
			FileSHA:  enc.FileSHA,
			MimeType: mimeType,
			FileSize: uint64(len(enc.Ciphertext)),
		},
	})
	if err != nil {
		return "", nil, err
	}
	return id, enc.Ciphertext, nil
}
