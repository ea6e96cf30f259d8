package network

import (
	"log"

	"github.com/gorilla/websocket"

	"github.com/NimbusChat/nimbus-client/pkg/protocol"
)

// dispatchLoop is the single background task per connection: it reads
// raw frames from the socket, decrypts them with the session, decodes
// them and pushes typed events in strict arrival order. A frame that
// fails to decrypt is logged and skipped; socket-level errors end the
// loop.
func (c *Client) dispatchLoop(conn *websocket.Conn, session *protocol.NoiseSession) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(conn, err)
			return
		}

		c.sessionMu.Lock()
		plaintext, derr := session.DecryptFrame(data)
		c.sessionMu.Unlock()
		if derr != nil {
			// Recoverable: drop the frame, keep the connection
			log.Printf("Dropping undecryptable frame (%d bytes): %v", len(data), derr)
			continue
		}

		kind, msg := protocol.DecodeFrame(plaintext)
		switch kind {
		case protocol.FrameMessage:
			c.storeMessage(msg)
			c.events.push(&Event{Type: EventMessage, Message: msg})

		case protocol.FramePresence:
			c.events.push(&Event{
				Type: EventPresence,
				Presence: &PresenceUpdate{
					Available: true,
					LastSeen:  protocol.NowUnixMilli(),
				},
			})

		default:
			// Unrecognized frame, dropped until the decoder learns
			// the relay's full schema
		}
	}
}

// handleReadError classifies the error that ended the read loop. An
// explicit Disconnect already set the state; a server-initiated close
// moves to Disconnected (and triggers reconnection when configured);
// anything else is a transport failure.
func (c *Client) handleReadError(conn *websocket.Conn, err error) {
	c.sessionMu.Lock()
	closing := c.closing
	current := c.conn == conn
	c.sessionMu.Unlock()

	if closing || !current {
		return
	}

	c.clearSession()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Printf("Relay closed the connection: %v", err)
		c.setState(StateDisconnected, "")
		if c.cfg.AutoReconnect {
			go c.reconnectLoop()
		}
		return
	}

	log.Printf("Transport read error: %v", err)
	c.setState(StateFailed, err.Error())
	c.events.push(&Event{Type: EventError, Err: err})
}

// clearSession drops the live session and socket
func (c *Client) clearSession() {
	c.sessionMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.session = nil
	c.sessionMu.Unlock()
}

// storeMessage records the most recent message per id; the dispatch
// loop is the sole writer of the store
func (c *Client) storeMessage(msg *protocol.IncomingMessage) {
	c.storeMu.Lock()
	c.messages[msg.ID] = msg
	db := c.db
	c.storeMu.Unlock()

	if db != nil {
		if err := db.SaveMessage(msg); err != nil {
			log.Printf("Failed to persist message %s: %v", msg.ID, err)
		}
	}
}
