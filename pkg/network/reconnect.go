package network

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// reconnectLoop re-establishes the connection after a server-initiated
// close, with exponential backoff. Each successful attempt installs a
// brand-new session; counters never carry over.
func (c *Client) reconnectLoop() {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		c.sessionMu.Lock()
		closing := c.closing
		c.sessionMu.Unlock()
		if closing {
			log.Println("Client disconnected, stopping reconnection")
			return
		}

		c.setState(StateReconnecting, "")

		identity := c.Identity()
		conn, session, err := c.establish(identity)
		if err != nil {
			log.Printf("Reconnection failed: %v (retrying in %v)", err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		log.Println("Reconnected to relay")
		c.installSession(conn, session)
		c.setState(StateWaitingForPairing, "")
		return
	}
}

// keepaliveLoop sends periodic websocket pings while conn is the live
// connection; it stops as soon as the connection is replaced or the
// ping fails
func (c *Client) keepaliveLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.KeepaliveInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.sessionMu.Lock()
		current := c.conn == conn
		c.sessionMu.Unlock()
		if !current {
			return
		}

		deadline := time.Now().Add(10 * time.Second)
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			log.Printf("Keepalive ping failed: %v", err)
			return
		}
	}
}
