// Package network implements the Nimbus client engine: it opens the
// relay transport, drives the handshake, owns the transport session,
// and turns inbound frames into typed events.
package network

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/NimbusChat/nimbus-client/pkg/protocol"
	"github.com/NimbusChat/nimbus-client/pkg/storage"
)

var (
	ErrNotConnected    = errors.New("not connected")
	ErrHandshakeFailed = errors.New("handshake failed")
)

// Relay endpoint defaults. The relay expects a browser-shaped upgrade
// request, so the dialer always sends an Origin header and a browser
// user-agent.
const (
	DefaultRelayURL  = "wss://relay.nimbuschat.net/ws/chat"
	relayOrigin      = "https://web.nimbuschat.net"
	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Config holds client configuration
type Config struct {
	RelayURL          string
	Platform          string
	AutoReconnect     bool          // Reconnect after a server-initiated close
	KeepaliveInterval time.Duration // 0 disables the keepalive pings
}

// DefaultConfig returns the default client configuration
func DefaultConfig() *Config {
	return &Config{
		RelayURL:          DefaultRelayURL,
		Platform:          protocol.DefaultPlatform,
		AutoReconnect:     false,
		KeepaliveInterval: 30 * time.Second,
	}
}

// Client is the protocol engine for one logical device. One background
// dispatch loop runs per connection; any number of caller goroutines
// may use the public API concurrently.
//
// Lock layout, by sole writer:
//   - identity: written once by Connect (when generating), behind identityMu
//   - state: written by the engine's transitions, behind stateMu
//   - session/conn: installed by Connect, cleared by Disconnect; the
//     dispatch loop is the sole mutator of the decrypt counter and the
//     send path the sole mutator of the encrypt counter, both under
//     sessionMu
//   - message store: written only by the dispatch loop, behind storeMu,
//     which also guards the optional database handle
type Client struct {
	cfg *Config

	identityMu sync.RWMutex
	identity   *protocol.DeviceIdentity

	stateMu     sync.RWMutex
	state       ConnectionState
	stateReason string

	sessionMu sync.Mutex
	session   *protocol.NoiseSession
	conn      *websocket.Conn
	closing   bool

	storeMu  sync.RWMutex
	messages map[string]*protocol.IncomingMessage
	db       *storage.MessageDB

	events *eventQueue
}

// NewClient creates a client for the given device identity. A nil
// identity is allowed; Connect generates a fresh one on first use.
func NewClient(identity *protocol.DeviceIdentity, cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Client{
		cfg:      cfg,
		identity: identity,
		state:    StateDisconnected,
		messages: make(map[string]*protocol.IncomingMessage),
		events:   newEventQueue(),
	}
}

// Identity returns the current device identity; nil until one is
// supplied or generated
func (c *Client) Identity() *protocol.DeviceIdentity {
	c.identityMu.RLock()
	defer c.identityMu.RUnlock()
	return c.identity
}

// State returns the current connection state and, for StateFailed,
// the failure reason
func (c *Client) State() (ConnectionState, string) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state, c.stateReason
}

// AttachDatabase attaches a message database; the dispatch loop
// mirrors observed incoming messages into it. Safe to call while
// connected.
func (c *Client) AttachDatabase(db *storage.MessageDB) {
	c.storeMu.Lock()
	c.db = db
	c.storeMu.Unlock()
}

// GetMessage returns the most recently observed incoming message for
// an id
func (c *Client) GetMessage(id string) (*protocol.IncomingMessage, bool) {
	c.storeMu.RLock()
	defer c.storeMu.RUnlock()
	msg, ok := c.messages[id]
	return msg, ok
}

// MessageCount returns the number of distinct message ids observed
func (c *Client) MessageCount() int {
	c.storeMu.RLock()
	defer c.storeMu.RUnlock()
	return len(c.messages)
}

// NextEvent blocks until the next event is available. The second
// return is false once the client is closed and the queue drained.
func (c *Client) NextEvent() (*Event, bool) {
	return c.events.next()
}

// TryNextEvent returns the next event without blocking
func (c *Client) TryNextEvent() (*Event, bool) {
	return c.events.tryNext()
}

// setState records a transition and emits a state-change event
func (c *Client) setState(state ConnectionState, reason string) {
	c.stateMu.Lock()
	c.state = state
	c.stateReason = reason
	c.stateMu.Unlock()

	c.events.push(&Event{Type: EventStateChange, State: state, Reason: reason})
}

// ensureIdentity generates a device identity if none was supplied
func (c *Client) ensureIdentity() (*protocol.DeviceIdentity, error) {
	c.identityMu.Lock()
	defer c.identityMu.Unlock()

	if c.identity == nil {
		identity, err := protocol.GenerateDeviceIdentity()
		if err != nil {
			return nil, fmt.Errorf("identity generation failed: %w", err)
		}
		if c.cfg.Platform != "" {
			identity.Platform = c.cfg.Platform
		}
		c.identity = identity
	}
	return c.identity, nil
}

// Connect opens the relay transport, runs the handshake, installs the
// derived session and spawns the dispatch loop. On success the state
// has reached WaitingForPairing. Calling Connect while already
// connected starts a second independent attempt whose session
// replaces the previous one.
func (c *Client) Connect() error {
	identity, err := c.ensureIdentity()
	if err != nil {
		c.setState(StateFailed, err.Error())
		return err
	}

	c.setState(StateConnecting, "")

	conn, session, err := c.establish(identity)
	if err != nil {
		c.setState(StateFailed, err.Error())
		return err
	}

	c.installSession(conn, session)
	c.setState(StateWaitingForPairing, "")
	return nil
}

// establish dials the relay and runs the three handshake steps,
// returning the open socket and the derived session
func (c *Client) establish(identity *protocol.DeviceIdentity) (*websocket.Conn, *protocol.NoiseSession, error) {
	header := http.Header{}
	header.Set("Origin", relayOrigin)
	header.Set("User-Agent", browserUserAgent)

	conn, _, err := websocket.DefaultDialer.Dial(c.cfg.RelayURL, header)
	if err != nil {
		return nil, nil, fmt.Errorf("transport open failed: %w", err)
	}

	hs := protocol.NewNoiseHandshake(identity.NoiseKey)

	hello, err := hs.BuildClientHello()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, hello); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("handshake write failed: %w", err)
	}

	_, serverHello, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("handshake read failed: %w", err)
	}
	if err := hs.ProcessServerHello(serverHello); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	finish := hs.BuildClientFinish(identity)
	if err := conn.WriteMessage(websocket.BinaryMessage, finish); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("handshake write failed: %w", err)
	}

	session, err := hs.SplitTransportKeys()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	return conn, session, nil
}

// installSession swaps in a fresh connection and session and starts
// the background loops for it
func (c *Client) installSession(conn *websocket.Conn, session *protocol.NoiseSession) {
	c.sessionMu.Lock()
	c.conn = conn
	c.session = session
	c.closing = false
	c.sessionMu.Unlock()

	go c.dispatchLoop(conn, session)
	if c.cfg.KeepaliveInterval > 0 {
		go c.keepaliveLoop(conn)
	}
}

// Disconnect discards the live session, closes the transport and sets
// the state to Disconnected. It always succeeds.
func (c *Client) Disconnect() error {
	c.sessionMu.Lock()
	c.closing = true
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.session = nil
	c.sessionMu.Unlock()

	c.setState(StateDisconnected, "")
	return nil
}

// Close disconnects and closes the event stream; NextEvent returns
// false once the queue drains
func (c *Client) Close() error {
	err := c.Disconnect()
	c.events.close()
	return err
}

// MarkPaired is called by the pairing layer once the device identity
// has been authorized by the account
func (c *Client) MarkPaired() {
	c.setState(StatePaired, "")
}

// MarkConnected is called by the pairing layer when the relay accepts
// the paired device for full messaging
func (c *Client) MarkConnected() {
	c.setState(StateConnected, "")
}
