package network

import (
	"sync"

	"github.com/NimbusChat/nimbus-client/pkg/protocol"
)

// ConnectionState is the externally observable lifecycle of a
// connection attempt. Exactly one state is current at any time.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateWaitingForPairing
	StatePaired
	StateConnected
	StateReconnecting
	StateFailed
)

// String returns a human-readable state name
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateWaitingForPairing:
		return "waiting_for_pairing"
	case StatePaired:
		return "paired"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventType discriminates the Event union
type EventType int

const (
	EventStateChange EventType = iota
	EventQRCode
	EventPairingCode
	EventMessage
	EventDeliveryAck
	EventPresence
	EventGroupUpdate
	EventHistorySync
	EventError
)

// DeliveryAck reports that a sent message reached its recipient
type DeliveryAck struct {
	MessageID string
	From      string
	Timestamp int64
}

// PresenceUpdate reports a contact's availability change
type PresenceUpdate struct {
	From      string
	Available bool
	LastSeen  int64
}

// GroupUpdate reports a change to a group's membership or metadata
type GroupUpdate struct {
	GroupJID     string
	Action       string
	Participants []string
	Timestamp    int64
}

// Event is one entry on the client's event stream. Type selects which
// payload field is set.
type Event struct {
	Type EventType

	State  ConnectionState // EventStateChange
	Reason string          // detail for StateFailed

	QRCode      string // EventQRCode
	PairingCode string // EventPairingCode

	Message  *protocol.IncomingMessage   // EventMessage
	Ack      *DeliveryAck                // EventDeliveryAck
	Presence *PresenceUpdate             // EventPresence
	Group    *GroupUpdate                // EventGroupUpdate
	History  []*protocol.IncomingMessage // EventHistorySync

	Err error // EventError
}

// eventQueue is an unbounded FIFO between the dispatch loop and the
// caller. Events come out in exactly the order they were pushed.
type eventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []*Event
	closed bool
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends an event. Pushes after close are dropped.
func (q *eventQueue) push(ev *Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.events = append(q.events, ev)
	q.cond.Signal()
}

// next blocks until an event is available or the queue is closed.
// The second return is false once the queue is closed and drained.
func (q *eventQueue) next() (*Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.events) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.events) == 0 {
		return nil, false
	}

	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

// tryNext returns the next event without blocking
func (q *eventQueue) tryNext() (*Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil, false
	}
	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

// close wakes every blocked reader; queued events stay readable
func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}
