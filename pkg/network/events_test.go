package network

import (
	"sync"
	"testing"
	"time"
)

func TestEventQueueFIFO(t *testing.T) {
	q := newEventQueue()

	states := []ConnectionState{StateConnecting, StateWaitingForPairing, StatePaired, StateConnected}
	for _, s := range states {
		q.push(&Event{Type: EventStateChange, State: s})
	}

	for i, want := range states {
		ev, ok := q.next()
		if !ok {
			t.Fatalf("next() at %d returned closed", i)
		}
		if ev.State != want {
			t.Errorf("event %d state = %v, want %v", i, ev.State, want)
		}
	}

	if _, ok := q.tryNext(); ok {
		t.Error("tryNext() on a drained queue returned an event")
	}
}

func TestEventQueueTryNext(t *testing.T) {
	q := newEventQueue()

	if _, ok := q.tryNext(); ok {
		t.Fatal("tryNext() on an empty queue returned an event")
	}

	q.push(&Event{Type: EventPairingCode, PairingCode: "ABCD-1234"})
	ev, ok := q.tryNext()
	if !ok {
		t.Fatal("tryNext() missed a queued event")
	}
	if ev.PairingCode != "ABCD-1234" {
		t.Errorf("pairing code = %q, want %q", ev.PairingCode, "ABCD-1234")
	}
}

func TestEventQueueNextBlocksUntilPush(t *testing.T) {
	q := newEventQueue()

	done := make(chan *Event, 1)
	go func() {
		ev, ok := q.next()
		if ok {
			done <- ev
		}
		close(done)
	}()

	// Give the reader a moment to block before publishing
	time.Sleep(20 * time.Millisecond)
	q.push(&Event{Type: EventQRCode, QRCode: "nimbus-ref"})

	select {
	case ev := <-done:
		if ev == nil || ev.QRCode != "nimbus-ref" {
			t.Fatalf("blocked reader got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("push did not wake the blocked reader")
	}
}

func TestEventQueueCloseWakesReaders(t *testing.T) {
	q := newEventQueue()

	var wg sync.WaitGroup
	results := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.next()
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.close()

	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not wake all blocked readers")
	}

	for i := 0; i < 3; i++ {
		if ok := <-results; ok {
			t.Error("reader on a closed empty queue reported an event")
		}
	}
}

func TestEventQueueDrainsAfterClose(t *testing.T) {
	q := newEventQueue()
	q.push(&Event{Type: EventStateChange, State: StateDisconnected})
	q.close()

	// Events queued before close stay readable
	ev, ok := q.next()
	if !ok {
		t.Fatal("queued event lost on close")
	}
	if ev.State != StateDisconnected {
		t.Errorf("state = %v, want disconnected", ev.State)
	}

	if _, ok := q.next(); ok {
		t.Error("next() after draining a closed queue returned an event")
	}

	// Pushes after close are dropped
	q.push(&Event{Type: EventError})
	if _, ok := q.tryNext(); ok {
		t.Error("push after close was accepted")
	}
}

func TestConnectionStateString(t *testing.T) {
	cases := map[ConnectionState]string{
		StateDisconnected:      "disconnected",
		StateConnecting:        "connecting",
		StateWaitingForPairing: "waiting_for_pairing",
		StatePaired:            "paired",
		StateConnected:         "connected",
		StateReconnecting:      "reconnecting",
		StateFailed:            "failed",
		ConnectionState(99):    "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
