// Package events fans session changes out to live subscribers.
package events

import (
	"sync"
	"time"
)

// Event types published for a session.
const (
	// TypeSession carries a full session snapshot (upload, reset, generation result).
	TypeSession = "session"
	// TypeMessage carries one appended transcript message.
	TypeMessage = "message"
	// TypeTyping carries {"typing": bool}.
	TypeTyping = "typing"
	// TypeStatus carries {"status": string, "pendingStyleId": string}.
	TypeStatus = "status"
	// TypeSlider carries the slider position and geometry.
	TypeSlider = "slider"
	// TypeClosed is sent once when the session expires.
	TypeClosed = "closed"
)

// subscriberBuffer bounds how far a slow subscriber may lag before events are dropped.
const subscriberBuffer = 32

// Event is one notification delivered to subscribers of a session.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Subscription receives events for a single session until cancelled.
type Subscription struct {
	C <-chan Event

	ch        chan Event
	sessionID string
	broker    *Broker
	closed    bool // guarded by broker.mu
}

// Cancel detaches the subscription; C is closed afterwards.
func (s *Subscription) Cancel() {
	s.broker.remove(s)
}

// Broker routes events to the subscribers of each session.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
	now  func() time.Time
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[*Subscription]struct{}),
		now:  time.Now,
	}
}

// Subscribe registers a new listener for sessionID.
func (b *Broker) Subscribe(sessionID string) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, sessionID: sessionID, broker: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers an event to every subscriber of sessionID without blocking:
// subscribers whose buffer is full miss the event.
func (b *Broker) Publish(sessionID, eventType string, data any) {
	evt := Event{Type: eventType, SessionID: sessionID, Data: data, Timestamp: b.now().UnixMilli()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[sessionID] {
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// CloseSession notifies and detaches every subscriber of sessionID.
func (b *Broker) CloseSession(sessionID string) {
	evt := Event{Type: TypeClosed, SessionID: sessionID, Timestamp: b.now().UnixMilli()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[sessionID] {
		select {
		case sub.ch <- evt:
		default:
		}
		sub.closeLocked()
	}
	delete(b.subs, sessionID)
}

// Subscribers returns the number of listeners attached to sessionID.
func (b *Broker) Subscribers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[sessionID])
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[sub.sessionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.sessionID)
		}
	}
	sub.closeLocked()
}

func (s *Subscription) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
