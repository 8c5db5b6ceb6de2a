package realtime

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"backend/internal/models"
	"backend/internal/notify"
)

const subscriberBuffer = 32

// Subscriber is one connected session's event stream.
type Subscriber struct {
	ID     string
	UserID string
	Role   string

	mu     sync.Mutex
	closed bool
	ch     chan Event
}

// Events exposes the receive side of the subscriber's stream.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Observes reports whether an event owned by ownerID is relevant to this
// subscriber: admins see everything, everyone else only their own.
func (s *Subscriber) Observes(ownerID string) bool {
	return s.Role == models.RoleAdmin || s.UserID == ownerID
}

// send delivers without ever blocking the reconciliation path. A full buffer
// means the session is too slow; the event is dropped and the next snapshot
// resolves the gap. The lock orders send against close: a fan-out racing a
// disconnect drops the event instead of hitting a closed channel.
func (s *Subscriber) send(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	default:
		log.Printf("[REALTIME] [WARN] subscriber %s buffer full, dropping %s", s.ID, ev.Kind)
	}
}

// shutdown marks the subscriber closed and closes its stream. Safe to call
// while sends are in flight; idempotent.
func (s *Subscriber) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Hub tracks connected subscribers and fans events out to them.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscriber)}
}

// Subscribe registers a session. The caller must Unsubscribe when the
// connection ends; subscriptions never outlive their session.
func (h *Hub) Subscribe(userID, role string) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		ch:     make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	log.Printf("[REALTIME] [INFO] subscriber %s attached (role=%s)", sub.ID, role)
	return sub
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()

	if ok {
		sub.shutdown()
		log.Printf("[REALTIME] [INFO] subscriber %s detached", id)
	}
}

// ForEach visits a snapshot of the current subscribers.
func (h *Hub) ForEach(fn func(*Subscriber)) {
	h.mu.RLock()
	snapshot := make([]*Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		snapshot = append(snapshot, sub)
	}
	h.mu.RUnlock()

	for _, sub := range snapshot {
		fn(sub)
	}
}

// SendAlertTo delivers an alert to every session of one user (e.g. the
// permission self-test).
func (h *Hub) SendAlertTo(userID string, alert *notify.Alert) {
	h.ForEach(func(sub *Subscriber) {
		if sub.UserID == userID {
			sub.send(Event{Kind: EventAlert, Alert: alert})
		}
	})
}

// SubscriberCount reports the number of attached sessions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
