package realtime

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// Mirror is the in-memory reflection of the orders and support_messages
// collections. It is shared mutable state read by every connected session, so
// every mutation goes through Apply.
type Mirror struct {
	mu       sync.RWMutex
	orders   []models.Order // newest first
	messages []models.SupportMessage
	msgIDs   map[primitive.ObjectID]struct{}
}

func NewMirror() *Mirror {
	return &Mirror{msgIDs: make(map[primitive.ObjectID]struct{})}
}

// Apply executes one reconciliation command. It returns the prior state of
// the touched order (nil if none) and whether the command changed anything.
// Inserts are idempotent by id; updates for ids not locally present are
// dropped.
func (m *Mirror) Apply(cmd Command) (old *models.Order, applied bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch c := cmd.(type) {
	case UpsertOrder:
		for i := range m.orders {
			if m.orders[i].ID == c.Order.ID {
				prior := m.orders[i]
				return &prior, false
			}
		}
		m.orders = append([]models.Order{c.Order}, m.orders...)
		return nil, true

	case PatchOrder:
		for i := range m.orders {
			if m.orders[i].ID == c.Order.ID {
				prior := m.orders[i]
				m.orders[i] = c.Order
				return &prior, true
			}
		}
		return nil, false

	case AppendMessage:
		if _, ok := m.msgIDs[c.Message.ID]; ok {
			return nil, false
		}
		m.msgIDs[c.Message.ID] = struct{}{}
		m.messages = append(m.messages, c.Message)
		return nil, true
	}
	return nil, false
}

// ReplaceAll swaps in fresh collections after a full reconciliation re-fetch.
func (m *Mirror) ReplaceAll(orders []models.Order, messages []models.SupportMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = append([]models.Order(nil), orders...)
	m.messages = append([]models.SupportMessage(nil), messages...)
	m.msgIDs = make(map[primitive.ObjectID]struct{}, len(messages))
	for _, msg := range messages {
		m.msgIDs[msg.ID] = struct{}{}
	}
}

// OrdersFor returns a copy of the orders visible to the observer: everything
// for admins, own orders otherwise.
func (m *Mirror) OrdersFor(userID, role string) []models.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if role == models.RoleAdmin || o.UserID.Hex() == userID {
			result = append(result, o)
		}
	}
	return result
}

// MessagesFor returns a copy of the messages visible to the observer.
func (m *Mirror) MessagesFor(userID, role string) []models.SupportMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.SupportMessage, 0, len(m.messages))
	for _, msg := range m.messages {
		if role == models.RoleAdmin || msg.UserID.Hex() == userID {
			result = append(result, msg)
		}
	}
	return result
}

// OrderCount reports the number of mirrored orders.
func (m *Mirror) OrderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}
