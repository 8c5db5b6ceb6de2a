// Package realtime keeps local order/message state consistent with the store's
// change streams and fans events out to connected sessions.
package realtime

import (
	"backend/internal/models"
	"backend/internal/notify"
)

// Command is a typed reconciliation instruction emitted by the bridge and
// consumed only by the mirror. All local mutation flows through this single
// path.
type Command interface {
	isCommand()
}

// UpsertOrder inserts a new order unless one with the same id is already
// present (the optimistic local insert may have beaten the event here).
type UpsertOrder struct {
	Order models.Order
}

// PatchOrder merges an updated order into the existing local entry by id. An
// update for an unknown id is dropped, not synthesized; the next full refresh
// resolves the gap.
type PatchOrder struct {
	Order models.Order
}

// AppendMessage appends a support message unless its id is already present.
type AppendMessage struct {
	Message models.SupportMessage
}

func (UpsertOrder) isCommand()   {}
func (PatchOrder) isCommand()    {}
func (AppendMessage) isCommand() {}

// Event is what subscribers receive over their stream.
type Event struct {
	Kind     string                  `json:"kind"`
	Order    *models.Order           `json:"order,omitempty"`
	Message  *models.SupportMessage  `json:"message,omitempty"`
	Alert    *notify.Alert           `json:"alert,omitempty"`
	Orders   []models.Order          `json:"orders,omitempty"`
	Messages []models.SupportMessage `json:"messages,omitempty"`
}

const (
	EventOrderInsert   = "order.insert"
	EventOrderUpdate   = "order.update"
	EventMessageInsert = "message.insert"
	EventAlert         = "alert"
	EventSnapshot      = "snapshot"
)
