package orders

import (
	"time"

	"backend/internal/models"
)

// PhaseKind enumerates the sub-phases of an order's lifecycle. The store keeps
// a flat status string plus optional fields; Phase is the single place those
// fields are folded into one unambiguous variant.
type PhaseKind int

const (
	PhasePending PhaseKind = iota
	PhaseAwaitingDetails
	PhaseInReview
	PhaseInfoRequested
	PhaseActivated
	PhaseRejected
	PhaseCompleted
)

func (k PhaseKind) String() string {
	switch k {
	case PhasePending:
		return "pending"
	case PhaseAwaitingDetails:
		return "awaiting_details"
	case PhaseInReview:
		return "in_review"
	case PhaseInfoRequested:
		return "info_requested"
	case PhaseActivated:
		return "activated"
	case PhaseRejected:
		return "rejected"
	case PhaseCompleted:
		return "completed"
	}
	return "unknown"
}

// Phase is the tagged variant for one order sub-phase. Message is set only for
// PhaseInfoRequested; StartDate/Deadline only for PhaseActivated.
type Phase struct {
	Kind      PhaseKind
	Message   string
	StartDate time.Time
	Deadline  time.Time
}

// PhaseOf derives the current phase from the persisted fields.
func PhaseOf(o models.Order) Phase {
	switch o.Status {
	case StatusRejected:
		return Phase{Kind: PhaseRejected}
	case StatusCompleted:
		return Phase{Kind: PhaseCompleted}
	case StatusPending:
		return Phase{Kind: PhasePending}
	case StatusApproved:
		if o.StartDate != nil {
			p := Phase{Kind: PhaseActivated, StartDate: *o.StartDate}
			if o.CompletionDate != nil {
				p.Deadline = *o.CompletionDate
			}
			return p
		}
		if o.AdminMessage != "" {
			return Phase{Kind: PhaseInfoRequested, Message: o.AdminMessage}
		}
		if o.IsDetailsSubmitted {
			return Phase{Kind: PhaseInReview}
		}
		return Phase{Kind: PhaseAwaitingDetails}
	}
	return Phase{Kind: PhasePending}
}
