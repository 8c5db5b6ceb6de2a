package orders

import (
	"fmt"
	"strings"
	"time"

	"backend/internal/models"
)

// Update describes the persisted effect of one transition: the new status (if
// it changes), fields to set, and fields to clear. The caller applies it
// atomically together with the rev check.
type Update struct {
	Status string
	Set    map[string]interface{}
	Unset  []string
}

type illegalTransitionError struct {
	From  Phase
	Event string
}

func (e illegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an order in phase %s", e.Event, e.From.Kind)
}

type missingFieldError struct {
	Field string
}

func (e missingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// IsGuardError reports whether err is a transition guard failure (as opposed
// to an I/O problem), so handlers can map it to a 4xx response.
func IsGuardError(err error) bool {
	switch err.(type) {
	case illegalTransitionError, missingFieldError:
		return true
	}
	return false
}

// NewOrder shapes a customer submission into a pending order. Guards: the
// selected package and the payment proof (sender phone + transaction id) must
// be present.
func NewOrder(userName, userPhone, serviceName, packageDetails, amount, paymentMethod, senderPhone, trxID string, now time.Time) (models.Order, error) {
	required := []struct{ field, value string }{
		{"serviceName", serviceName},
		{"packageDetails", packageDetails},
		{"amount", amount},
		{"paymentMethod", paymentMethod},
		{"senderPhone", senderPhone},
		{"trxId", trxID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return models.Order{}, missingFieldError{Field: r.field}
		}
	}

	order := models.Order{
		UserName:       strings.TrimSpace(userName),
		UserPhone:      strings.TrimSpace(userPhone),
		ServiceName:    strings.TrimSpace(serviceName),
		PackageDetails: strings.TrimSpace(packageDetails),
		Amount:         strings.TrimSpace(amount),
		PaymentMethod:  strings.TrimSpace(paymentMethod),
		SenderPhone:    strings.TrimSpace(senderPhone),
		TrxID:          strings.TrimSpace(trxID),
		Status:         StatusPending,
		Date:           now,
		Rev:            1,
	}
	return order, nil
}

// Approve moves a pending order to approved. Top-up orders have no
// client-detail phase, so approval activates them immediately. For any other
// order a contact link for the customer is required.
func Approve(o models.Order, contactLink string, now time.Time) (Update, error) {
	if PhaseOf(o).Kind != PhasePending {
		return Update{}, illegalTransitionError{From: PhaseOf(o), Event: "approve"}
	}

	if IsTopUp(o.ServiceName) {
		return Update{
			Status: StatusApproved,
			Set: map[string]interface{}{
				"adminContactLink": "N/A",
				"startDate":        now,
			},
		}, nil
	}

	if strings.TrimSpace(contactLink) == "" {
		return Update{}, missingFieldError{Field: "contactLink"}
	}
	return Update{
		Status: StatusApproved,
		Set: map[string]interface{}{
			"adminContactLink": strings.TrimSpace(contactLink),
		},
	}, nil
}

// Reject moves a pending order to the terminal rejected state.
func Reject(o models.Order) (Update, error) {
	if PhaseOf(o).Kind != PhasePending {
		return Update{}, illegalTransitionError{From: PhaseOf(o), Event: "reject"}
	}
	return Update{Status: StatusRejected}, nil
}

// Details carries the client-submitted contact fields.
type Details struct {
	DocLink      string
	PageLink     string
	Email        string
	Whatsapp     string
	Requirements string
}

// SubmitDetails records the customer's contact fields on an approved order
// and clears any prior info request. Legal from both awaiting-details and
// info-requested (resubmission).
func SubmitDetails(o models.Order, d Details) (Update, error) {
	switch PhaseOf(o).Kind {
	case PhaseAwaitingDetails, PhaseInfoRequested:
	default:
		return Update{}, illegalTransitionError{From: PhaseOf(o), Event: "submit details"}
	}

	required := []struct{ field, value string }{
		{"docLink", d.DocLink},
		{"pageLink", d.PageLink},
		{"email", d.Email},
		{"whatsapp", d.Whatsapp},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Update{}, missingFieldError{Field: r.field}
		}
	}

	return Update{
		Set: map[string]interface{}{
			"clientDocLink":      strings.TrimSpace(d.DocLink),
			"clientPageLink":     strings.TrimSpace(d.PageLink),
			"clientEmail":        strings.TrimSpace(d.Email),
			"clientWhatsapp":     strings.TrimSpace(d.Whatsapp),
			"clientRequirements": strings.TrimSpace(d.Requirements),
			"isDetailsSubmitted": true,
		},
		Unset: []string{"adminMessage"},
	}, nil
}

// Activate starts the subscription on a reviewed order. A completion deadline
// must be provided.
func Activate(o models.Order, deadline time.Time, now time.Time) (Update, error) {
	if PhaseOf(o).Kind != PhaseInReview {
		return Update{}, illegalTransitionError{From: PhaseOf(o), Event: "activate"}
	}
	if deadline.IsZero() {
		return Update{}, missingFieldError{Field: "deadline"}
	}
	return Update{
		Set: map[string]interface{}{
			"startDate":      now,
			"completionDate": deadline,
		},
		Unset: []string{"adminMessage"},
	}, nil
}

// RequestInfo sends a reviewed order back to the customer with a message. The
// details flag resets so the customer must resubmit; previously submitted
// fields stay in place as prefill.
func RequestInfo(o models.Order, message string) (Update, error) {
	if PhaseOf(o).Kind != PhaseInReview {
		return Update{}, illegalTransitionError{From: PhaseOf(o), Event: "request info"}
	}
	if strings.TrimSpace(message) == "" {
		return Update{}, missingFieldError{Field: "message"}
	}
	return Update{
		Set: map[string]interface{}{
			"adminMessage":       strings.TrimSpace(message),
			"isDetailsSubmitted": false,
		},
	}, nil
}

// Complete archives an activated order.
func Complete(o models.Order) (Update, error) {
	if PhaseOf(o).Kind != PhaseActivated {
		return Update{}, illegalTransitionError{From: PhaseOf(o), Event: "complete"}
	}
	return Update{Status: StatusCompleted}, nil
}
