// Package notify decides when a change warrants alerting an observer. The
// decision is pure; delivery happens over the realtime hub's event stream and
// the client's own channels (toast, audio, OS notification).
package notify

import (
	"fmt"
	"time"

	"backend/internal/models"
)

// Alert is one user-facing notification. Tag is stable per logical event so
// duplicate deliveries coalesce instead of stacking; it is identical across
// observer sessions.
type Alert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
	Sound bool   `json:"sound"`
	// DismissAfterMs bounds the in-app toast lifetime.
	DismissAfterMs int `json:"dismissAfterMs"`
}

const toastDismiss = 6 * time.Second

// Observer identifies who is looking at the stream.
type Observer struct {
	UserID string
	Role   string
}

// OrderChange is a reconciled order event with its prior local state, when
// known. Old is nil for inserts and for updates whose order was not in the
// local mirror.
type OrderChange struct {
	Type string // "insert" | "update"
	New  models.Order
	Old  *models.Order
}

func newAlert(title, body, tag string) *Alert {
	return &Alert{
		Title:          title,
		Body:           body,
		Tag:            tag,
		Sound:          true,
		DismissAfterMs: int(toastDismiss / time.Millisecond),
	}
}

// DecideOrder returns the alert an order change warrants for the observer, or
// nil. New orders alert admins; admin-side changes (status, activation, info
// request) alert the owner; a customer's details submission alerts admins.
func DecideOrder(ch OrderChange, obs Observer) *Alert {
	isAdmin := obs.Role == models.RoleAdmin
	isOwner := ch.New.UserID.Hex() == obs.UserID

	if !isAdmin && !isOwner {
		return nil
	}

	if ch.Type == "insert" {
		if !isAdmin {
			return nil
		}
		return newAlert(
			"নতুন অর্ডার!",
			fmt.Sprintf("%s অর্ডার করেছেন: %s (%s)", ch.New.UserName, ch.New.ServiceName, ch.New.Amount),
			fmt.Sprintf("order-insert-%s", ch.New.ID.Hex()),
		)
	}

	if ch.Old == nil {
		// Update for an order we never saw; nothing to compare against.
		return nil
	}

	tag := fmt.Sprintf("order-update-%s-r%d", ch.New.ID.Hex(), ch.New.Rev)

	if isAdmin {
		if !ch.Old.IsDetailsSubmitted && ch.New.IsDetailsSubmitted {
			return newAlert(
				"অর্ডার আপডেট",
				fmt.Sprintf("%s অর্ডার ডিটেইলস সাবমিট করেছেন।", ch.New.UserName),
				tag,
			)
		}
		return nil
	}

	// Owner: alert on changes the admin made.
	switch {
	case ch.Old.Status != ch.New.Status:
		return newAlert(
			"অর্ডার আপডেট",
			fmt.Sprintf("আপনার অর্ডারের স্ট্যাটাস পরিবর্তন হয়েছে: %s", ch.New.Status),
			tag,
		)
	case ch.Old.StartDate == nil && ch.New.StartDate != nil:
		return newAlert(
			"অর্ডার আপডেট",
			"আপনার সাবস্ক্রিপশন চালু হয়েছে।",
			tag,
		)
	case ch.Old.AdminMessage == "" && ch.New.AdminMessage != "":
		return newAlert(
			"অর্ডার আপডেট",
			"অ্যাডমিন আপনার অর্ডারে অতিরিক্ত তথ্য চেয়েছেন।",
			tag,
		)
	}
	return nil
}

// DecideMessage returns the alert a new support message warrants for the
// observer, or nil. Only the counterpart of the sender is alerted.
func DecideMessage(msg models.SupportMessage, obs Observer) *Alert {
	if msg.SenderRole == obs.Role {
		return nil
	}

	isAdmin := obs.Role == models.RoleAdmin
	if !isAdmin && msg.UserID.Hex() != obs.UserID {
		return nil
	}

	tag := fmt.Sprintf("message-%s", msg.ID.Hex())
	if isAdmin {
		return newAlert("🔔 সাপোর্ট মেসেজ", "একজন কাস্টমার আপনাকে মেসেজ পাঠিয়েছেন।", tag)
	}
	return newAlert("অ্যাডমিন রিপ্লাই", "সাপোর্ট থেকে নতুন মেসেজ এসেছে।", tag)
}

// SelfTest is the confirmation alert fired right after a user grants
// notification permission.
func SelfTest(userID string) *Alert {
	return newAlert(
		"নোটিফিকেশন চালু হয়েছে",
		"এখন থেকে আপনি সাউন্ড এবং অ্যালার্ট পাবেন।",
		fmt.Sprintf("self-test-%s-%d", userID, time.Now().UnixNano()),
	)
}
