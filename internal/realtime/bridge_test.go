package realtime

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func drainAlerts(sub *Subscriber) []Event {
	var alerts []Event
	for {
		select {
		case ev := <-sub.ch:
			if ev.Kind == EventAlert {
				alerts = append(alerts, ev)
			}
		default:
			return alerts
		}
	}
}

func TestNewOrderAlertsEveryAdminSessionOnce(t *testing.T) {
	hub := NewHub()
	mirror := NewMirror()
	bridge := NewBridge(nil, hub, mirror)

	owner := primitive.NewObjectID()
	adminA := hub.Subscribe(primitive.NewObjectID().Hex(), models.RoleAdmin)
	adminB := hub.Subscribe(primitive.NewObjectID().Hex(), models.RoleAdmin)
	customer := hub.Subscribe(owner.Hex(), models.RoleUser)
	defer hub.Unsubscribe(adminA.ID)
	defer hub.Unsubscribe(adminB.ID)
	defer hub.Unsubscribe(customer.ID)

	order := models.Order{
		ID:          primitive.NewObjectID(),
		UserID:      owner,
		UserName:    "Rahim",
		ServiceName: "API ক্রেডিট রিচার্জ",
		Amount:      "৳500",
		Status:      "pending",
		Rev:         1,
	}
	bridge.handleOrderEvent("insert", order)

	alertsA := drainAlerts(adminA)
	alertsB := drainAlerts(adminB)
	if len(alertsA) != 1 || len(alertsB) != 1 {
		t.Fatalf("expected exactly one alert per admin session, got %d and %d", len(alertsA), len(alertsB))
	}
	if alertsA[0].Alert.Tag != alertsB[0].Alert.Tag {
		t.Fatal("the same logical event must carry the same tag in both sessions")
	}
	if len(drainAlerts(customer)) != 0 {
		t.Fatal("the submitting customer must not be alerted")
	}

	// Duplicate stream delivery: mirror dedupes, no second alert.
	bridge.handleOrderEvent("insert", order)
	if len(drainAlerts(adminA)) != 0 {
		t.Fatal("duplicate insert event must not re-alert")
	}
}

func TestStatusUpdateReachesOwnerWithAlert(t *testing.T) {
	hub := NewHub()
	mirror := NewMirror()
	bridge := NewBridge(nil, hub, mirror)

	owner := primitive.NewObjectID()
	order := models.Order{ID: primitive.NewObjectID(), UserID: owner, Status: "pending", Rev: 1}
	mirror.Apply(UpsertOrder{Order: order})

	customer := hub.Subscribe(owner.Hex(), models.RoleUser)
	stranger := hub.Subscribe(primitive.NewObjectID().Hex(), models.RoleUser)
	defer hub.Unsubscribe(customer.ID)
	defer hub.Unsubscribe(stranger.ID)

	updated := order
	updated.Status = "approved"
	updated.Rev = 2
	bridge.handleOrderEvent("update", updated)

	var sawUpdate, sawAlert bool
	for len(customer.ch) > 0 {
		ev := <-customer.ch
		switch ev.Kind {
		case EventOrderUpdate:
			sawUpdate = true
		case EventAlert:
			sawAlert = true
		}
	}
	if !sawUpdate || !sawAlert {
		t.Fatalf("owner expected update+alert, got update=%v alert=%v", sawUpdate, sawAlert)
	}
	if len(stranger.ch) != 0 {
		t.Fatal("unrelated customer must receive nothing")
	}
}

func TestUpdateForUnknownOrderFansOutNothing(t *testing.T) {
	hub := NewHub()
	bridge := NewBridge(nil, hub, NewMirror())

	owner := primitive.NewObjectID()
	customer := hub.Subscribe(owner.Hex(), models.RoleUser)
	defer hub.Unsubscribe(customer.ID)

	bridge.handleOrderEvent("update", models.Order{ID: primitive.NewObjectID(), UserID: owner, Status: "approved"})

	if len(customer.ch) != 0 {
		t.Fatal("out-of-order update for unknown id must be dropped silently")
	}
}

func TestMessageInsertAlertsRecipientOnly(t *testing.T) {
	hub := NewHub()
	bridge := NewBridge(nil, hub, NewMirror())

	owner := primitive.NewObjectID()
	admin := hub.Subscribe(primitive.NewObjectID().Hex(), models.RoleAdmin)
	customer := hub.Subscribe(owner.Hex(), models.RoleUser)
	defer hub.Unsubscribe(admin.ID)
	defer hub.Unsubscribe(customer.ID)

	msg := models.SupportMessage{
		ID:         primitive.NewObjectID(),
		UserID:     owner,
		SenderRole: models.RoleUser,
		Message:    "দাম কত?",
	}
	bridge.handleMessageEvent(msg)

	if len(drainAlerts(admin)) != 1 {
		t.Fatal("admin expected one alert for the customer message")
	}
	// Customer still receives the message event for rendering, but no alert.
	var customerAlerts int
	for len(customer.ch) > 0 {
		if ev := <-customer.ch; ev.Kind == EventAlert {
			customerAlerts++
		}
	}
	if customerAlerts != 0 {
		t.Fatal("sender's own session must not be alerted")
	}
}
