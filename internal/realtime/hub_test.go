package realtime

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/notify"
)

func TestSubscriberObserves(t *testing.T) {
	owner := primitive.NewObjectID().Hex()
	admin := &Subscriber{UserID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}
	self := &Subscriber{UserID: owner, Role: models.RoleUser}
	other := &Subscriber{UserID: primitive.NewObjectID().Hex(), Role: models.RoleUser}

	if !admin.Observes(owner) {
		t.Fatal("admin must observe every owner")
	}
	if !self.Observes(owner) {
		t.Fatal("owner must observe own events")
	}
	if other.Observes(owner) {
		t.Fatal("unrelated customer must not observe")
	}
}

func TestUnsubscribeClosesStream(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("u1", models.RoleUser)

	h.Unsubscribe(sub.ID)
	if h.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", h.SubscriberCount())
	}
	if _, open := <-sub.Events(); open {
		t.Fatal("expected closed event channel after unsubscribe")
	}
}

func TestSendNeverBlocksOnFullBuffer(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("u1", models.RoleUser)
	defer h.Unsubscribe(sub.ID)

	// Nothing drains the channel; overflow must drop, not deadlock.
	for i := 0; i < subscriberBuffer*2; i++ {
		sub.send(Event{Kind: EventOrderUpdate})
	}

	if len(sub.ch) != subscriberBuffer {
		t.Fatalf("expected full buffer of %d, got %d", subscriberBuffer, len(sub.ch))
	}
}

func TestSendAfterDisconnectDropsEvent(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("u1", models.RoleUser)

	// Fan-out takes its snapshot before the disconnect lands.
	var snapshot []*Subscriber
	h.ForEach(func(s *Subscriber) {
		snapshot = append(snapshot, s)
	})

	h.Unsubscribe(sub.ID)

	// Delivering to the snapshotted subscriber must drop silently, not send
	// on the closed channel.
	for _, s := range snapshot {
		s.send(Event{Kind: EventOrderInsert})
	}

	if _, open := <-sub.Events(); open {
		t.Fatal("expected no events after disconnect")
	}
}

func TestUnsubscribeTwiceIsHarmless(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe("u1", models.RoleUser)

	h.Unsubscribe(sub.ID)
	h.Unsubscribe(sub.ID)
	sub.shutdown()

	sub.send(Event{Kind: EventOrderUpdate})
	if h.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", h.SubscriberCount())
	}
}

func TestSendAlertToTargetsAllSessionsOfUser(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("u1", models.RoleUser)
	b := h.Subscribe("u1", models.RoleUser)
	c := h.Subscribe("u2", models.RoleUser)
	defer h.Unsubscribe(a.ID)
	defer h.Unsubscribe(b.ID)
	defer h.Unsubscribe(c.ID)

	h.SendAlertTo("u1", notify.SelfTest("u1"))

	if len(a.ch) != 1 || len(b.ch) != 1 {
		t.Fatal("expected both u1 sessions to receive the alert")
	}
	if len(c.ch) != 0 {
		t.Fatal("u2 must not receive u1's alert")
	}
}
