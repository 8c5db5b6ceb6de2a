package realtime

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func TestUpsertOrderIdempotent(t *testing.T) {
	m := NewMirror()
	order := models.Order{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Status: "pending"}

	if _, applied := m.Apply(UpsertOrder{Order: order}); !applied {
		t.Fatal("first insert must apply")
	}
	if _, applied := m.Apply(UpsertOrder{Order: order}); applied {
		t.Fatal("duplicate insert must be a no-op")
	}
	if m.OrderCount() != 1 {
		t.Fatalf("expected 1 order after duplicate insert, got %d", m.OrderCount())
	}
}

func TestUpsertOrderPrependsNewestFirst(t *testing.T) {
	m := NewMirror()
	owner := primitive.NewObjectID()
	first := models.Order{ID: primitive.NewObjectID(), UserID: owner}
	second := models.Order{ID: primitive.NewObjectID(), UserID: owner}

	m.Apply(UpsertOrder{Order: first})
	m.Apply(UpsertOrder{Order: second})

	visible := m.OrdersFor(owner.Hex(), models.RoleUser)
	if len(visible) != 2 || visible[0].ID != second.ID {
		t.Fatalf("expected newest order first, got %v", visible)
	}
}

func TestPatchOrderMergesByID(t *testing.T) {
	m := NewMirror()
	order := models.Order{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Status: "pending", Rev: 1}
	m.Apply(UpsertOrder{Order: order})

	updated := order
	updated.Status = "approved"
	updated.Rev = 2

	old, applied := m.Apply(PatchOrder{Order: updated})
	if !applied {
		t.Fatal("patch for present order must apply")
	}
	if old == nil || old.Status != "pending" {
		t.Fatalf("expected prior state returned, got %v", old)
	}

	visible := m.OrdersFor(order.UserID.Hex(), models.RoleUser)
	if visible[0].Status != "approved" {
		t.Fatalf("expected merged status, got %q", visible[0].Status)
	}
}

func TestPatchOrderForUnknownIDDropped(t *testing.T) {
	m := NewMirror()
	stray := models.Order{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), Status: "approved"}

	old, applied := m.Apply(PatchOrder{Order: stray})
	if applied || old != nil {
		t.Fatal("update for an absent order must be dropped, not synthesized")
	}
	if m.OrderCount() != 0 {
		t.Fatalf("expected empty mirror, got %d orders", m.OrderCount())
	}
}

func TestAppendMessageIdempotent(t *testing.T) {
	m := NewMirror()
	msg := models.SupportMessage{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), SenderRole: models.RoleUser}

	if _, applied := m.Apply(AppendMessage{Message: msg}); !applied {
		t.Fatal("first append must apply")
	}
	if _, applied := m.Apply(AppendMessage{Message: msg}); applied {
		t.Fatal("duplicate append must be a no-op")
	}
	if got := m.MessagesFor(msg.UserID.Hex(), models.RoleUser); len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
}

func TestVisibilityFiltering(t *testing.T) {
	m := NewMirror()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	m.Apply(UpsertOrder{Order: models.Order{ID: primitive.NewObjectID(), UserID: alice}})
	m.Apply(UpsertOrder{Order: models.Order{ID: primitive.NewObjectID(), UserID: bob}})

	if got := m.OrdersFor(alice.Hex(), models.RoleUser); len(got) != 1 {
		t.Fatalf("customer must only see own orders, got %d", len(got))
	}
	if got := m.OrdersFor(primitive.NewObjectID().Hex(), models.RoleAdmin); len(got) != 2 {
		t.Fatalf("admin must see all orders, got %d", len(got))
	}
}

func TestReplaceAllResetsState(t *testing.T) {
	m := NewMirror()
	owner := primitive.NewObjectID()
	stale := models.Order{ID: primitive.NewObjectID(), UserID: owner}
	m.Apply(UpsertOrder{Order: stale})

	fresh := models.Order{ID: primitive.NewObjectID(), UserID: owner}
	msg := models.SupportMessage{ID: primitive.NewObjectID(), UserID: owner}
	m.ReplaceAll([]models.Order{fresh}, []models.SupportMessage{msg})

	got := m.OrdersFor(owner.Hex(), models.RoleUser)
	if len(got) != 1 || got[0].ID != fresh.ID {
		t.Fatalf("expected refreshed collection, got %v", got)
	}

	// Message id dedupe must follow the replacement.
	if _, applied := m.Apply(AppendMessage{Message: msg}); applied {
		t.Fatal("message present in refresh must not re-append")
	}
}
