package realtime

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
	"backend/internal/notify"
	"backend/internal/store"
)

const watchBackoff = 3 * time.Second

// Bridge subscribes to the orders and support_messages change streams,
// reconciles the mirror through typed commands, and fans relevant events and
// alerts out to hub subscribers.
type Bridge struct {
	store  *store.Store
	hub    *Hub
	mirror *Mirror
}

func NewBridge(st *store.Store, hub *Hub, mirror *Mirror) *Bridge {
	return &Bridge{store: st, hub: hub, mirror: mirror}
}

// Run starts the two stream watchers and blocks until ctx is done. Stream
// failures are retried with backoff; every re-watch is preceded by a full
// refresh so events missed during the gap are not lost.
func (b *Bridge) Run(ctx context.Context) {
	b.Refresh(ctx)

	go b.watchLoop(ctx, "orders", b.watchOrders)
	go b.watchLoop(ctx, "support_messages", b.watchMessages)

	<-ctx.Done()
}

// Refresh re-fetches both collections into the mirror. This is the recovery
// path for any persistence failure or stream gap: never trust a diverged
// local state, replace it.
func (b *Bridge) Refresh(ctx context.Context) {
	orders := b.store.ListOrders(ctx, nil)
	messages := b.store.ListMessages(ctx, nil)
	b.mirror.ReplaceAll(orders, messages)
	log.Printf("[REALTIME] [INFO] mirror refreshed: %d orders, %d messages", len(orders), len(messages))
}

func (b *Bridge) watchLoop(ctx context.Context, name string, watch func(context.Context) error) {
	for ctx.Err() == nil {
		if err := watch(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[REALTIME] [ERROR] %s stream failed: %v", name, err)
		}
		if ctx.Err() != nil {
			return
		}
		time.Sleep(watchBackoff)
		b.Refresh(ctx)
	}
}

type orderChangeEvent struct {
	OperationType string       `bson:"operationType"`
	FullDocument  models.Order `bson:"fullDocument"`
}

type messageChangeEvent struct {
	OperationType string                `bson:"operationType"`
	FullDocument  models.SupportMessage `bson:"fullDocument"`
}

var changePipeline = mongo.Pipeline{
	bson.D{{Key: "$match", Value: bson.M{
		"operationType": bson.M{"$in": bson.A{"insert", "update", "replace"}},
	}}},
}

func (b *Bridge) watchOrders(ctx context.Context) error {
	stream, err := b.store.Database().Collection("orders").Watch(ctx, changePipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return err
	}
	defer stream.Close(ctx)

	log.Println("[REALTIME] [INFO] watching orders change stream")
	for stream.Next(ctx) {
		var ev orderChangeEvent
		if err := stream.Decode(&ev); err != nil {
			log.Println("[REALTIME] [ERROR] order event decode failed:", err)
			continue
		}
		b.handleOrderEvent(ev.OperationType, ev.FullDocument)
	}
	return stream.Err()
}

func (b *Bridge) watchMessages(ctx context.Context) error {
	stream, err := b.store.Database().Collection("support_messages").Watch(ctx, changePipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return err
	}
	defer stream.Close(ctx)

	log.Println("[REALTIME] [INFO] watching support_messages change stream")
	for stream.Next(ctx) {
		var ev messageChangeEvent
		if err := stream.Decode(&ev); err != nil {
			log.Println("[REALTIME] [ERROR] message event decode failed:", err)
			continue
		}
		if ev.OperationType != "insert" {
			// Read-flag updates reconcile via snapshot; no alert value.
			continue
		}
		b.handleMessageEvent(ev.FullDocument)
	}
	return stream.Err()
}

func (b *Bridge) handleOrderEvent(opType string, order models.Order) {
	var (
		old     *models.Order
		applied bool
		kind    string
	)

	if opType == "insert" {
		old, applied = b.mirror.Apply(UpsertOrder{Order: order})
		kind = EventOrderInsert
		if !applied {
			// Duplicate delivery for an order already merged; alerting again
			// would only stack.
			return
		}
	} else {
		old, applied = b.mirror.Apply(PatchOrder{Order: order})
		kind = EventOrderUpdate
		if !applied {
			// Out-of-order update for an order we never saw: drop, the next
			// refresh resolves it.
			return
		}
	}

	ownerID := order.UserID.Hex()
	change := notify.OrderChange{Type: opType, New: order, Old: old}
	if opType != "insert" {
		change.Type = "update"
	}

	b.hub.ForEach(func(sub *Subscriber) {
		if !sub.Observes(ownerID) {
			return
		}
		sub.send(Event{Kind: kind, Order: &order})
		if alert := notify.DecideOrder(change, notify.Observer{UserID: sub.UserID, Role: sub.Role}); alert != nil {
			sub.send(Event{Kind: EventAlert, Alert: alert})
		}
	})
}

func (b *Bridge) handleMessageEvent(msg models.SupportMessage) {
	if _, applied := b.mirror.Apply(AppendMessage{Message: msg}); !applied {
		return
	}

	ownerID := msg.UserID.Hex()
	b.hub.ForEach(func(sub *Subscriber) {
		if !sub.Observes(ownerID) {
			return
		}
		sub.send(Event{Kind: EventMessageInsert, Message: &msg})
		if alert := notify.DecideMessage(msg, notify.Observer{UserID: sub.UserID, Role: sub.Role}); alert != nil {
			sub.send(Event{Kind: EventAlert, Alert: alert})
		}
	})
}
