package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
	"backend/internal/orders"
)

// ListOrders returns orders newest first. With a nil owner it returns all
// orders (admin view); callers enforce that authorization. Unreachable store
// degrades to an empty list.
func (s *Store) ListOrders(ctx context.Context, owner *primitive.ObjectID) []models.Order {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	filter := bson.M{}
	if owner != nil {
		filter["userId"] = *owner
	}

	cursor, err := s.db.Collection("orders").Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		log.Println("[STORE] [ERROR] order list failed:", err)
		return []models.Order{}
	}
	defer cursor.Close(ctx)

	var result []models.Order
	if err := cursor.All(ctx, &result); err != nil {
		log.Println("[STORE] [ERROR] order list decode failed:", err)
		return []models.Order{}
	}
	if result == nil {
		result = []models.Order{}
	}
	return result
}

// GetOrder returns one order by id.
func (s *Store) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var order models.Order
	err := s.db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Println("[STORE] [ERROR] order lookup failed:", err)
		return nil, err
	}
	return &order, nil
}

// InsertOrder persists a new order and returns its assigned id.
func (s *Store) InsertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		log.Println("[STORE] [ERROR] order insert failed:", err)
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// ApplyOrderUpdate applies a transition's field effects atomically against the
// rev the caller read. A rev mismatch returns ErrConflict so the caller can
// re-fetch instead of diverging. Store-side constraint and permission errors
// keep their original text; they indicate a fixable configuration problem and
// must reach the actor verbatim.
func (s *Store) ApplyOrderUpdate(ctx context.Context, id primitive.ObjectID, rev int64, upd orders.Update) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	set := bson.M{}
	for k, v := range upd.Set {
		set[k] = v
	}
	if upd.Status != "" {
		set["status"] = upd.Status
	}

	update := bson.M{
		"$set": set,
		"$inc": bson.M{"rev": 1},
	}
	if len(upd.Unset) > 0 {
		unset := bson.M{}
		for _, f := range upd.Unset {
			unset[f] = ""
		}
		update["$unset"] = unset
	}

	res, err := s.db.Collection("orders").UpdateOne(ctx,
		bson.M{"_id": id, "rev": rev}, update)
	if err != nil {
		log.Println("[STORE] [ERROR] order update failed:", err)
		return describeWriteError(err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// describeWriteError surfaces the store's own reason for refusing a write
// instead of a generic failure.
func describeWriteError(err error) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.Code == 13 {
			return fmt.Errorf("store permission denied: %s", cmdErr.Message)
		}
		return fmt.Errorf("store rejected update: %s", cmdErr.Message)
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			if we.Code == 121 {
				return fmt.Errorf("store constraint violation: %s", we.Message)
			}
		}
		if len(writeErr.WriteErrors) > 0 {
			return fmt.Errorf("store rejected update: %s", writeErr.WriteErrors[0].Message)
		}
	}
	return err
}
