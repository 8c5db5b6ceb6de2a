package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// ListMessages returns support messages oldest first. A nil owner returns all
// conversations (admin view).
func (s *Store) ListMessages(ctx context.Context, owner *primitive.ObjectID) []models.SupportMessage {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	filter := bson.M{}
	if owner != nil {
		filter["userId"] = *owner
	}

	cursor, err := s.db.Collection("support_messages").Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		log.Println("[STORE] [ERROR] message list failed:", err)
		return []models.SupportMessage{}
	}
	defer cursor.Close(ctx)

	var result []models.SupportMessage
	if err := cursor.All(ctx, &result); err != nil {
		log.Println("[STORE] [ERROR] message list decode failed:", err)
		return []models.SupportMessage{}
	}
	if result == nil {
		result = []models.SupportMessage{}
	}
	return result
}

// SendMessage persists one support message and returns its assigned id.
func (s *Store) SendMessage(ctx context.Context, msg models.SupportMessage) (primitive.ObjectID, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	res, err := s.db.Collection("support_messages").InsertOne(ctx, msg)
	if err != nil {
		log.Println("[STORE] [ERROR] message insert failed:", err)
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// MarkMessagesRead flips the unread messages of one conversation that were
// sent by senderRole. The reader marks the counterpart's messages, never its
// own.
func (s *Store) MarkMessagesRead(ctx context.Context, owner primitive.ObjectID, senderRole string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.Collection("support_messages").UpdateMany(ctx, bson.M{
		"userId":     owner,
		"senderRole": senderRole,
		"isRead":     false,
	}, bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		log.Println("[STORE] [ERROR] mark read failed:", err)
	}
	return err
}
