package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SupportMessage is one entry in a support conversation. UserID always names
// the customer side of the conversation, even when the sender is an admin.
type SupportMessage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	SenderRole string             `bson:"senderRole" json:"senderRole"`
	Message    string             `bson:"message" json:"message"`
	IsRead     bool               `bson:"isRead" json:"isRead"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
