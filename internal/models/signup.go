package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingSignup holds a registration awaiting email code verification. The
// document is dropped by a TTL index once ExpiresAt passes.
type PendingSignup struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	CodeHash     string             `bson:"codeHash" json:"-"`
	ExpiresAt    time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
