package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the persisted identity row backing an authenticated session.
type Profile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Role         string             `bson:"role" json:"role"`
	Location     string             `bson:"location,omitempty" json:"location,omitempty"`
	// NotifyEnabled records an explicit opt-in to OS-level notifications.
	NotifyEnabled bool      `bson:"notifyEnabled" json:"notifyEnabled"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
