package store

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// GetProfile returns the profile for id, or nil when none exists.
func (s *Store) GetProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var profile models.Profile
	err := s.db.Collection("profiles").FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		log.Println("[STORE] [ERROR] profile lookup failed:", err)
		return nil, err
	}
	return &profile, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var profile models.Profile
	err := s.db.Collection("profiles").FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		log.Println("[STORE] [ERROR] profile email lookup failed:", err)
		return nil, err
	}
	return &profile, nil
}

// ListProfiles returns all profiles (admin user table). Unreachable store
// degrades to an empty list.
func (s *Store) ListProfiles(ctx context.Context) []models.Profile {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.db.Collection("profiles").Find(ctx, bson.M{})
	if err != nil {
		log.Println("[STORE] [ERROR] profile list failed:", err)
		return []models.Profile{}
	}
	defer cursor.Close(ctx)

	var profiles []models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		log.Println("[STORE] [ERROR] profile list decode failed:", err)
		return []models.Profile{}
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return profiles
}

// UpsertProfile writes the profile keyed by its id. Safe to call repeatedly
// for the same identity; failures are logged and returned but are non-fatal
// to most callers.
func (s *Store) UpsertProfile(ctx context.Context, profile models.Profile) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	profile.Email = normalizeEmail(profile.Email)
	profile.UpdatedAt = time.Now()

	set := bson.M{
		"email":         profile.Email,
		"name":          profile.Name,
		"phone":         profile.Phone,
		"role":          profile.Role,
		"notifyEnabled": profile.NotifyEnabled,
		"updatedAt":     profile.UpdatedAt,
	}
	if profile.Location != "" {
		set["location"] = profile.Location
	}
	if profile.PasswordHash != "" {
		set["passwordHash"] = profile.PasswordHash
	}

	_, err := s.db.Collection("profiles").UpdateByID(ctx, profile.ID, bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": time.Now()},
	}, options.Update().SetUpsert(true))
	if err != nil {
		log.Println("[STORE] [ERROR] profile upsert failed:", err)
	}
	return err
}

// SetProfileLocation persists a resolved location. Best effort.
func (s *Store) SetProfileLocation(ctx context.Context, id primitive.ObjectID, location string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.Collection("profiles").UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"location": location, "updatedAt": time.Now()},
	})
	if err != nil {
		log.Println("[STORE] [ERROR] profile location update failed:", err)
	}
	return err
}

// SetNotifyEnabled flips the OS-notification opt-in flag.
func (s *Store) SetNotifyEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.Collection("profiles").UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"notifyEnabled": enabled, "updatedAt": time.Now()},
	})
	if err != nil {
		log.Println("[STORE] [ERROR] notify flag update failed:", err)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
