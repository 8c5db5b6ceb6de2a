package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// UpsertPendingSignup stores (or refreshes) a registration awaiting its
// verification code, keyed by email.
func (s *Store) UpsertPendingSignup(ctx context.Context, signup models.PendingSignup) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	signup.Email = normalizeEmail(signup.Email)

	_, err := s.db.Collection("pending_signups").UpdateOne(ctx,
		bson.M{"email": signup.Email},
		bson.M{
			"$set": bson.M{
				"name":         signup.Name,
				"phone":        signup.Phone,
				"passwordHash": signup.PasswordHash,
				"codeHash":     signup.CodeHash,
				"expiresAt":    signup.ExpiresAt,
			},
			"$setOnInsert": bson.M{"createdAt": time.Now()},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		log.Println("[STORE] [ERROR] pending signup upsert failed:", err)
	}
	return err
}

// GetPendingSignup returns the pending registration for email, or nil.
func (s *Store) GetPendingSignup(ctx context.Context, email string) (*models.PendingSignup, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var signup models.PendingSignup
	err := s.db.Collection("pending_signups").FindOne(ctx,
		bson.M{"email": normalizeEmail(email)}).Decode(&signup)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		log.Println("[STORE] [ERROR] pending signup lookup failed:", err)
		return nil, err
	}
	return &signup, nil
}

func (s *Store) DeletePendingSignup(ctx context.Context, email string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.Collection("pending_signups").DeleteOne(ctx,
		bson.M{"email": normalizeEmail(email)})
	return err
}

// InsertProfile creates the profile row for a verified signup and returns its
// id.
func (s *Store) InsertProfile(ctx context.Context, profile models.Profile) (primitive.ObjectID, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	profile.Email = normalizeEmail(profile.Email)
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	res, err := s.db.Collection("profiles").InsertOne(ctx, profile)
	if err != nil {
		log.Println("[STORE] [ERROR] profile insert failed:", err)
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// InsertRefreshToken stores a hashed refresh token and returns its id.
func (s *Store) InsertRefreshToken(ctx context.Context, token models.RefreshToken) (primitive.ObjectID, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.Collection("refresh_tokens").InsertOne(ctx, token)
	if err != nil {
		log.Println("[STORE] [ERROR] refresh token insert failed:", err)
		return primitive.NilObjectID, err
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

// FindActiveRefreshToken looks up an unrevoked token by its hash.
func (s *Store) FindActiveRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var token models.RefreshToken
	err := s.db.Collection("refresh_tokens").FindOne(ctx, bson.M{
		"tokenHash": tokenHash,
		"revoked":   false,
	}).Decode(&token)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		log.Println("[STORE] [ERROR] refresh token lookup failed:", err)
		return nil, err
	}
	return &token, nil
}

// RevokeRefreshToken marks a token revoked, optionally recording its
// replacement.
func (s *Store) RevokeRefreshToken(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	set := bson.M{"revoked": true}
	if replacedBy != nil {
		set["replacedByToken"] = *replacedBy
	}

	_, err := s.db.Collection("refresh_tokens").UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// RevokeRefreshTokenByHash revokes a token by its hash (logout). Returns
// ErrNotFound when no active token matched.
func (s *Store) RevokeRefreshTokenByHash(ctx context.Context, tokenHash string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.Collection("refresh_tokens").UpdateOne(ctx, bson.M{
		"tokenHash": tokenHash,
		"revoked":   false,
	}, bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
