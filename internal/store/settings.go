package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// GetSettings returns all site settings as a key/value map. Unreachable store
// degrades to an empty map so callers fall back to defaults.
func (s *Store) GetSettings(ctx context.Context) map[string]string {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.db.Collection("site_settings").Find(ctx, bson.M{})
	if err != nil {
		log.Println("[STORE] [ERROR] settings fetch failed:", err)
		return map[string]string{}
	}
	defer cursor.Close(ctx)

	var rows []models.SiteSetting
	if err := cursor.All(ctx, &rows); err != nil {
		log.Println("[STORE] [ERROR] settings decode failed:", err)
		return map[string]string{}
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings
}

// UpsertSetting writes one key/value setting row.
func (s *Store) UpsertSetting(ctx context.Context, key, value string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.Collection("site_settings").UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value, "updatedAt": time.Now()}},
		options.Update().SetUpsert(true))
	if err != nil {
		log.Println("[STORE] [ERROR] setting upsert failed:", err)
	}
	return err
}
