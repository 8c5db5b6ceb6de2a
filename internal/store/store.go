// Package store is the typed persistence gateway over MongoDB. It does basic
// shaping only; business rules live in the orders and session packages.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const opTimeout = 5 * time.Second

// ErrConflict means an update's rev check matched nothing: the document moved
// under the caller. Callers recover by re-fetching, not by retrying blindly.
var ErrConflict = errors.New("order was modified by another session")

// ErrNotFound is returned for lookups that matched no document.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Database exposes the underlying handle for the realtime bridge's change
// streams.
func (s *Store) Database() *mongo.Database {
	return s.db
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}
