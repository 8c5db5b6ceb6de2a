package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

type fakeStore struct {
	mu       sync.Mutex
	profile  *models.Profile
	getDelay time.Duration
	getErr   error

	upserts   []models.Profile
	locations map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{locations: make(map[string]string)}
}

func (f *fakeStore) GetProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	if f.getDelay > 0 {
		select {
		case <-time.After(f.getDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.profile == nil {
		return nil, nil
	}
	copied := *f.profile
	return &copied, nil
}

func (f *fakeStore) UpsertProfile(ctx context.Context, profile models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, profile)
	return nil
}

func (f *fakeStore) SetProfileLocation(ctx context.Context, id primitive.ObjectID, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations[id.Hex()] = location
	return nil
}

func (f *fakeStore) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func (f *fakeStore) locationFor(id primitive.ObjectID) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locations[id.Hex()]
}

type fakeLocator struct {
	mu      sync.Mutex
	result  string
	lookups int
}

func (f *fakeLocator) Lookup(ctx context.Context, ip string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	return f.result
}

func (f *fakeLocator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

var adminEmails = []string{"info@automateiq.xyz", "admin@automateiq.xyz"}

func newTestManager(store ProfileStore, locator Locator) *Manager {
	return NewManager(store, locator, adminEmails, 50*time.Millisecond, 200*time.Millisecond)
}

func TestProvisionalDefaults(t *testing.T) {
	m := newTestManager(newFakeStore(), nil)

	identity := m.Provisional(Claims{Sub: "abc", Email: "someone@example.com"})
	if identity.Name != "User" {
		t.Fatalf("expected default name User, got %q", identity.Name)
	}
	if identity.Role != models.RoleUser {
		t.Fatalf("expected default role user, got %q", identity.Role)
	}
	if !identity.Provisional {
		t.Fatal("expected provisional flag set")
	}
}

func TestProvisionalAdminOverride(t *testing.T) {
	m := newTestManager(newFakeStore(), nil)

	identity := m.Provisional(Claims{Sub: "abc", Email: "Admin@AutomateIQ.xyz", Role: models.RoleUser})
	if identity.Role != models.RoleAdmin {
		t.Fatalf("expected allow-listed email to resolve as admin, got %q", identity.Role)
	}
}

func TestResolveReturnsProfileIdentity(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeStore()
	store.profile = &models.Profile{
		ID:       userID,
		Email:    "customer@example.com",
		Name:     "Rahim",
		Phone:    "01700000000",
		Role:     models.RoleUser,
		Location: "Dhaka, Bangladesh",
	}
	m := newTestManager(store, nil)

	identity := m.Resolve(context.Background(), Claims{Sub: userID.Hex(), Email: "customer@example.com"}, "", nil)
	if identity.Provisional {
		t.Fatal("expected authoritative identity")
	}
	if identity.Name != "Rahim" || identity.Location != "Dhaka, Bangladesh" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestResolveFallsBackWhenStoreIsSlow(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeStore()
	store.getDelay = 500 * time.Millisecond
	m := newTestManager(store, nil)

	start := time.Now()
	identity := m.Resolve(context.Background(), Claims{Sub: userID.Hex(), Email: "slow@example.com", Name: "Slow"}, "", nil)
	elapsed := time.Since(start)

	if !identity.Provisional {
		t.Fatal("expected provisional identity on slow fetch")
	}
	if identity.Name != "Slow" {
		t.Fatalf("expected claims-derived name, got %q", identity.Name)
	}
	if elapsed > 150*time.Millisecond {
		t.Fatalf("resolve blocked for %v, expected bounded wait", elapsed)
	}
}

func TestResolveAdminOverrideBeatsProfileRole(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeStore()
	store.profile = &models.Profile{ID: userID, Email: "info@automateiq.xyz", Name: "Ops", Role: models.RoleUser}
	m := newTestManager(store, nil)

	identity := m.Resolve(context.Background(), Claims{Sub: userID.Hex(), Email: "info@automateiq.xyz"}, "", nil)
	if identity.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %q", identity.Role)
	}
}

func TestResolveCreatesMissingProfile(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeStore()
	m := newTestManager(store, nil)

	identity := m.Resolve(context.Background(), Claims{Sub: userID.Hex(), Email: "new@example.com", Name: "New"}, "", nil)
	if !identity.Provisional {
		t.Fatal("expected provisional identity while row is created")
	}

	deadline := time.Now().Add(time.Second)
	for store.upsertCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected background profile create")
		}
		time.Sleep(5 * time.Millisecond)
	}
	store.mu.Lock()
	created := store.upserts[0]
	store.mu.Unlock()
	if created.ID != userID || created.Email != "new@example.com" {
		t.Fatalf("unexpected created profile %+v", created)
	}
}

func TestResolveEnrichesMissingLocation(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeStore()
	store.profile = &models.Profile{ID: userID, Email: "customer@example.com", Name: "Rahim", Role: models.RoleUser}
	locator := &fakeLocator{result: "Chattogram, Bangladesh"}
	m := newTestManager(store, locator)

	guard := NewGuard()
	guard.Activate(userID.Hex())
	m.Resolve(context.Background(), Claims{Sub: userID.Hex(), Email: "customer@example.com"}, "203.0.113.7", guard)

	deadline := time.Now().Add(time.Second)
	for store.locationFor(userID) == "" {
		if time.Now().After(deadline) {
			t.Fatal("expected background location enrichment")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := store.locationFor(userID); got != "Chattogram, Bangladesh" {
		t.Fatalf("unexpected location %q", got)
	}
}

func TestResolveSkipsEnrichmentWhenLocationKnown(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeStore()
	store.profile = &models.Profile{ID: userID, Email: "customer@example.com", Location: "Dhaka, Bangladesh", Role: models.RoleUser}
	locator := &fakeLocator{result: "Elsewhere"}
	m := newTestManager(store, locator)

	m.Resolve(context.Background(), Claims{Sub: userID.Hex(), Email: "customer@example.com"}, "203.0.113.7", nil)

	time.Sleep(50 * time.Millisecond)
	if locator.count() != 0 {
		t.Fatalf("expected no lookup for known location, got %d", locator.count())
	}
}

func TestStaleEnrichmentIsDropped(t *testing.T) {
	userID := primitive.NewObjectID()
	store := newFakeStore()
	store.profile = &models.Profile{ID: userID, Email: "customer@example.com", Role: models.RoleUser}
	locator := &fakeLocator{result: "Dhaka, Bangladesh"}
	m := newTestManager(store, locator)

	guard := NewGuard()
	guard.Activate(userID.Hex())
	guard.Clear(userID.Hex()) // signed out before the lookup lands

	m.Resolve(context.Background(), Claims{Sub: userID.Hex(), Email: "customer@example.com"}, "203.0.113.7", guard)

	deadline := time.Now().Add(200 * time.Millisecond)
	for locator.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if got := store.locationFor(userID); got != "" {
		t.Fatalf("stale enrichment should be discarded, got %q", got)
	}
}

func TestGuardLifecycle(t *testing.T) {
	g := NewGuard()
	if g.StillCurrent("a") {
		t.Fatal("empty guard should not match")
	}
	g.Activate("a")
	if !g.StillCurrent("a") {
		t.Fatal("expected active identity to match")
	}
	if g.StillCurrent("b") {
		t.Fatal("inactive identity should not match")
	}
	g.Activate("b")
	if !g.StillCurrent("a") || !g.StillCurrent("b") {
		t.Fatal("expected both signed-in identities to stay current")
	}
	g.Clear("a")
	if g.StillCurrent("a") {
		t.Fatal("signed-out identity should not match")
	}
	if !g.StillCurrent("b") {
		t.Fatal("clearing one identity must not sign out another")
	}
}
