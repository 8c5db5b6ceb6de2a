// Package session resolves "who is acting" from token claims plus the
// authoritative profile row, without ever blocking a request on slow I/O.
package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// Claims are the identity fields carried in an access token.
type Claims struct {
	Sub   string
	Email string
	Name  string
	Phone string
	Role  string
}

// Identity is the resolved acting user.
type Identity struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Role          string `json:"role"`
	Location      string `json:"location,omitempty"`
	NotifyEnabled bool   `json:"notifyEnabled"`
	// Provisional marks an identity built from claims alone because the
	// profile fetch did not return in time.
	Provisional bool `json:"-"`
}

// ProfileStore is the slice of the persistence gateway the manager needs.
type ProfileStore interface {
	GetProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile models.Profile) error
	SetProfileLocation(ctx context.Context, id primitive.ObjectID, location string) error
}

// Locator resolves an approximate location for a client address.
type Locator interface {
	Lookup(ctx context.Context, ip string) string
}

const locationUnknown = "Unknown Location"

type Manager struct {
	store       ProfileStore
	locator     Locator
	adminEmails map[string]struct{}

	// profileTimeout bounds the authoritative fetch; loadCeiling is the hard
	// stop for the whole resolution.
	profileTimeout time.Duration
	loadCeiling    time.Duration

	// enriching tracks in-flight location lookups per user so repeated
	// resolves do not stack them.
	enriching sync.Map
}

func NewManager(store ProfileStore, locator Locator, adminEmails []string, profileTimeout, loadCeiling time.Duration) *Manager {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(email))] = struct{}{}
	}
	return &Manager{
		store:          store,
		locator:        locator,
		adminEmails:    admins,
		profileTimeout: profileTimeout,
		loadCeiling:    loadCeiling,
	}
}

// IsAdminEmail reports whether email is on the always-admin allow-list.
func (m *Manager) IsAdminEmail(email string) bool {
	_, ok := m.adminEmails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Provisional builds an identity from claims alone. This is the fast path
// that unblocks a session before the profile row has been read.
func (m *Manager) Provisional(c Claims) Identity {
	identity := Identity{
		ID:          c.Sub,
		Email:       strings.ToLower(strings.TrimSpace(c.Email)),
		Name:        c.Name,
		Phone:       c.Phone,
		Role:        c.Role,
		Provisional: true,
	}
	if identity.Name == "" {
		identity.Name = "User"
	}
	if identity.Role == "" {
		identity.Role = models.RoleUser
	}
	if m.IsAdminEmail(identity.Email) {
		identity.Role = models.RoleAdmin
	}
	return identity
}

// Resolve returns the authoritative identity if the profile fetch completes
// within the bounded wait, otherwise the provisional one. It never blocks
// past the load ceiling. A missing profile row is lazily upserted in the
// background; resolution failures fail open.
func (m *Manager) Resolve(ctx context.Context, c Claims, clientIP string, guard *Guard) Identity {
	provisional := m.Provisional(c)

	userID, err := primitive.ObjectIDFromHex(c.Sub)
	if err != nil {
		log.Println("[SESSION] [ERROR] invalid identity id in claims:", err)
		return provisional
	}

	type fetchResult struct {
		profile *models.Profile
		err     error
	}
	resultCh := make(chan fetchResult, 1)
	go func() {
		fetchCtx, cancel := context.WithTimeout(context.Background(), m.loadCeiling)
		defer cancel()
		profile, err := m.store.GetProfile(fetchCtx, userID)
		resultCh <- fetchResult{profile: profile, err: err}
	}()

	var res fetchResult
	select {
	case res = <-resultCh:
	case <-time.After(m.profileTimeout):
		log.Println("[SESSION] [WARN] profile fetch timed out, using provisional identity")
		return provisional
	case <-ctx.Done():
		return provisional
	}

	if res.err != nil {
		log.Println("[SESSION] [ERROR] profile fetch failed:", res.err)
		return provisional
	}

	if res.profile == nil {
		// First resolution for this identity: create the row lazily. Upsert
		// semantics keyed by id keep repeats from duplicating it.
		go func() {
			upsertCtx, cancel := context.WithTimeout(context.Background(), m.loadCeiling)
			defer cancel()
			profile := models.Profile{
				ID:    userID,
				Email: provisional.Email,
				Name:  provisional.Name,
				Phone: provisional.Phone,
				Role:  provisional.Role,
			}
			if err := m.store.UpsertProfile(upsertCtx, profile); err != nil {
				log.Println("[SESSION] [WARN] background profile create failed:", err)
			}
		}()
		m.enrichLocation(userID, "", clientIP, guard)
		return provisional
	}

	identity := Identity{
		ID:            res.profile.ID.Hex(),
		Email:         res.profile.Email,
		Name:          res.profile.Name,
		Phone:         res.profile.Phone,
		Role:          res.profile.Role,
		Location:      res.profile.Location,
		NotifyEnabled: res.profile.NotifyEnabled,
	}
	if m.IsAdminEmail(identity.Email) {
		identity.Role = models.RoleAdmin
	}

	m.enrichLocation(userID, identity.Location, clientIP, guard)
	return identity
}

// enrichLocation fills in a missing/sentinel location once, in the
// background. Failures are silent and leave the field unset.
func (m *Manager) enrichLocation(userID primitive.ObjectID, current, clientIP string, guard *Guard) {
	if m.locator == nil || clientIP == "" {
		return
	}
	if current != "" && current != "Unknown" && current != locationUnknown {
		return
	}
	if _, running := m.enriching.LoadOrStore(userID, struct{}{}); running {
		return
	}

	go func() {
		defer m.enriching.Delete(userID)

		lookupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		location := m.locator.Lookup(lookupCtx, clientIP)
		if location == "" || location == locationUnknown {
			return
		}
		if guard != nil && !guard.StillCurrent(userID.Hex()) {
			// The session moved on (sign-out or identity switch); do not
			// resurrect state for a stale identity.
			return
		}
		if err := m.store.SetProfileLocation(lookupCtx, userID, location); err == nil {
			log.Println("[SESSION] [INFO] location enriched:", location)
		}
	}()
}
