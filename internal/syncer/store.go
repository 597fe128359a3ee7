package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rc-medicall/backend/internal/storage"
	"github.com/rc-medicall/backend/internal/storage/models"
)

// ErrMiss is returned by Store.Load for a key that holds nothing.
var ErrMiss = storage.ErrCacheMiss

// Store is the local key/value persistence behind the offline cache.
// storage.CacheRepository and RedisStore implement it.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context, prefix string) error
}

// KeyPrefix namespaces every key the cache writes.
const KeyPrefix = "rc_medicall_"

// SidebarKey holds the UI collapse flag. It is not versioned.
const SidebarKey = KeyPrefix + "sidebar_collapsed"

// Cache reads and writes the versioned snapshot keys. Bumping the version makes
// every older snapshot invisible.
type Cache struct {
	store   Store
	version string
}

// NewCache wraps store with keys suffixed by version (e.g. "v5").
func NewCache(store Store, version string) *Cache {
	return &Cache{store: store, version: version}
}

func (c *Cache) ContactsKey() string   { return KeyPrefix + "cache_doctors_" + c.version }
func (c *Cache) ProceduresKey() string { return KeyPrefix + "cache_procedures_" + c.version }
func (c *Cache) TimeOffKey() string    { return KeyPrefix + "timeoff_" + c.version }
func (c *Cache) UserKey() string       { return KeyPrefix + "user_" + c.version }

// LoadSnapshot returns the cached collections. ok is false when no contact snapshot
// exists; the other collections default to empty when missing.
func (c *Cache) LoadSnapshot(ctx context.Context) (snap *Snapshot, ok bool, err error) {
	snap = &Snapshot{
		Contacts:   []models.Contact{},
		TimeOff:    []models.TimeOffEvent{},
		Procedures: []models.Procedure{},
	}

	found, err := c.loadJSON(ctx, c.ContactsKey(), &snap.Contacts)
	if err != nil || !found {
		return nil, false, err
	}
	if _, err := c.loadJSON(ctx, c.ProceduresKey(), &snap.Procedures); err != nil {
		return nil, false, err
	}
	if _, err := c.loadJSON(ctx, c.TimeOffKey(), &snap.TimeOff); err != nil {
		return nil, false, err
	}
	return snap, true, nil
}

// SaveSnapshot persists all three collections.
func (c *Cache) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	if err := c.saveJSON(ctx, c.ContactsKey(), snap.Contacts); err != nil {
		return err
	}
	if err := c.saveJSON(ctx, c.ProceduresKey(), snap.Procedures); err != nil {
		return err
	}
	return c.saveJSON(ctx, c.TimeOffKey(), snap.TimeOff)
}

// SaveContacts persists only the contact collection.
func (c *Cache) SaveContacts(ctx context.Context, contacts []models.Contact) error {
	return c.saveJSON(ctx, c.ContactsKey(), contacts)
}

// SaveTimeOff persists only the absence collection.
func (c *Cache) SaveTimeOff(ctx context.Context, timeOff []models.TimeOffEvent) error {
	return c.saveJSON(ctx, c.TimeOffKey(), timeOff)
}

// SaveProcedures persists only the procedure collection.
func (c *Cache) SaveProcedures(ctx context.Context, procedures []models.Procedure) error {
	return c.saveJSON(ctx, c.ProceduresKey(), procedures)
}

// LoadUser returns the logged-in user, or nil.
func (c *Cache) LoadUser(ctx context.Context) (*models.User, error) {
	var u models.User
	found, err := c.loadJSON(ctx, c.UserKey(), &u)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

// SaveUser stores the logged-in user.
func (c *Cache) SaveUser(ctx context.Context, u models.User) error {
	return c.saveJSON(ctx, c.UserKey(), u)
}

// ClearUser forgets the logged-in user.
func (c *Cache) ClearUser(ctx context.Context) error {
	return c.store.Delete(ctx, c.UserKey())
}

// SidebarCollapsed returns the stored UI flag, false when unset.
func (c *Cache) SidebarCollapsed(ctx context.Context) (bool, error) {
	var collapsed bool
	_, err := c.loadJSON(ctx, SidebarKey, &collapsed)
	return collapsed, err
}

// SetSidebarCollapsed stores the UI flag.
func (c *Cache) SetSidebarCollapsed(ctx context.Context, collapsed bool) error {
	return c.saveJSON(ctx, SidebarKey, collapsed)
}

// Clear removes every key the cache owns.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx, KeyPrefix)
}

func (c *Cache) loadJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.store.Load(ctx, key)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	return c.store.Save(ctx, key, raw)
}
