package calendar

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// ProjectionKey identifies a computed view. Revision is the state revision the view
// was computed from, so any mutation naturally misses the old entries.
type ProjectionKey struct {
	Revision uint64
	View     ViewMode
	Filter   string
	Anchor   string
}

// ProjectionCache memoises rendered views per state revision.
type ProjectionCache struct {
	cache  *lru.Cache[ProjectionKey, any]
	logger *zap.Logger
}

// NewProjectionCache creates a cache holding at most size views.
func NewProjectionCache(size int, logger *zap.Logger) (*ProjectionCache, error) {
	cache, err := lru.New[ProjectionKey, any](size)
	if err != nil {
		return nil, err
	}
	return &ProjectionCache{cache: cache, logger: logger.Named("projection_cache")}, nil
}

// NewKey normalises the filter so "todos", "ALL" and "" share entries.
func NewKey(revision uint64, view ViewMode, filter ExecutiveFilter, anchor string) ProjectionKey {
	f := strings.ToUpper(strings.TrimSpace(string(filter)))
	if filter.All() {
		f = ""
	}
	return ProjectionKey{Revision: revision, View: view, Filter: f, Anchor: anchor}
}

// GetOrCompute returns the cached view for key, computing and storing it on a miss.
func (c *ProjectionCache) GetOrCompute(key ProjectionKey, compute func() any) any {
	if v, ok := c.cache.Get(key); ok {
		return v
	}
	v := compute()
	c.cache.Add(key, v)
	c.logger.Debug("projection computed",
		zap.Uint64("revision", key.Revision),
		zap.String("view", string(key.View)),
		zap.String("anchor", key.Anchor),
	)
	return v
}

// Purge drops every cached view.
func (c *ProjectionCache) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached views.
func (c *ProjectionCache) Len() int {
	return c.cache.Len()
}
