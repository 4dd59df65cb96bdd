// Package userdir resolves user display fields for attendee listings.
package userdir

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Shivanand-hulikatti/campus-events/internal/model"
)

// Directory looks users up by id. Unknown ids are absent from the result.
type Directory interface {
	LookupUsers(ctx context.Context, ids []string) (map[string]model.User, error)
}

// DefaultCleanupInterval is how often expired entries are purged.
const DefaultCleanupInterval = 10 * time.Minute

// Cached is a read-through cache in front of a Directory. Only found users
// are cached, so a user created after a miss is visible on the next lookup.
type Cached struct {
	next  Directory
	cache *gocache.Cache
}

// NewCached wraps next, keeping entries for ttl.
func NewCached(next Directory, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, DefaultCleanupInterval),
	}
}

// LookupUsers serves cached users and fetches the rest in one call.
func (c *Cached) LookupUsers(ctx context.Context, ids []string) (map[string]model.User, error) {
	out := make(map[string]model.User, len(ids))
	var missing []string
	for _, id := range ids {
		if v, ok := c.cache.Get(id); ok {
			if u, ok := v.(model.User); ok {
				out[id] = u
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	found, err := c.next.LookupUsers(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, u := range found {
		c.cache.Set(id, u, gocache.DefaultExpiration)
		out[id] = u
	}
	return out, nil
}

// Forget drops cached entries, e.g. after a profile change.
func (c *Cached) Forget(ids ...string) {
	for _, id := range ids {
		c.cache.Delete(id)
	}
}
