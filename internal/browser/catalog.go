// Package browser keeps the space browser read model: a catalog of space summaries
// keyed by spaceId, filled from a pluggable source and kept current incrementally.
package browser

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"zamahub/internal/chain"
)

// SpaceSummary is one catalog row.
type SpaceSummary struct {
	SpaceID     string    `json:"spaceId"`
	ENSName     string    `json:"ensName"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description"`
	Owner       string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	BlockNumber uint64    `json:"blockNumber,omitempty"`
	IsOwned     bool      `json:"isOwned"`
}

// Catalog is a thread-safe keyed store of summaries. Entries never expire.
type Catalog struct {
	// mu serializes read-modify-write in Update; go-cache guards single operations.
	mu    sync.Mutex
	items *cache.Cache
}

func NewCatalog() *Catalog {
	return &Catalog{items: cache.New(cache.NoExpiration, 0)}
}

// Key maps a space id to its bytes32 form so chain and store forms of the same id
// collide. Ids with no bytes32 form key on the trimmed id itself.
func Key(spaceID string) string {
	if h, ok := chain.EncodeSpaceID(spaceID); ok {
		return chain.FormatSpaceID(h)
	}
	return strings.TrimSpace(spaceID)
}

// displayID is the spaceId shown for an entry: the canonical form for hex ids, the
// trimmed id otherwise.
func displayID(spaceID string) (id string, opaque bool) {
	if k, err := chain.CanonicalSpaceID(spaceID); err == nil {
		return k, false
	}
	return strings.TrimSpace(spaceID), true
}

// Put inserts or replaces s.
func (c *Catalog) Put(s SpaceSummary) {
	key := Key(s.SpaceID)
	s.SpaceID, _ = displayID(s.SpaceID)
	s.IsOwned = false
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Set(key, s, cache.NoExpiration)
}

// Update applies fn to the entry under spaceID. fn receives the current value and
// whether it exists, and returns the new value and whether to store it.
func (c *Catalog) Update(spaceID string, fn func(cur SpaceSummary, ok bool) (SpaceSummary, bool)) {
	key := Key(spaceID)
	c.mu.Lock()
	defer c.mu.Unlock()

	var cur SpaceSummary
	v, ok := c.items.Get(key)
	if ok {
		cur = v.(SpaceSummary)
	}
	next, keep := fn(cur, ok)
	if !keep {
		return
	}
	// Chain events only carry the bytes32 form, so an opaque id seen in the store wins.
	if id, opaque := displayID(spaceID); opaque || !ok {
		next.SpaceID = id
	} else {
		next.SpaceID = cur.SpaceID
	}
	next.IsOwned = false
	c.items.Set(key, next, cache.NoExpiration)
}

// Get returns the summary under spaceID.
func (c *Catalog) Get(spaceID string) (SpaceSummary, bool) {
	v, ok := c.items.Get(Key(spaceID))
	if !ok {
		return SpaceSummary{}, false
	}
	return v.(SpaceSummary), true
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return c.items.ItemCount()
}

// List returns every entry, newest first, ties broken by spaceId.
func (c *Catalog) List() []SpaceSummary {
	items := c.items.Items()
	out := make([]SpaceSummary, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(SpaceSummary))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SpaceID < out[j].SpaceID
	})
	return out
}

// Search returns entries whose display name, description or ENS name contains query,
// ignoring case. An empty query matches everything.
func (c *Catalog) Search(query string) []SpaceSummary {
	all := c.List()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]SpaceSummary, 0, len(all))
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.DisplayName), q) ||
			strings.Contains(strings.ToLower(s.Description), q) ||
			strings.Contains(strings.ToLower(s.ENSName), q) {
			out = append(out, s)
		}
	}
	return out
}

// Apply folds one SpaceRegistry event into the catalog, touching only its entry.
// A rename for an unknown space is ignored.
func (c *Catalog) Apply(ev chain.Event) {
	switch ev.Kind {
	case chain.KindSpaceCreated:
		c.Update(ev.SpaceID, func(cur SpaceSummary, _ bool) (SpaceSummary, bool) {
			cur.ENSName = ev.ENSName
			cur.DisplayName = ev.DisplayName
			cur.Owner = ev.Owner
			cur.CreatedAt = ev.Timestamp
			cur.BlockNumber = ev.BlockNumber
			return cur, true
		})
	case chain.KindDisplayNameUpdated:
		c.Update(ev.SpaceID, func(cur SpaceSummary, ok bool) (SpaceSummary, bool) {
			if !ok {
				return cur, false
			}
			cur.DisplayName = ev.DisplayName
			if ev.BlockNumber > cur.BlockNumber {
				cur.BlockNumber = ev.BlockNumber
			}
			return cur, true
		})
	}
}
