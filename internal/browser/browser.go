package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zamahub/internal/chain"
	"zamahub/internal/events"
	"zamahub/internal/logging"
	"zamahub/internal/service"
)

var restartDelay = 5 * time.Second

// Options wires a Browser. Events, Owners, Spaces and Bus are optional.
type Options struct {
	Source Source
	// Events is followed after the initial load. WatchFrom is used unless Source is a ChainSource.
	Events    chain.EventSource
	WatchFrom uint64
	Owners    chain.OwnershipChecker
	Spaces    service.SpaceService
	Bus       events.Bus
	Timeout   time.Duration
}

// Query filters a listing. Owner marks owned spaces; Mine keeps only those.
type Query struct {
	Q     string
	Owner string
	Mine  bool
}

// Browser serves the space listing from its catalog.
type Browser struct {
	catalog *Catalog
	opts    Options
}

func New(opts Options) *Browser {
	if opts.Owners == nil {
		opts.Owners = chain.Disabled{}
	}
	return &Browser{catalog: NewCatalog(), opts: opts}
}

// Catalog exposes the read model.
func (b *Browser) Catalog() *Catalog { return b.catalog }

// Run loads the source, then follows chain events and bus notifications until ctx
// is done. A failed load is logged and the browser keeps serving what it has.
func (b *Browser) Run(ctx context.Context) error {
	if b.opts.Source != nil {
		start := time.Now()
		if err := b.opts.Source.Load(ctx, b.catalog); err != nil {
			logging.Error("browser_load_failed", map[string]any{"source": b.opts.Source.Name(), "error": err})
		} else {
			logging.Info("browser_loaded", map[string]any{
				"source":     b.opts.Source.Name(),
				"spaces":     b.catalog.Len(),
				"elapsed_ms": time.Since(start).Milliseconds(),
			})
		}
	}

	done := make(chan struct{}, 2)
	running := 0
	if b.opts.Events != nil {
		running++
		go func() {
			b.follow(ctx)
			done <- struct{}{}
		}()
	}
	if b.opts.Bus != nil {
		running++
		go func() {
			b.listen(ctx)
			done <- struct{}{}
		}()
	}
	for ; running > 0; running-- {
		<-done
	}
	<-ctx.Done()
	return ctx.Err()
}

func (b *Browser) follow(ctx context.Context) {
	from := b.opts.WatchFrom
	if cs, ok := b.opts.Source.(*ChainSource); ok {
		from = cs.Next()
	}
	for {
		err := b.opts.Events.Watch(ctx, from, func(ev chain.Event) error {
			b.catalog.Apply(ev)
			from = ev.BlockNumber
			logging.Info("browser_event_applied", map[string]any{"kind": string(ev.Kind), "space_id": ev.SpaceID, "block": ev.BlockNumber})
			return nil
		})
		if ctx.Err() != nil {
			return
		}
		logging.Warn("browser_watch_restart", map[string]any{"from_block": from, "error": err})
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}

func (b *Browser) listen(ctx context.Context) {
	for {
		err := b.opts.Bus.Subscribe(ctx, b.HandleEvent)
		if ctx.Err() != nil {
			return
		}
		logging.Warn("browser_bus_restart", map[string]any{"error": err})
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}

// HandleEvent reloads the one profile named by ev and patches its catalog entry.
func (b *Browser) HandleEvent(ctx context.Context, ev events.Event) {
	if b.opts.Spaces == nil || ev.SpaceID == "" {
		return
	}
	sp, err := b.opts.Spaces.Get(ctx, ev.SpaceID)
	if err != nil {
		logging.Warn("browser_profile_reload_failed", map[string]any{"space_id": ev.SpaceID, "type": ev.Type, "error": err})
		return
	}
	fresh := summaryFromProfile(sp)
	b.catalog.Update(sp.SpaceID, func(cur SpaceSummary, ok bool) (SpaceSummary, bool) {
		if !ok {
			return fresh, true
		}
		cur.Description = fresh.Description
		return cur, true
	})
}

// List searches the catalog and marks spaces owned by q.Owner.
func (b *Browser) List(ctx context.Context, q Query) ([]SpaceSummary, error) {
	items := b.catalog.Search(q.Q)

	owner := strings.TrimSpace(q.Owner)
	if owner == "" {
		if q.Mine {
			return nil, fmt.Errorf("%w: owner is required with mine=true", service.ErrValidation)
		}
		return items, nil
	}
	if _, err := chain.ParseAddress(owner); err != nil {
		return nil, fmt.Errorf("%w: owner %q is not a hex address", service.ErrValidation, owner)
	}

	owned, err := b.ownedSet(ctx, owner)
	if err != nil {
		if q.Mine {
			return nil, fmt.Errorf("%w: getOwnerSpaces: %w", service.ErrBlockchainUnavailable, err)
		}
		if !errors.Is(err, chain.ErrNotConfigured) {
			logging.Warn("browser_owner_lookup_failed", map[string]any{"owner": owner, "error": err})
		}
		return items, nil
	}

	out := items[:0]
	for _, s := range items {
		s.IsOwned = owned[Key(s.SpaceID)]
		if q.Mine && !s.IsOwned {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (b *Browser) ownedSet(ctx context.Context, owner string) (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeoutOr(b.opts.Timeout))
	defer cancel()
	ids, err := b.opts.Owners.GetOwnerSpaces(ctx, owner)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[Key(id)] = true
	}
	return set, nil
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}
