package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zamahub/internal/chain"
	"zamahub/internal/model"
	"zamahub/internal/service"
)

// Source fills a catalog at startup.
type Source interface {
	Name() string
	Load(ctx context.Context, c *Catalog) error
}

// ChainSource replays SpaceRegistry events from a start block.
type ChainSource struct {
	events chain.EventSource
	from   uint64
	next   uint64
}

func NewChainSource(events chain.EventSource, from uint64) *ChainSource {
	return &ChainSource{events: events, from: from, next: from}
}

func (s *ChainSource) Name() string { return "chain" }

func (s *ChainSource) Load(ctx context.Context, c *Catalog) error {
	next, err := s.events.Replay(ctx, s.from, func(ev chain.Event) error {
		c.Apply(ev)
		return nil
	})
	s.next = next
	if err != nil {
		return fmt.Errorf("replay space events: %w", err)
	}
	return nil
}

// Next is the first block not covered by Load.
func (s *ChainSource) Next() uint64 { return s.next }

const storePageSize = 100

// StoreSource lists profiles from the space profile service.
type StoreSource struct {
	spaces service.SpaceService
}

func NewStoreSource(spaces service.SpaceService) *StoreSource {
	return &StoreSource{spaces: spaces}
}

func (s *StoreSource) Name() string { return "store" }

func (s *StoreSource) Load(ctx context.Context, c *Catalog) error {
	for offset := 0; ; offset += storePageSize {
		page, err := s.spaces.List(ctx, storePageSize, offset)
		if err != nil {
			return fmt.Errorf("list spaces: %w", err)
		}
		for i := range page.Items {
			c.Put(summaryFromProfile(&page.Items[i]))
		}
		if len(page.Items) < storePageSize || offset+len(page.Items) >= page.Total {
			return nil
		}
	}
}

func summaryFromProfile(sp *model.Space) SpaceSummary {
	return SpaceSummary{
		SpaceID:     sp.SpaceID,
		ENSName:     sp.ENSName,
		DisplayName: sp.DisplayName,
		Description: sp.ShortDescription,
		Owner:       strings.ToLower(sp.Owner),
		CreatedAt:   sp.CreatedAt,
	}
}

// SeedSource loads three fixed demo spaces. Intended for demos without a chain or store.
type SeedSource struct {
	now func() time.Time
}

func NewSeedSource() *SeedSource {
	return &SeedSource{now: time.Now}
}

func (s *SeedSource) Name() string { return "seed" }

func (s *SeedSource) Load(_ context.Context, c *Catalog) error {
	now := s.now().UTC()
	for _, sp := range []SpaceSummary{
		{
			SpaceID:     "0x1234567890abcdef",
			ENSName:     "defi-alliance.eth",
			DisplayName: "DeFi Governance Alliance",
			Description: "Private governance for DeFi protocols with encrypted voting",
			Owner:       "0x742d35cc6634c0532925a3b844bc454e4438f44e",
			CreatedAt:   now.Add(-2 * time.Hour),
		},
		{
			SpaceID:     "0xabcdef1234567890",
			ENSName:     "nft-collective.eth",
			DisplayName: "NFT Creator Collective",
			Description: "Exclusive space for NFT creators to vote on platform decisions",
			Owner:       "0x1234567890abcdef1234567890abcdef12345678",
			CreatedAt:   now.Add(-5 * time.Hour),
		},
		{
			SpaceID:     "0x987654321fedcba0",
			ENSName:     "web3-hub.eth",
			DisplayName: "Web3 Developer Hub",
			Description: "Technical governance for Web3 infrastructure projects",
			Owner:       "0xabcdef1234567890abcdef1234567890abcdef12",
			CreatedAt:   now.Add(-24 * time.Hour),
		},
	} {
		c.Put(sp)
	}
	return nil
}
