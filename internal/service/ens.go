package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"zamahub/internal/chain"
	"zamahub/internal/logging"
	"zamahub/internal/model"
	"zamahub/internal/repository"
)

var tracer = otel.Tracer("zamahub/internal/service")

// RegisterENSInput is the body of an ENS registration.
type RegisterENSInput struct {
	ENSName  string `json:"ensName"`
	NodeHash string `json:"nodeHash"`
	Owner    string `json:"owner"`
}

// ENSService records and queries ENS-name-to-owner mappings.
type ENSService interface {
	// Register stores a registration and returns it with its generated id.
	Register(ctx context.Context, in RegisterENSInput) (*model.ENSRegistration, error)

	// ListByOwner returns the ENS names registered by owner, most recent first.
	ListByOwner(ctx context.Context, owner string) ([]string, error)
}

type ensService struct {
	repo     repository.ENSRepository
	resolver chain.OwnerResolver
	timeout  time.Duration
	now      func() time.Time
}

// NewENSService constructs an ENSService. A nil resolver skips on-chain owner verification.
func NewENSService(repo repository.ENSRepository, resolver chain.OwnerResolver, chainTimeout time.Duration) ENSService {
	return &ensService{repo: repo, resolver: resolver, timeout: chainTimeout, now: time.Now}
}

func (s *ensService) Register(ctx context.Context, in RegisterENSInput) (reg *model.ENSRegistration, err error) {
	ctx, span := tracer.Start(ctx, "ENSService.Register")
	defer func() { endSpan(span, err) }()

	ensName := strings.TrimSpace(in.ENSName)
	owner := strings.TrimSpace(in.Owner)
	nodeHash := strings.TrimSpace(in.NodeHash)
	span.SetAttributes(attribute.String("ens.name", ensName))

	if ensName == "" || nodeHash == "" || owner == "" {
		return nil, invalid("ensName, nodeHash and owner are required")
	}
	ownerAddr, err := chain.ParseAddress(owner)
	if err != nil {
		return nil, invalid("owner %q is not a hex address", owner)
	}
	node, err := chain.ParseHash(nodeHash)
	if err != nil {
		return nil, invalid("nodeHash must be a 32-byte hex value")
	}
	normalized, err := chain.NormalizeName(ensName)
	if err != nil {
		return nil, invalid("ensName %q is not a valid name", ensName)
	}
	if node != chain.Namehash(normalized) {
		return nil, invalid("nodeHash does not match the namehash of %q", normalized)
	}

	if s.resolver != nil {
		cctx, cancel := withTimeout(ctx, s.timeout)
		onChain, rerr := s.resolver.OwnerOf(cctx, node)
		cancel()
		if rerr != nil {
			err = wrap(ErrBlockchainUnavailable, "ens owner lookup", rerr)
			logging.ErrorCtx(ctx, "ens_register_failed", map[string]any{"ens_name": ensName, "error": err})
			return nil, err
		}
		if onChain != ownerAddr {
			return nil, fmt.Errorf("%w: %s is not the registry owner of %s", ErrUnauthorized, strings.ToLower(owner), ensName)
		}
	}

	reg = &model.ENSRegistration{
		ID:           uuid.New().String(),
		ENSName:      ensName,
		NodeHash:     node.Hex(),
		Owner:        strings.ToLower(owner),
		RegisteredAt: s.now().UTC().Truncate(time.Microsecond),
	}
	stored, err := s.repo.Create(ctx, reg)
	if err != nil {
		err = wrap(ErrPersistence, "insert ens registration", err)
		logging.ErrorCtx(ctx, "ens_register_failed", map[string]any{"ens_name": ensName, "owner": reg.Owner, "error": err})
		return nil, err
	}
	logging.InfoCtx(ctx, "ens_registered", map[string]any{"id": stored.ID, "ens_name": stored.ENSName, "owner": stored.Owner})
	return stored, nil
}

func (s *ensService) ListByOwner(ctx context.Context, owner string) (names []string, err error) {
	ctx, span := tracer.Start(ctx, "ENSService.ListByOwner")
	defer func() { endSpan(span, err) }()

	owner = strings.ToLower(strings.TrimSpace(owner))
	if owner == "" {
		return nil, invalid("owner is required")
	}
	regs, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		err = wrap(ErrPersistence, "list ens registrations", err)
		logging.ErrorCtx(ctx, "ens_list_failed", map[string]any{"owner": owner, "error": err})
		return nil, err
	}
	names = make([]string, 0, len(regs))
	for _, r := range regs {
		names = append(names, r.ENSName)
	}
	return names, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
