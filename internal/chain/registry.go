package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// SpaceRegistryABI is the subset of the SpaceRegistry contract this service uses.
const SpaceRegistryABI = `[
  {"type":"function","name":"isSpaceOwner","stateMutability":"view",
   "inputs":[{"name":"spaceId","type":"bytes32"},{"name":"user","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getOwnerSpaces","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"}],
   "outputs":[{"name":"","type":"bytes32[]"}]},
  {"type":"event","name":"SpaceCreated","anonymous":false,
   "inputs":[{"name":"spaceId","type":"bytes32","indexed":true},
             {"name":"owner","type":"address","indexed":true},
             {"name":"ensName","type":"string","indexed":false},
             {"name":"displayName","type":"string","indexed":false}]},
  {"type":"event","name":"SpaceDisplayNameUpdated","anonymous":false,
   "inputs":[{"name":"spaceId","type":"bytes32","indexed":true},
             {"name":"displayName","type":"string","indexed":false}]}
]`

// OwnershipChecker answers SpaceRegistry read calls.
type OwnershipChecker interface {
	IsSpaceOwner(ctx context.Context, spaceID, user string) (bool, error)
	GetOwnerSpaces(ctx context.Context, owner string) ([]string, error)
}

// Registry is a read-only binding of the SpaceRegistry contract.
type Registry struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	backend  Backend
	timeout  time.Duration
}

// NewRegistry binds the SpaceRegistry deployed at address. Every call is bounded by timeout.
func NewRegistry(address string, backend Backend, timeout time.Duration) (*Registry, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, fmt.Errorf("space registry address: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(SpaceRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parse space registry abi: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Registry{
		address:  addr,
		abi:      parsed,
		contract: bind.NewBoundContract(addr, parsed, backend, nil, backend),
		backend:  backend,
		timeout:  timeout,
	}, nil
}

// Address returns the contract address.
func (r *Registry) Address() common.Address { return r.address }

// IsSpaceOwner calls isSpaceOwner(spaceId, user). An id with no bytes32 form cannot be
// registered on chain, so nobody owns it.
func (r *Registry) IsSpaceOwner(ctx context.Context, spaceID, user string) (bool, error) {
	id, ok := EncodeSpaceID(spaceID)
	if !ok {
		return false, nil
	}
	addr, err := ParseAddress(user)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isSpaceOwner", [32]byte(id), addr); err != nil {
		return false, fmt.Errorf("isSpaceOwner: %w", err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("isSpaceOwner: unexpected %d outputs", len(out))
	}
	owned, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("isSpaceOwner: unexpected output type %T", out[0])
	}
	return owned, nil
}

// GetOwnerSpaces calls getOwnerSpaces(owner) and returns canonical space ids.
func (r *Registry) GetOwnerSpaces(ctx context.Context, owner string) ([]string, error) {
	addr, err := ParseAddress(owner)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getOwnerSpaces", addr); err != nil {
		return nil, fmt.Errorf("getOwnerSpaces: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getOwnerSpaces: unexpected %d outputs", len(out))
	}
	raw, ok := out[0].([][32]byte)
	if !ok {
		return nil, fmt.Errorf("getOwnerSpaces: unexpected output type %T", out[0])
	}
	ids := make([]string, 0, len(raw))
	for _, b := range raw {
		ids = append(ids, FormatSpaceID(common.Hash(b)))
	}
	return ids, nil
}

// Disabled stands in for the chain when RPC_URL or a contract address is missing.
type Disabled struct{}

func (Disabled) IsSpaceOwner(context.Context, string, string) (bool, error) {
	return false, ErrNotConfigured
}

func (Disabled) GetOwnerSpaces(context.Context, string) ([]string, error) {
	return nil, ErrNotConfigured
}

func (Disabled) OwnerOf(context.Context, common.Hash) (common.Address, error) {
	return common.Address{}, ErrNotConfigured
}
