package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/net/idna"
)

const ensRegistryABI = `[
  {"type":"function","name":"owner","stateMutability":"view",
   "inputs":[{"name":"node","type":"bytes32"}],
   "outputs":[{"name":"","type":"address"}]}
]`

// ensProfile applies UTS-46 nontransitional mapping, so ß and ZWJ survive. Labels are
// not held to hostname rules; ENS allows characters such as '_'.
var ensProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// NormalizeName maps name to the form ENS hashes: UTS-46 case folding and NFC, with
// punycode labels decoded.
func NormalizeName(name string) (string, error) {
	out, err := ensProfile.ToUnicode(strings.TrimSpace(name))
	if err != nil {
		return "", fmt.Errorf("normalize ens name %q: %w", name, err)
	}
	return out, nil
}

// Namehash computes the EIP-137 namehash of name. The caller normalizes it first.
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256Hash([]byte(labels[i]))
		node = crypto.Keccak256Hash(node.Bytes(), label.Bytes())
	}
	return node
}

// OwnerResolver resolves the registry owner of an ENS node.
type OwnerResolver interface {
	OwnerOf(ctx context.Context, node common.Hash) (common.Address, error)
}

// ENSRegistry is a read-only binding of the ENS registry.
type ENSRegistry struct {
	contract *bind.BoundContract
	timeout  time.Duration
}

// NewENSRegistry binds the ENS registry deployed at address.
func NewENSRegistry(address string, backend Backend, timeout time.Duration) (*ENSRegistry, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, fmt.Errorf("ens registry address: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(ensRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parse ens registry abi: %w", err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ENSRegistry{
		contract: bind.NewBoundContract(addr, parsed, backend, nil, backend),
		timeout:  timeout,
	}, nil
}

// OwnerOf calls owner(node).
func (e *ENSRegistry) OwnerOf(ctx context.Context, node common.Hash) (common.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var out []interface{}
	if err := e.contract.Call(&bind.CallOpts{Context: ctx}, &out, "owner", [32]byte(node)); err != nil {
		return common.Address{}, fmt.Errorf("ens owner: %w", err)
	}
	if len(out) != 1 {
		return common.Address{}, fmt.Errorf("ens owner: unexpected %d outputs", len(out))
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("ens owner: unexpected output type %T", out[0])
	}
	return addr, nil
}
