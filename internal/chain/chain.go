// Package chain talks to the Ethereum JSON-RPC endpoint: SpaceRegistry ownership
// calls, ENS registry lookups and the SpaceRegistry event stream.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrNotConfigured is returned by every call when no RPC endpoint or contract address is set.
var ErrNotConfigured = errors.New("chain not configured")

// ErrInvalidSpaceID is returned by ParseSpaceID for ids that are not hex values of at
// most 32 bytes.
var ErrInvalidSpaceID = errors.New("invalid space id")

// ErrInvalidAddress is returned for strings that are not 20-byte hex addresses.
var ErrInvalidAddress = errors.New("invalid address")

// Backend is the subset of *ethclient.Client the contracts need.
type Backend interface {
	CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Dial connects to rawURL. HTTP requests go through an otelhttp transport so RPC calls
// show up as child spans of the request that caused them.
func Dial(ctx context.Context, rawURL string) (*ethclient.Client, error) {
	if rawURL == "" {
		return nil, ErrNotConfigured
	}
	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	rc, err := rpc.DialOptions(ctx, rawURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return ethclient.NewClient(rc), nil
}

// ParseSpaceID parses a 0x-prefixed hex value of at most 32 bytes, left-padded to bytes32.
func ParseSpaceID(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Hash{}, ErrInvalidSpaceID
	}
	digits := s[2:]
	if len(digits) == 0 || len(digits) > 2*common.HashLength || !isHex(digits) {
		return common.Hash{}, ErrInvalidSpaceID
	}
	return common.HexToHash(s), nil
}

// CanonicalSpaceID returns the lowercase 66-character form of a space id.
func CanonicalSpaceID(s string) (string, error) {
	h, err := ParseSpaceID(s)
	if err != nil {
		return "", err
	}
	return FormatSpaceID(h), nil
}

// EncodeSpaceID maps a space id onto the contract's bytes32 key. Hex ids are
// left-padded; any other id is its UTF-8 bytes left-aligned and zero-filled, which
// leaves room for at most 31 bytes. ok is false for ids that fit neither form.
func EncodeSpaceID(s string) (h common.Hash, ok bool) {
	s = strings.TrimSpace(s)
	if h, err := ParseSpaceID(s); err == nil {
		return h, true
	}
	if s == "" || len(s) > common.HashLength-1 {
		return common.Hash{}, false
	}
	copy(h[:], s)
	return h, true
}

// FormatSpaceID renders h as a lowercase 0x-prefixed hex string.
func FormatSpaceID(h common.Hash) string {
	return h.Hex()
}

// ParseAddress validates a 0x-prefixed 20-byte hex address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return common.Address{}, ErrInvalidAddress
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, ErrInvalidAddress
	}
	return common.HexToAddress(s), nil
}

// ParseHash validates a 0x-prefixed 32-byte hex value.
func ParseHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2+2*common.HashLength || !strings.HasPrefix(strings.ToLower(s), "0x") || !isHex(s[2:]) {
		return common.Hash{}, fmt.Errorf("invalid 32-byte hex value %q", s)
	}
	return common.HexToHash(s), nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
