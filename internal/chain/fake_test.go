package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/require"
)

// fakeBackend answers contract calls from registered handlers and serves a fixed log set.
type fakeBackend struct {
	t   *testing.T
	abi abi.ABI

	mu       sync.Mutex
	handlers map[string]func(args []interface{}) ([]interface{}, error)
	logs     []types.Log
	head     uint64
	subErr   error
	sub      chan<- types.Log
	subReady chan struct{}
	filtered []ethereum.FilterQuery
}

func newFakeBackend(t *testing.T, abiJSON string) *fakeBackend {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	require.NoError(t, err)
	return &fakeBackend{
		t:        t,
		abi:      parsed,
		handlers: map[string]func([]interface{}) ([]interface{}, error){},
		subReady: make(chan struct{}),
	}
}

func (f *fakeBackend) on(method string, h func(args []interface{}) ([]interface{}, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	h := f.handlers[method.Name]
	f.mu.Unlock()
	if h == nil {
		return nil, errors.New("no handler for " + method.Name)
	}
	out, err := h(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(out...)
}

func (f *fakeBackend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filtered = append(f.filtered, q)
	var out []types.Log
	for _, l := range f.logs {
		if l.BlockNumber >= q.FromBlock.Uint64() && l.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeBackend) SubscribeFilterLogs(_ context.Context, _ ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.mu.Lock()
	f.sub = ch
	f.mu.Unlock()
	close(f.subReady)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (f *fakeBackend) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: number, Time: 1_700_000_000 + number.Uint64()*12}, nil
}

func (f *fakeBackend) BlockNumber(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.head, nil
}

func (f *fakeBackend) addLog(l types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	if l.BlockNumber > f.head {
		f.head = l.BlockNumber
	}
}

func createdLog(t *testing.T, a abi.ABI, block uint64, id common.Hash, owner common.Address, ens, name string) types.Log {
	t.Helper()
	ev := a.Events[eventSpaceCreated]
	data, err := ev.Inputs.NonIndexed().Pack(ens, name)
	require.NoError(t, err)
	return types.Log{
		Topics:      []common.Hash{ev.ID, id, common.BytesToHash(owner.Bytes())},
		Data:        data,
		BlockNumber: block,
	}
}

func renamedLog(t *testing.T, a abi.ABI, block uint64, id common.Hash, name string) types.Log {
	t.Helper()
	ev := a.Events[eventSpaceDisplayNameUpdated]
	data, err := ev.Inputs.NonIndexed().Pack(name)
	require.NoError(t, err)
	return types.Log{
		Topics:      []common.Hash{ev.ID, id},
		Data:        data,
		BlockNumber: block,
	}
}
