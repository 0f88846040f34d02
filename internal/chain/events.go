package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	eventSpaceCreated            = "SpaceCreated"
	eventSpaceDisplayNameUpdated = "SpaceDisplayNameUpdated"

	replayChunk = 5000
)

var pollInterval = 12 * time.Second

// EventKind names a SpaceRegistry event.
type EventKind string

const (
	KindSpaceCreated       EventKind = eventSpaceCreated
	KindDisplayNameUpdated EventKind = eventSpaceDisplayNameUpdated
)

// Event is a decoded SpaceRegistry log. Owner and ENSName are only set for SpaceCreated.
type Event struct {
	Kind        EventKind
	SpaceID     string
	Owner       string
	ENSName     string
	DisplayName string
	BlockNumber uint64
	Timestamp   time.Time
}

// EventSource replays and follows SpaceRegistry events.
type EventSource interface {
	// Replay delivers every event in [from, head] in log order and returns head+1.
	Replay(ctx context.Context, from uint64, fn func(Event) error) (uint64, error)
	// Watch delivers events from block `from` onwards until ctx is done.
	Watch(ctx context.Context, from uint64, fn func(Event) error) error
}

type spaceCreatedLog struct {
	SpaceId     [32]byte
	Owner       common.Address
	EnsName     string
	DisplayName string
}

type displayNameUpdatedLog struct {
	SpaceId     [32]byte
	DisplayName string
}

func (r *Registry) query(from, to uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{r.address},
		Topics: [][]common.Hash{{
			r.abi.Events[eventSpaceCreated].ID,
			r.abi.Events[eventSpaceDisplayNameUpdated].ID,
		}},
	}
}

// Replay reads logs in fixed-size block ranges so large histories stay under provider limits.
func (r *Registry) Replay(ctx context.Context, from uint64, fn func(Event) error) (uint64, error) {
	head, err := r.backend.BlockNumber(ctx)
	if err != nil {
		return from, fmt.Errorf("block number: %w", err)
	}
	if from > head {
		return from, nil
	}

	stamps := map[uint64]time.Time{}
	for start := from; start <= head; start += replayChunk {
		end := min(start+replayChunk-1, head)
		logs, err := r.backend.FilterLogs(ctx, r.query(start, end))
		if err != nil {
			return start, fmt.Errorf("filter logs %d-%d: %w", start, end, err)
		}
		for _, l := range logs {
			if l.Removed {
				continue
			}
			ev, err := r.decode(l)
			if err != nil {
				return start, err
			}
			ts, ok := stamps[l.BlockNumber]
			if !ok {
				ts, err = r.blockTime(ctx, l.BlockNumber)
				if err != nil {
					return start, err
				}
				stamps[l.BlockNumber] = ts
			}
			ev.Timestamp = ts
			if err := fn(ev); err != nil {
				return start, err
			}
		}
	}
	return head + 1, nil
}

// Watch subscribes to new logs when the transport supports it and polls otherwise.
func (r *Registry) Watch(ctx context.Context, from uint64, fn func(Event) error) error {
	ch := make(chan types.Log, 64)
	q := r.query(0, 0)
	q.FromBlock, q.ToBlock = nil, nil

	sub, err := r.backend.SubscribeFilterLogs(ctx, q, ch)
	if errors.Is(err, rpc.ErrNotificationsUnsupported) || (err != nil && strings.Contains(err.Error(), "notifications not supported")) {
		return r.poll(ctx, from, fn)
	}
	if err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}
	defer sub.Unsubscribe()

	// Logs mined between the last replay and the subscription.
	if _, err := r.Replay(ctx, from, fn); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				return nil
			}
			return fmt.Errorf("log subscription: %w", err)
		case l := <-ch:
			if l.Removed {
				continue
			}
			ev, err := r.decode(l)
			if err != nil {
				return err
			}
			if ev.Timestamp, err = r.blockTime(ctx, l.BlockNumber); err != nil {
				return err
			}
			if err := fn(ev); err != nil {
				return err
			}
		}
	}
}

func (r *Registry) poll(ctx context.Context, from uint64, fn func(Event) error) error {
	next := from
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		n, err := r.Replay(ctx, next, fn)
		if err != nil && ctx.Err() == nil {
			return err
		}
		next = n
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Registry) decode(l types.Log) (Event, error) {
	if len(l.Topics) == 0 {
		return Event{}, fmt.Errorf("log %s:%d has no topics", l.TxHash.Hex(), l.Index)
	}
	switch l.Topics[0] {
	case r.abi.Events[eventSpaceCreated].ID:
		var out spaceCreatedLog
		if err := r.contract.UnpackLog(&out, eventSpaceCreated, l); err != nil {
			return Event{}, fmt.Errorf("unpack %s: %w", eventSpaceCreated, err)
		}
		return Event{
			Kind:        KindSpaceCreated,
			SpaceID:     FormatSpaceID(common.Hash(out.SpaceId)),
			Owner:       strings.ToLower(out.Owner.Hex()),
			ENSName:     out.EnsName,
			DisplayName: out.DisplayName,
			BlockNumber: l.BlockNumber,
		}, nil
	case r.abi.Events[eventSpaceDisplayNameUpdated].ID:
		var out displayNameUpdatedLog
		if err := r.contract.UnpackLog(&out, eventSpaceDisplayNameUpdated, l); err != nil {
			return Event{}, fmt.Errorf("unpack %s: %w", eventSpaceDisplayNameUpdated, err)
		}
		return Event{
			Kind:        KindDisplayNameUpdated,
			SpaceID:     FormatSpaceID(common.Hash(out.SpaceId)),
			DisplayName: out.DisplayName,
			BlockNumber: l.BlockNumber,
		}, nil
	}
	return Event{}, fmt.Errorf("unknown event topic %s", l.Topics[0].Hex())
}

func (r *Registry) blockTime(ctx context.Context, number uint64) (time.Time, error) {
	h, err := r.backend.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return time.Time{}, fmt.Errorf("header %d: %w", number, err)
	}
	return time.Unix(int64(h.Time), 0).UTC(), nil
}
