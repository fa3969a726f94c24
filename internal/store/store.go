// Package store holds the order CRUD layer: signed intents in, lifecycle
// records out. All durability is in the ObjectStore; the key encoding is the
// only index.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperdrive-otc/api/internal/intent"
	"github.com/hyperdrive-otc/api/internal/orderkey"
	"github.com/hyperdrive-otc/api/internal/types"
)

// DefaultPageSize bounds one list page of the underlying object store.
const DefaultPageSize = 100

// Store exposes CRUD and list operations over signed order intents. Every
// mutation verifies the intent's signature first.
type Store struct {
	objects  ObjectStore
	verifier *intent.Verifier
	logger   zerolog.Logger
}

func New(objects ObjectStore, verifier *intent.Verifier) *Store {
	return &Store{
		objects:  objects,
		verifier: verifier,
		logger:   log.With().Str("component", "order_store").Logger(),
	}
}

// Get fetches the record at key. The key itself is validated by decoding it.
func (s *Store) Get(ctx context.Context, key string) (*types.OrderRecord, error) {
	decoded, err := orderkey.Decode(key)
	if err != nil {
		return nil, err
	}
	// Re-encode so mixed-case keys from clients hit the stored lowercase form.
	key = orderkey.Encode(decoded.Status, decoded.Trader, decoded.Hyperdrive, decoded.Salt)

	value, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.buildRecord(decoded.Status, key, value)
}

// List returns one page of records matching the filters. Filters that cannot
// be folded into the storage prefix (per the status -> trader -> hyperdrive
// precedence) are applied by scanning the decoded keys of the listed page, so
// a page may come back short, or even empty, while HasMore is still true.
func (s *Store) List(ctx context.Context, filters types.ListFilters, token string) (*types.ListResult, error) {
	// Post-filtering below uses the full filter set, so the folded subset
	// returned here only serves to narrow the scan.
	prefix, _ := orderkey.ListPrefix(filters)

	page, err := s.objects.List(ctx, prefix, token, DefaultPageSize)
	if err != nil {
		return nil, err
	}

	result := &types.ListResult{
		Records:               []types.OrderRecord{},
		HasMore:               page.HasMore,
		NextContinuationToken: page.NextToken,
	}

	for _, key := range page.Keys {
		decoded, err := orderkey.Decode(key)
		if err != nil {
			// Foreign object in the bucket; skip it rather than failing the page.
			s.logger.Warn().Str("key", key).Msg("skipping undecodable key")
			continue
		}
		if !decoded.Matches(filters) {
			continue
		}

		value, err := s.objects.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			// Deleted between list and get; races like this are expected.
			continue
		}
		if err != nil {
			return nil, err
		}
		record, err := s.buildRecord(decoded.Status, key, value)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, *record)
	}
	return result, nil
}

// Create persists a new pending record. Fails with ErrUnauthorized on a bad
// signature and ErrConflict if a record already exists at the computed key.
func (s *Store) Create(ctx context.Context, o types.OrderIntent) (*types.OrderRecord, error) {
	if err := s.verifier.Verify(&o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	key := orderkey.Encode(types.StatusPending, o.Trader, o.Hyperdrive, o.Salt)
	data := types.OrderData{OrderIntent: o}
	value, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	if err := s.objects.PutIfAbsent(ctx, key, value); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("key", key).
		Str("trader", o.Trader).
		Str("order_type", o.OrderType.String()).
		Msg("order created")
	return &types.OrderRecord{Status: types.StatusPending, Key: key, Data: data}, nil
}

// Update overwrites the pending record for the intent's (trader, hyperdrive,
// salt) triple. Fails with ErrNotFound if there is nothing to overwrite.
func (s *Store) Update(ctx context.Context, o types.OrderIntent) (*types.OrderRecord, error) {
	if err := s.verifier.Verify(&o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	key := orderkey.Encode(types.StatusPending, o.Trader, o.Hyperdrive, o.Salt)
	if _, err := s.objects.Get(ctx, key); err != nil {
		return nil, err
	}

	data := types.OrderData{OrderIntent: o}
	value, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := s.objects.Put(ctx, key, value); err != nil {
		return nil, err
	}

	s.logger.Info().Str("key", key).Msg("order updated")
	return &types.OrderRecord{Status: types.StatusPending, Key: key, Data: data}, nil
}

// Cancel replaces the pending record at key with a canceled tombstone. Only
// pending keys are cancelable; filled and canceled records are terminal and
// cancel reports ErrNotFound for them. The two writes are not atomic, so the
// whole operation is idempotent: an existing tombstone is never overwritten,
// the pending delete is always re-issued, and a repeat call after completion
// still returns the tombstone.
func (s *Store) Cancel(ctx context.Context, key string) (*types.OrderRecord, error) {
	decoded, err := orderkey.Decode(key)
	if err != nil {
		return nil, err
	}
	if decoded.Status != types.StatusPending {
		return nil, fmt.Errorf("%w: no pending record at %s key", ErrNotFound, decoded.Status)
	}
	key = orderkey.Encode(types.StatusPending, decoded.Trader, decoded.Hyperdrive, decoded.Salt)
	tombstoneKey := orderkey.Encode(types.StatusCanceled, decoded.Trader, decoded.Hyperdrive, decoded.Salt)

	pendingValue, pendingErr := s.objects.Get(ctx, key)
	if pendingErr != nil && !errors.Is(pendingErr, ErrNotFound) {
		return nil, pendingErr
	}

	if existing, err := s.objects.Get(ctx, tombstoneKey); err == nil {
		// Tombstone already written; finish the delete if a crash left the
		// pending object behind.
		if pendingErr == nil {
			if err := s.objects.Delete(ctx, key); err != nil {
				return nil, err
			}
		}
		return s.buildRecord(types.StatusCanceled, tombstoneKey, existing)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if errors.Is(pendingErr, ErrNotFound) {
		return nil, ErrNotFound
	}

	var data types.OrderData
	if err := json.Unmarshal(pendingValue, &data); err != nil {
		return nil, fmt.Errorf("corrupt record at %s: %w", key, err)
	}
	data.CanceledAt = time.Now().Unix()

	tombstoneValue, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := s.objects.Put(ctx, tombstoneKey, tombstoneValue); err != nil {
		return nil, err
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		return nil, err
	}

	s.logger.Info().Str("key", key).Str("tombstone", tombstoneKey).Msg("order canceled")
	return &types.OrderRecord{Status: types.StatusCanceled, Key: tombstoneKey, Data: data}, nil
}

// RecordFill persists a settled intent as a filled record whose MatchKey
// references the pending key of the matched counter-order, then deletes that
// consumed pending record. Called only after on-chain confirmation.
func (s *Store) RecordFill(ctx context.Context, o types.OrderIntent, matchedPendingKey string) (*types.OrderRecord, error) {
	if err := s.verifier.Verify(&o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	matched, err := orderkey.Decode(matchedPendingKey)
	if err != nil {
		return nil, err
	}
	if matched.Status != types.StatusPending {
		return nil, fmt.Errorf("%w: fill must consume a pending key, got %s", ErrNotFound, matched.Status)
	}
	matchedPendingKey = orderkey.Encode(types.StatusPending, matched.Trader, matched.Hyperdrive, matched.Salt)

	key := orderkey.Encode(types.StatusFilled, o.Trader, o.Hyperdrive, o.Salt)
	data := types.OrderData{OrderIntent: o, MatchKey: matchedPendingKey}
	value, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if err := s.objects.Put(ctx, key, value); err != nil {
		return nil, err
	}

	// The matched pending order is consumed by the settlement. A crash here
	// leaves it stale; re-recording the same fill re-issues the delete.
	if err := s.objects.Delete(ctx, matchedPendingKey); err != nil {
		return nil, err
	}

	s.logger.Info().Str("key", key).Str("match_key", matchedPendingKey).Msg("fill recorded")
	return &types.OrderRecord{Status: types.StatusFilled, Key: key, Data: data}, nil
}

func (s *Store) buildRecord(status types.OrderStatus, key string, value []byte) (*types.OrderRecord, error) {
	var data types.OrderData
	if err := json.Unmarshal(value, &data); err != nil {
		return nil, fmt.Errorf("corrupt record at %s: %w", key, err)
	}
	return &types.OrderRecord{Status: status, Key: key, Data: data}, nil
}
