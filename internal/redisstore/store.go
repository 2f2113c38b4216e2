// Package redisstore is a tracking backend on Redis.
//
// Layout, under a configurable prefix:
//
//	<prefix>event:<key>   zstd-compressed CBOR of the stamped event, digest and receipt
//	<prefix>ids:<kind>    INCRBY counter per entity kind and for events
//	<prefix>index         ZSET of event keys scored by seq
//
// Keys are claimed with SETNX, so concurrent writers of the same key agree
// on one receipt.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/roach88/provtrack/internal/codec"
	"github.com/roach88/provtrack/internal/schema"
)

// ErrNotFound is returned when no event is stored under a key.
var ErrNotFound = schema.ErrNotFound

// Store implements syncer.Backend on Redis.
type Store struct {
	client *backend.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to the Redis server at address.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "provtrack:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storedEvent is the value kept under an event key.
type storedEvent struct {
	Key     string       `json:"key"`
	Seq     int64        `json:"seq"`
	Digest  string       `json:"digest"`
	EventID int64        `json:"event_id"`
	IDs     []int64      `json:"ids"`
	Event   schema.Event `json:"event"`
}

func (s *Store) eventKey(key string) string {
	return s.prefix + "event:" + key
}

func (s *Store) counterKey(kind string) string {
	return s.prefix + "ids:" + kind
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Sync implements syncer.Backend.
//
// Every key in the batch is checked before anything is written, so a key
// conflict rejects the batch without side effects.
func (s *Store) Sync(ctx context.Context, records []schema.Record) ([]schema.Receipt, error) {
	if len(records) == 0 {
		return []schema.Receipt{}, nil
	}

	digests := make([]string, len(records))
	for i, r := range records {
		d, err := schema.Digest(r.Event)
		if err != nil {
			return nil, err
		}
		digests[i] = d
	}

	existing, err := s.lookup(ctx, records)
	if err != nil {
		return nil, err
	}

	receipts := make([]schema.Receipt, len(records))
	for i, r := range records {
		prev := existing[i]
		if prev == nil {
			continue
		}
		if prev.Digest != digests[i] {
			return nil, fmt.Errorf("sync %q: %w", r.Key, schema.ErrKeyConflict)
		}
		receipts[i] = receiptOf(prev)
	}

	for i, r := range records {
		if existing[i] != nil {
			continue
		}
		rc, err := s.insert(ctx, r, digests[i])
		if err != nil {
			return nil, fmt.Errorf("sync %q: %w", r.Key, err)
		}
		receipts[i] = rc
	}
	return receipts, nil
}

// lookup fetches the stored form of each record's key, nil where absent.
func (s *Store) lookup(ctx context.Context, records []schema.Record) ([]*storedEvent, error) {
	pipe := s.client.Pipeline()
	cmds := make([]*backend.StringCmd, len(records))
	for i, r := range records {
		cmds[i] = pipe.Get(ctx, s.eventKey(r.Key))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}

	out := make([]*storedEvent, len(records))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, backend.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", records[i].Key, err)
		}
		var se storedEvent
		if err := codec.UnmarshalCompressed(data, &se); err != nil {
			return nil, fmt.Errorf("failed to decode %q: %w", records[i].Key, err)
		}
		out[i] = &se
	}
	return out, nil
}

// insert allocates ids for r and claims its key. If another writer claimed
// the key first, its receipt wins and the allocated ids are discarded.
func (s *Store) insert(ctx context.Context, r schema.Record, digest string) (schema.Receipt, error) {
	stamped := r.Clone()
	slots := schema.Slots(&stamped.Event)

	perKind := make(map[schema.SlotKind]int64)
	for _, slot := range slots {
		perKind[slot.Kind]++
	}

	pipe := s.client.Pipeline()
	eventCmd := pipe.Incr(ctx, s.counterKey("event"))
	kindCmds := make(map[schema.SlotKind]*backend.IntCmd, len(perKind))
	for kind, n := range perKind {
		kindCmds[kind] = pipe.IncrBy(ctx, s.counterKey(string(kind)), n)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return schema.Receipt{}, fmt.Errorf("failed to allocate ids: %w", err)
	}

	// INCRBY returns the last id of the reserved block.
	next := make(map[schema.SlotKind]int64, len(perKind))
	for kind, cmd := range kindCmds {
		next[kind] = cmd.Val() - perKind[kind] + 1
	}

	rc := schema.Receipt{Key: r.Key, EventID: eventCmd.Val(), IDs: make([]int64, len(slots))}
	for i, slot := range slots {
		rc.IDs[i] = next[slot.Kind]
		next[slot.Kind]++
	}
	if err := schema.ApplyReceipt(&stamped, rc); err != nil {
		return schema.Receipt{}, err
	}

	data, err := codec.MarshalCompressed(storedEvent{
		Key:     r.Key,
		Seq:     r.Seq,
		Digest:  digest,
		EventID: rc.EventID,
		IDs:     rc.IDs,
		Event:   stamped.Event,
	})
	if err != nil {
		return schema.Receipt{}, fmt.Errorf("failed to encode event: %w", err)
	}

	claimed, err := s.client.SetNX(ctx, s.eventKey(r.Key), data, 0).Result()
	if err != nil {
		return schema.Receipt{}, fmt.Errorf("failed to save to redis: %w", err)
	}
	if !claimed {
		prev, err := s.load(ctx, r.Key)
		if err != nil {
			return schema.Receipt{}, err
		}
		if prev.Digest != digest {
			return schema.Receipt{}, schema.ErrKeyConflict
		}
		return receiptOf(prev), nil
	}

	err = s.client.ZAdd(ctx, s.indexKey(), backend.Z{Score: float64(r.Seq), Member: r.Key}).Err()
	if err != nil {
		return schema.Receipt{}, fmt.Errorf("failed to index event: %w", err)
	}
	return rc, nil
}

func (s *Store) load(ctx context.Context, key string) (*storedEvent, error) {
	data, err := s.client.Get(ctx, s.eventKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("read event %q: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	var se storedEvent
	if err := codec.UnmarshalCompressed(data, &se); err != nil {
		return nil, fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return &se, nil
}

// ReadEvent returns the stamped event stored under key.
func (s *Store) ReadEvent(ctx context.Context, key string) (schema.Record, error) {
	se, err := s.load(ctx, key)
	if err != nil {
		return schema.Record{}, err
	}
	return recordOf(se), nil
}

// ReadEvents returns every stored event ordered by seq.
func (s *Store) ReadEvents(ctx context.Context) ([]schema.Record, error) {
	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]schema.Record, 0, len(keys))
	for _, key := range keys {
		se, err := s.load(ctx, key)
		if err != nil {
			return nil, err
		}
		out = append(out, recordOf(se))
	}
	return out, nil
}

// Len returns the number of stored events.
func (s *Store) Len(ctx context.Context) (int64, error) {
	n, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func receiptOf(se *storedEvent) schema.Receipt {
	return schema.Receipt{Key: se.Key, EventID: se.EventID, IDs: se.IDs}
}

func recordOf(se *storedEvent) schema.Record {
	return schema.Record{Key: se.Key, Seq: se.Seq, ID: se.EventID, Event: se.Event}
}
