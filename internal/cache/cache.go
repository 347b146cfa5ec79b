// Package cache keeps computed read models in redis, snappy-compressed.
//
// Entries are namespaced by a generation counter. Invalidate bumps the
// counter, which orphans every entry written before it; orphans expire
// through their TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/railzwaylabs/metertrack/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(New),
)

const defaultPrefix = "metertrack:cache"

type Params struct {
	fx.In

	Client *redis.Client `optional:"true"`
	Cfg    config.Config
	Log    *zap.Logger
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

func New(p Params) *Store {
	return NewStore(p.Client, time.Duration(p.Cfg.Redis.CacheTTLMs)*time.Millisecond, p.Log)
}

func NewStore(client *redis.Client, ttl time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		client: client,
		ttl:    ttl,
		prefix: defaultPrefix,
		log:    log.Named("cache"),
	}
}

// Enabled reports whether a redis client backs the store.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Ping checks the redis connection. A disabled store always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// Slot is a key bound to the generation that was current when it was
// resolved. A write through a stale Slot lands in an orphaned generation.
type Slot struct {
	key  string
	full string
}

// Get decodes the entry for key into dst. It reports false on a miss.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	_, hit, err := s.Lookup(ctx, key, dst)
	return hit, err
}

// Lookup is Get that also returns the resolved Slot, so a value computed
// after a miss can be stored with Put under the generation it was read in.
func (s *Store) Lookup(ctx context.Context, key string, dst any) (Slot, bool, error) {
	if !s.Enabled() {
		return Slot{}, false, nil
	}
	full, err := s.key(ctx, key)
	if err != nil {
		return Slot{}, false, err
	}
	slot := Slot{key: key, full: full}
	raw, err := s.client.Get(ctx, full).Bytes()
	if errors.Is(err, redis.Nil) {
		return slot, false, nil
	}
	if err != nil {
		return slot, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	payload, err := snappy.Decode(nil, raw)
	if err != nil {
		return slot, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return slot, false, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return slot, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	if !s.Enabled() {
		return nil
	}
	full, err := s.key(ctx, key)
	if err != nil {
		return err
	}
	return s.Put(ctx, Slot{key: key, full: full}, value)
}

// Put stores value in slot. A zero Slot is ignored.
func (s *Store) Put(ctx context.Context, slot Slot, value any) error {
	if !s.Enabled() || slot.full == "" {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", slot.key, err)
	}
	if err := s.client.Set(ctx, slot.full, snappy.Encode(nil, payload), s.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", slot.key, err)
	}
	return nil
}

// Invalidate drops every entry written so far.
func (s *Store) Invalidate(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.client.Incr(ctx, s.generationKey()).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// InvalidateQuietly logs instead of returning the error. Writers call it
// after their own commit succeeded.
func (s *Store) InvalidateQuietly(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil {
		s.log.Warn("failed to invalidate cache", zap.Error(err))
	}
}

func (s *Store) generationKey() string {
	return s.prefix + ":gen"
}

func (s *Store) key(ctx context.Context, key string) (string, error) {
	gen, err := s.client.Get(ctx, s.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		return "", fmt.Errorf("cache generation: %w", err)
	}
	return fmt.Sprintf("%s:%d:%s", s.prefix, gen, key), nil
}
