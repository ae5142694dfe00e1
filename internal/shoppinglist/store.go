package shoppinglist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an untouched list is kept.
const DefaultTTL = 24 * time.Hour

// KeyPrefix namespaces list keys in Redis.
const KeyPrefix = "pricelist:list:"

// Store persists lists between requests. Save refreshes the list expiry.
type Store interface {
	Get(ctx context.Context, id string) (List, error)
	Save(ctx context.Context, list List) error
}

// sweepEvery bounds how often Save scans for expired lists.
const sweepEvery = time.Minute

// MemoryStore keeps lists in process memory. Expired lists are dropped on
// read and swept from Save.
type MemoryStore struct {
	TTL time.Duration
	Now func() time.Time

	mu        sync.Mutex
	lists     map[string]List
	expires   map[string]time.Time
	nextSweep time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{TTL: ttl}
}

func (s *MemoryStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get returns a copy of the list so callers cannot mutate stored state.
func (s *MemoryStore) Get(_ context.Context, id string) (List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[id]
	if !ok {
		return List{}, ErrNotFound
	}
	if exp, ok := s.expires[id]; ok && !s.now().Before(exp) {
		delete(s.lists, id)
		delete(s.expires, id)
		return List{}, ErrNotFound
	}
	list.Lines = append([]Line(nil), list.Lines...)
	return list, nil
}

// Save stores a copy of list.
func (s *MemoryStore) Save(_ context.Context, list List) error {
	if list.ID == "" {
		return fmt.Errorf("list id required: %w", ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lists == nil {
		s.lists = make(map[string]List)
		s.expires = make(map[string]time.Time)
	}
	now := s.now()
	if !now.Before(s.nextSweep) {
		s.sweepLocked(now)
		s.nextSweep = now.Add(sweepEvery)
	}
	list.Lines = append([]Line(nil), list.Lines...)
	s.lists[list.ID] = list
	s.expires[list.ID] = now.Add(ttlOrDefault(s.TTL))
	return nil
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for id, exp := range s.expires {
		if !now.Before(exp) {
			delete(s.lists, id)
			delete(s.expires, id)
		}
	}
}

// Len reports how many lists are held, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists)
}

// RedisStore keeps lists as JSON values with a TTL.
type RedisStore struct {
	R   redis.Cmdable
	TTL time.Duration
}

// Get loads the list stored under id.
func (s RedisStore) Get(ctx context.Context, id string) (List, error) {
	raw, err := s.R.Get(ctx, KeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return List{}, ErrNotFound
		}
		return List{}, err
	}
	var list List
	if err := json.Unmarshal(raw, &list); err != nil {
		return List{}, fmt.Errorf("decode list %s: %w", id, err)
	}
	return list, nil
}

// Save writes list and resets its expiry.
func (s RedisStore) Save(ctx context.Context, list List) error {
	if list.ID == "" {
		return fmt.Errorf("list id required: %w", ErrInvalidInput)
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, KeyPrefix+list.ID, payload, ttlOrDefault(s.TTL)).Err()
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
