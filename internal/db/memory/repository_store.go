// Package memory provides an in-process repository cache store bounded by an LRU.
// Records do not survive restarts; it serves single-instance deployments and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"Repocache/internal/core/repositories"
)

// DefaultSize is the number of records kept before the least recently used is evicted
const DefaultSize = 10000

// StoreOption configures a memory store
type StoreOption func(*repositoryStore)

// WithClock overrides the clock used to stamp last_refreshed_at
func WithClock(now func() time.Time) StoreOption {
	return func(s *repositoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

type repositoryStore struct {
	now func() time.Time

	// mu serialises read-modify-write upserts; the LRU itself is only safe per call
	mu      sync.Mutex
	records *lru.Cache[string, repositories.Repository]
}

// NewRepositoryStore creates a memory store holding at most size records.
// A non-positive size uses DefaultSize.
func NewRepositoryStore(size int, opts ...StoreOption) (repositories.Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	records, err := lru.New[string, repositories.Repository](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create record cache: %w", err)
	}

	s := &repositoryStore{
		now:     time.Now,
		records: records,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *repositoryStore) Get(ctx context.Context, identity string) (*repositories.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records.Get(identity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRecordNotFound, identity)
	}
	return cloneRecord(record), nil
}

func (s *repositoryStore) Upsert(ctx context.Context, identity string, update repositories.RepositoryUpdate) (*repositories.Repository, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()

	existing, ok := s.records.Peek(identity)
	if !ok {
		record, err := update.NewRecord(identity, now)
		if err != nil {
			return nil, err
		}
		s.records.Add(identity, *record)
		return cloneRecord(*record), nil
	}

	update.ApplyTo(&existing, now)
	s.records.Add(identity, existing)
	return cloneRecord(existing), nil
}

func (s *repositoryStore) Delete(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records.Remove(identity)
	return nil
}

// Ping always succeeds
func (s *repositoryStore) Ping(ctx context.Context) error {
	return nil
}

// cloneRecord copies the description so callers never alias cached state
func cloneRecord(r repositories.Repository) *repositories.Repository {
	if r.Description != nil {
		description := *r.Description
		r.Description = &description
	}
	return &r
}
