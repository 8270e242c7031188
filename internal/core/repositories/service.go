// Package repositories implements the read-through cache for repository metadata.
//
// A request for owner/repo is served from the Store when the stored record is
// fresh. Otherwise the stale record is evicted, the record is fetched from the
// upstream API and written back to the Store before being returned. Store
// failures degrade to upstream-only operation; upstream failures are returned
// to the caller.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type service struct {
	store   Store
	fetcher Fetcher
	now     func() time.Time
}

// NewService creates a new repository cache service
func NewService(store Store, fetcher Fetcher, opts ...ServiceOption) Service {
	if store == nil {
		panic("repositories: store cannot be nil")
	}
	if fetcher == nil {
		panic("repositories: fetcher cannot be nil")
	}

	s := &service{
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ServiceOption configures the service
type ServiceOption func(*service)

// WithClock overrides the clock used for freshness checks
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		s.now = now
	}
}

// GetRepository returns metadata for owner/repo.
// The flow is:
//  1. Look up the stored record (store errors are treated as a miss)
//  2. Return it if fresh; otherwise evict it (best-effort)
//  3. Fetch from upstream (errors are returned to the caller)
//  4. Upsert the fetched record (errors are logged, not returned)
//  5. Return the record
func (s *service) GetRepository(ctx context.Context, owner, repo string) (*Repository, error) {
	identity, err := Identity(owner, repo)
	if err != nil {
		return nil, err
	}

	// A read that has started runs to completion; only the upstream timeout cancels it
	ctx = context.WithoutCancel(ctx)

	// Step 1: Lookup
	cached, err := s.store.Get(ctx, identity)
	switch {
	case err == nil:
	case errors.Is(err, ErrRecordNotFound):
		cached = nil
	default:
		slog.Warn("[REPO-CACHE] store lookup failed, falling back to upstream",
			"identity", identity,
			"error", err,
		)
		cached = nil
	}

	// Step 2: Freshness check
	if cached != nil {
		if IsFresh(cached, s.now()) {
			slog.Debug("[REPO-CACHE] cache hit", "identity", identity)
			return cached, nil
		}

		slog.Debug("[REPO-CACHE] stale record, evicting",
			"identity", identity,
			"last_refreshed_at", cached.LastRefreshedAt,
			"ttl_seconds", cached.TTLSeconds,
		)
		if delErr := s.store.Delete(ctx, identity); delErr != nil {
			slog.Warn("[REPO-CACHE] failed to evict stale record",
				"identity", identity,
				"error", delErr,
			)
		}
	}

	// Step 3: Upstream fetch
	fetched, err := s.fetcher.Fetch(ctx, identity)
	if err != nil {
		if errors.Is(err, ErrUpstreamNotFound) {
			slog.Info("[REPO-CACHE] repository not found upstream", "identity", identity)
		} else {
			slog.Error("[REPO-CACHE] upstream fetch failed", "identity", identity, "error", err)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", identity, err)
	}

	// Step 4: Upsert. The fetched record is returned even if persistence fails.
	stored, err := s.store.Upsert(ctx, fetched.Identity, fetched.Update())
	if err != nil {
		slog.Warn("[REPO-CACHE] failed to persist fetched record",
			"identity", fetched.Identity,
			"error", err,
		)
		return fetched, nil
	}

	slog.Info("[REPO-CACHE] refreshed from upstream",
		"identity", stored.Identity,
		"stars", stored.Stars,
	)

	return stored, nil
}
