package repositories

import "context"

// Service resolves repository metadata through the cache
type Service interface {
	// GetRepository returns metadata for owner/repo.
	// A fresh stored record is returned as-is; otherwise the record is fetched
	// upstream, persisted, and returned. Store failures never fail the call.
	GetRepository(ctx context.Context, owner, repo string) (*Repository, error)
}

// Store persists repository records keyed by identity.
// Implementations must make Upsert atomic per identity.
type Store interface {
	// Get returns the record for identity, or ErrRecordNotFound.
	// Returns an error wrapping ErrStoreUnavailable on storage failures.
	Get(ctx context.Context, identity string) (*Repository, error)

	// Upsert merges the provided fields into the existing record, or inserts a
	// new record when none exists (the update must then be Complete).
	// last_refreshed_at is refreshed on every call.
	Upsert(ctx context.Context, identity string, update RepositoryUpdate) (*Repository, error)

	// Delete removes the record for identity. Deleting an absent record is not an error.
	Delete(ctx context.Context, identity string) error

	// Ping checks that the backing storage can answer a trivial query
	Ping(ctx context.Context) error
}

// Fetcher retrieves repository metadata from the upstream API.
// Each call issues exactly one outbound request and is never retried.
type Fetcher interface {
	// Fetch returns the upstream record for identity ("owner/repo").
	// Errors wrap ErrUpstreamNotFound, ErrUpstreamTimeout,
	// ErrUpstreamUnavailable or ErrMalformedResponse.
	Fetch(ctx context.Context, identity string) (*Repository, error)
}
