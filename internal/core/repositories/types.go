package repositories

import (
	"fmt"
	"math"
	"net/url"
	"time"
)

// DefaultTTLSeconds is the freshness window applied to records that do not carry their own
const DefaultTTLSeconds = 3600.0

// Repository is a cached repository metadata record.
type Repository struct {
	// CreatedAt is the upstream creation time of the repository, not the cache write time
	CreatedAt time.Time

	// LastRefreshedAt is updated on every write and never moves backwards
	LastRefreshedAt time.Time

	// Description is optional upstream
	Description *string

	// Identity is the unique cache key, "owner/name"
	Identity string

	CloneURL string

	Stars int

	// TTLSeconds is the freshness window for this record
	TTLSeconds float64
}

// maxTTLSeconds is the largest window a time.Duration can hold
const maxTTLSeconds = float64(math.MaxInt64) / float64(time.Second)

// TTL returns the record's freshness window as a duration.
// Windows too large for a time.Duration saturate; NaN yields zero.
func (r *Repository) TTL() time.Duration {
	switch {
	case math.IsNaN(r.TTLSeconds):
		return 0
	case r.TTLSeconds >= maxTTLSeconds:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(r.TTLSeconds * float64(time.Second))
}

// Update builds a complete RepositoryUpdate carrying every mutable field of r.
// CreatedAt is included so the update can insert a previously unseen identity.
func (r *Repository) Update() RepositoryUpdate {
	update := RepositoryUpdate{
		CloneURL:  &r.CloneURL,
		Stars:     &r.Stars,
		CreatedAt: &r.CreatedAt,
	}
	if r.Description != nil {
		description := *r.Description
		update.Description = &description
	} else {
		update.ClearDescription = true
	}
	if r.TTLSeconds > 0 {
		update.TTLSeconds = &r.TTLSeconds
	}
	if !r.LastRefreshedAt.IsZero() {
		update.RefreshedAt = &r.LastRefreshedAt
	}
	return update
}

// RepositoryUpdate enumerates the fields an upsert may set.
// A nil field is not provided and leaves the stored value untouched.
type RepositoryUpdate struct {
	Description *string
	// ClearDescription sets the description to null; it wins over Description
	ClearDescription bool
	CloneURL    *string
	Stars       *int
	// CreatedAt is only used when inserting; it is immutable afterwards
	CreatedAt  *time.Time
	TTLSeconds *float64
	// RefreshedAt overrides the store clock for last_refreshed_at
	RefreshedAt *time.Time
}

// Complete reports whether the update carries every field required to insert a new record
func (u RepositoryUpdate) Complete() bool {
	return u.CloneURL != nil && u.Stars != nil && u.CreatedAt != nil
}

// DescriptionProvided reports whether the update sets or clears the description
func (u RepositoryUpdate) DescriptionProvided() bool {
	return u.ClearDescription || u.Description != nil
}

// Validate checks provided fields for out-of-range values
func (u RepositoryUpdate) Validate() error {
	if u.Stars != nil && *u.Stars < 0 {
		return fmt.Errorf("%w: stars must be non-negative, got %d", ErrInvalidRecord, *u.Stars)
	}
	if u.TTLSeconds != nil && !ValidTTL(*u.TTLSeconds) {
		return fmt.Errorf("%w: ttl must be positive and finite, got %v", ErrInvalidRecord, *u.TTLSeconds)
	}
	if u.CloneURL != nil {
		if err := validateCloneURL(*u.CloneURL); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
	}
	return nil
}

// ApplyTo merges the provided fields into r and advances LastRefreshedAt to
// refreshedAt (or now when not provided), never moving it backwards.
// Identity and CreatedAt of an existing record are left unchanged.
func (u RepositoryUpdate) ApplyTo(r *Repository, now time.Time) {
	switch {
	case u.ClearDescription:
		r.Description = nil
	case u.Description != nil:
		description := *u.Description
		r.Description = &description
	}
	if u.CloneURL != nil {
		r.CloneURL = *u.CloneURL
	}
	if u.Stars != nil {
		r.Stars = *u.Stars
	}
	if u.TTLSeconds != nil {
		r.TTLSeconds = *u.TTLSeconds
	}

	refreshedAt := now
	if u.RefreshedAt != nil {
		refreshedAt = *u.RefreshedAt
	}
	refreshedAt = refreshedAt.UTC()
	if refreshedAt.After(r.LastRefreshedAt) {
		r.LastRefreshedAt = refreshedAt
	}
}

// NewRecord builds the record an insert of identity would create.
// The update must be Complete.
func (u RepositoryUpdate) NewRecord(identity string, now time.Time) (*Repository, error) {
	if !u.Complete() {
		return nil, fmt.Errorf("%w: clone_url, stars and created_at are required to insert %s", ErrIncompleteRecord, identity)
	}
	r := &Repository{
		Identity:   identity,
		CreatedAt:  u.CreatedAt.UTC(),
		TTLSeconds: DefaultTTLSeconds,
	}
	u.ApplyTo(r, now)
	return r, nil
}

// ValidTTL reports whether seconds is usable as a freshness window
func ValidTTL(seconds float64) bool {
	return seconds > 0 && !math.IsInf(seconds, 0) && !math.IsNaN(seconds)
}

func validateCloneURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("clone url: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("clone url must be an absolute http(s) URL: %q", raw)
	}
	return nil
}
