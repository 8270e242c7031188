package repositories

import "errors"

var (
	// ErrRecordNotFound is returned by a Store when no record exists for an identity.
	// A miss is a normal result, not a store failure.
	ErrRecordNotFound = errors.New("repository record not found")

	// ErrStoreUnavailable is returned when the backing storage cannot be reached
	// or a write cannot be committed.
	ErrStoreUnavailable = errors.New("repository store unavailable")

	// ErrIncompleteRecord is returned when an upsert would insert a new record
	// without all required fields.
	ErrIncompleteRecord = errors.New("incomplete repository record")

	// ErrInvalidRecord is returned when an update carries out-of-range values
	ErrInvalidRecord = errors.New("invalid repository record")

	// ErrInvalidIdentity is returned when owner or repo is not a valid path segment
	ErrInvalidIdentity = errors.New("invalid repository identity")

	// ErrUpstreamNotFound is returned when the upstream API reports that the
	// repository does not exist. It is terminal and never retried.
	ErrUpstreamNotFound = errors.New("repository not found upstream")

	// ErrUpstreamTimeout is returned when the upstream call exceeds its timeout
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrUpstreamUnavailable is returned on transport failures and unexpected upstream statuses
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedResponse is returned when the upstream body does not parse into a record
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrNilDependency is returned when a required dependency is nil
	ErrNilDependency = errors.New("required dependency is nil")
)

// IsUpstreamFailure reports whether err is a transient upstream failure
// (timeout, unavailable or malformed response) as opposed to a not-found.
func IsUpstreamFailure(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout) ||
		errors.Is(err, ErrUpstreamUnavailable) ||
		errors.Is(err, ErrMalformedResponse)
}
