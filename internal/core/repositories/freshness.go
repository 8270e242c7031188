package repositories

import "time"

// IsFresh reports whether r may still be served from the cache at now.
// A record is fresh iff now - LastRefreshedAt < TTL; an age exactly equal to the
// TTL is stale. Records refreshed in the future (clock skew) have a negative age
// and are therefore fresh.
func IsFresh(r *Repository, now time.Time) bool {
	if r == nil {
		return false
	}
	return now.Sub(r.LastRefreshedAt) < r.TTL()
}
