package repositories

import (
	"fmt"
	"strings"
)

// maxSegmentLength bounds owner and repo names (GitHub allows 39 and 100)
const maxSegmentLength = 100

// Identity joins owner and repo into the cache key after validating both segments
func Identity(owner, repo string) (string, error) {
	if err := validateSegment("owner", owner); err != nil {
		return "", err
	}
	if err := validateSegment("repo", repo); err != nil {
		return "", err
	}
	return owner + "/" + repo, nil
}

// SplitIdentity splits "owner/repo" back into its segments
func SplitIdentity(identity string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(identity, "/")
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not owner/repo", ErrInvalidIdentity, identity)
	}
	if _, err := Identity(owner, repo); err != nil {
		return "", "", err
	}
	return owner, repo, nil
}

func validateSegment(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidIdentity, name)
	}
	if len(value) > maxSegmentLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidIdentity, name, maxSegmentLength)
	}
	if value == "." || value == ".." {
		return fmt.Errorf("%w: %s cannot be %q", ErrInvalidIdentity, name, value)
	}
	for _, c := range value {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return fmt.Errorf("%w: %s contains invalid character %q", ErrInvalidIdentity, name, c)
		}
	}
	return nil
}
