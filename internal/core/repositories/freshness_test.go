package repositories

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsFresh(t *testing.T) {
	refreshedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	const epsilon = time.Millisecond

	tests := []struct {
		name       string
		ttlSeconds float64
		age        time.Duration
		want       bool
	}{
		{name: "just refreshed", ttlSeconds: 3600, age: 0, want: true},
		{name: "half way", ttlSeconds: 3600, age: 30 * time.Minute, want: true},
		{name: "ttl minus epsilon", ttlSeconds: 3600, age: time.Hour - epsilon, want: true},
		{name: "exactly ttl", ttlSeconds: 3600, age: time.Hour, want: false},
		{name: "ttl plus epsilon", ttlSeconds: 3600, age: time.Hour + epsilon, want: false},
		{name: "long expired", ttlSeconds: 3600, age: 72 * time.Hour, want: false},
		{name: "fractional ttl below", ttlSeconds: 1.5, age: 1499 * time.Millisecond, want: true},
		{name: "fractional ttl exact", ttlSeconds: 1.5, age: 1500 * time.Millisecond, want: false},
		{name: "one nanosecond short of ttl", ttlSeconds: 60, age: time.Minute - time.Nanosecond, want: true},
		{name: "refreshed in the future", ttlSeconds: 3600, age: -10 * time.Minute, want: true},
		{name: "far future beyond ttl", ttlSeconds: 60, age: -48 * time.Hour, want: true},
		{name: "ttl beyond duration range just refreshed", ttlSeconds: 1e10, age: 0, want: true},
		{name: "ttl beyond duration range after years", ttlSeconds: 1e11, age: 10 * 365 * 24 * time.Hour, want: true},
		{name: "infinite ttl", ttlSeconds: math.Inf(1), age: 0, want: true},
		{name: "nan ttl", ttlSeconds: math.NaN(), age: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &Repository{
				Identity:        "octocat/Hello-World",
				LastRefreshedAt: refreshedAt,
				TTLSeconds:      tt.ttlSeconds,
			}
			now := refreshedAt.Add(tt.age)

			assert.Equal(t, tt.want, IsFresh(record, now))
		})
	}
}

func TestIsFresh_NilRecord(t *testing.T) {
	assert.False(t, IsFresh(nil, time.Now()))
}

func TestIsFresh_MatchesFormula(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, ttl := range []float64{0.001, 1, 59.999, 3600, 86400.5, 1e10} {
		for _, age := range []time.Duration{-time.Second, 0, time.Millisecond, time.Second, time.Minute, time.Hour, 25 * time.Hour} {
			record := &Repository{LastRefreshedAt: base, TTLSeconds: ttl}
			now := base.Add(age)
			want := now.Sub(base).Seconds() < ttl
			assert.Equal(t, want, IsFresh(record, now), "ttl=%v age=%v", ttl, age)
		}
	}
}

func TestRepository_TTLSaturates(t *testing.T) {
	assert.Equal(t, time.Hour, (&Repository{TTLSeconds: 3600}).TTL())
	assert.Equal(t, time.Duration(math.MaxInt64), (&Repository{TTLSeconds: 1e10}).TTL())
	assert.Equal(t, time.Duration(math.MaxInt64), (&Repository{TTLSeconds: math.Inf(1)}).TTL())
	assert.Equal(t, time.Duration(0), (&Repository{TTLSeconds: math.NaN()}).TTL())
}
