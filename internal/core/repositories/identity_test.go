package repositories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name    string
		owner   string
		repo    string
		want    string
		wantErr bool
	}{
		{name: "simple", owner: "octocat", repo: "Hello-World", want: "octocat/Hello-World"},
		{name: "dots and underscores", owner: "golang", repo: "go.tools_x", want: "golang/go.tools_x"},
		{name: "empty owner", owner: "", repo: "repo", wantErr: true},
		{name: "empty repo", owner: "owner", repo: "", wantErr: true},
		{name: "dot segment", owner: "owner", repo: ".", wantErr: true},
		{name: "dot dot segment", owner: "..", repo: "repo", wantErr: true},
		{name: "slash in repo", owner: "owner", repo: "a/b", wantErr: true},
		{name: "query characters", owner: "owner", repo: "repo?x=1", wantErr: true},
		{name: "whitespace", owner: "own er", repo: "repo", wantErr: true},
		{name: "too long", owner: "owner", repo: strings.Repeat("a", 101), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Identity(tt.owner, tt.repo)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidIdentity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitIdentity(t *testing.T) {
	owner, repo, err := SplitIdentity("octocat/Hello-World")
	require.NoError(t, err)
	assert.Equal(t, "octocat", owner)
	assert.Equal(t, "Hello-World", repo)

	_, _, err = SplitIdentity("no-slash")
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, _, err = SplitIdentity("a/b/c")
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}
