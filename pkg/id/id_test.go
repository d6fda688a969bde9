package id

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsSortedByGenerationTime(t *testing.T) {
	t.Parallel()

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = New()
	}

	assert.True(t, sort.StringsAreSorted(ids), "ULIDs must be monotonic within a process")

	seen := map[string]bool{}
	for _, s := range ids {
		assert.Len(t, s, 26)
		assert.False(t, seen[s], "duplicate id %s", s)
		seen[s] = true
	}
}

func TestNewRunShape(t *testing.T) {
	t.Parallel()

	r := NewRun()
	assert.Len(t, r, 10)
	assert.Equal(t, strings.ToLower(r), r, "run id should be lowercase")

	other := NewRun()
	assert.NotEqual(t, r, other)
}
