package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inklore/server/internal/story"
)

func TestResolveSelection(t *testing.T) {
	tests := []struct {
		target string
		want   Selection
	}{
		{"c", Selection{Field: story.FieldContext}},
		{"m", Selection{Field: story.FieldMemory}},
		{"a0", Selection{Field: story.FieldAction, Index: 0}},
		{"a4", Selection{Field: story.FieldAction, Index: 2}},
		{"r5", Selection{Field: story.FieldResult, Index: 2}},
		{"r1", Selection{Field: story.FieldResult, Index: 0}},
		{"a12", Selection{Field: story.FieldAction, Index: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := ResolveSelection(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSelectionMalformed(t *testing.T) {
	targets := []string{
		"",     // empty
		"x",    // unknown field
		"a",    // action needs an index
		"r",    // result needs an index
		"c1",   // context takes no index
		"m2",   // memory takes no index
		"4a",   // index before field
		"a-1",  // negative
		"a1.5", // not an integer
		"A4",   // upper case
		"a 4",  // embedded space
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			_, err := ResolveSelection(target)
			assert.ErrorIs(t, err, ErrMalformedSelection)
		})
	}
}
