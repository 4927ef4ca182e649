package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterleavedOrder(t *testing.T) {
	s := New("quest", "You are a knight.")
	s.AppendTurn("draw sword", "The blade gleams.")
	s.AppendTurn("charge", "You gallop forward.")

	assert.Equal(t, []string{
		"draw sword", "The blade gleams.",
		"charge", "You gallop forward.",
	}, s.Interleaved())
	assert.Equal(t, 2, s.Turns())
	assert.Equal(t, 4, s.StoryLen())
}

func TestFullTranscriptIncludesContext(t *testing.T) {
	s := New("quest", "You are a knight.")
	s.AppendTurn("look", "A castle looms.")

	assert.Equal(t, []string{"You are a knight.", "look", "A castle looms."}, s.FullTranscript())
}

func TestFullTranscriptEmptyContext(t *testing.T) {
	s := New("quest", "")
	s.AppendTurn("look", "A castle looms.")

	assert.Equal(t, []string{"look", "A castle looms."}, s.FullTranscript())
}

func TestWindowedPrompt(t *testing.T) {
	s := New("quest", "You are a knight.")
	s.SetField(FieldMemory, 0, "The dragon sleeps.")
	s.AppendTurn("a0", "r0")
	s.AppendTurn("a1", "r1")
	s.AppendTurn("a2", "r2")

	// Last two interleaved entries.
	got := s.WindowedPrompt(4, 6)
	assert.Equal(t, []string{"You are a knight.", "The dragon sleeps.", "a2", "r2"}, got)
}

func TestWindowedPromptAlwaysCarriesMemory(t *testing.T) {
	s := New("quest", "")
	s.AppendTurn("a0", "r0")

	// Empty memory still occupies its slot; empty context does not.
	got := s.WindowedPrompt(0, 2)
	assert.Equal(t, []string{"", "a0", "r0"}, got)
}

func TestWindowedPromptClamps(t *testing.T) {
	s := New("quest", "ctx")
	s.AppendTurn("a0", "r0")

	assert.Equal(t, []string{"ctx", "", "a0", "r0"}, s.WindowedPrompt(-5, 99))
	// Inverted range collapses to empty window.
	assert.Equal(t, []string{"ctx", ""}, s.WindowedPrompt(2, 0))
}

func TestSetFieldAndFieldValue(t *testing.T) {
	s := New("quest", "old context")
	s.AppendTurn("a0", "r0")
	s.AppendTurn("a1", "r1")

	require.NoError(t, s.SetField(FieldContext, 0, "new context"))
	require.NoError(t, s.SetField(FieldMemory, 7, "remembered"))
	require.NoError(t, s.SetField(FieldAction, 1, "edited action"))
	require.NoError(t, s.SetField(FieldResult, 0, "edited result"))

	assert.Equal(t, "new context", s.Context())
	assert.Equal(t, "remembered", s.Memory())

	v, err := s.FieldValue(FieldAction, 1)
	require.NoError(t, err)
	assert.Equal(t, "edited action", v)

	v, err = s.FieldValue(FieldResult, 0)
	require.NoError(t, err)
	assert.Equal(t, "edited result", v)
}

func TestSetFieldOutOfRange(t *testing.T) {
	s := New("quest", "")
	s.AppendTurn("a0", "r0")

	err := s.SetField(FieldAction, 1, "x")
	assert.ErrorIs(t, err, ErrFieldOutOfRange)

	err = s.SetField(FieldResult, -1, "x")
	assert.ErrorIs(t, err, ErrFieldOutOfRange)

	_, err = s.FieldValue(FieldAction, 5)
	assert.ErrorIs(t, err, ErrFieldOutOfRange)
}

func TestSetFieldUnknown(t *testing.T) {
	s := New("quest", "")
	err := s.SetField(Field("bogus"), 0, "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := New("quest", "ctx")
	s.SetField(FieldMemory, 0, "mem")
	s.AppendTurn("a0", "r0")

	rec := s.Snapshot()
	assert.Equal(t, "quest", rec.Name)
	assert.Equal(t, []string{"a0"}, rec.Actions)

	other := New("", "")
	other.Restore(rec)
	assert.Equal(t, "quest", other.Name())
	assert.Equal(t, "ctx", other.Context())
	assert.Equal(t, "mem", other.Memory())
	assert.Equal(t, []string{"a0", "r0"}, other.Interleaved())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New("quest", "")
	s.AppendTurn("a0", "r0")

	rec := s.Snapshot()
	rec.Actions[0] = "mutated"

	v, err := s.FieldValue(FieldAction, 0)
	require.NoError(t, err)
	assert.Equal(t, "a0", v)
}
