package story

import (
	"errors"
	"fmt"
	"sync"

	"inklore/server/internal/interfaces"
)

var (
	// ErrFieldOutOfRange is returned when an action/result index does not
	// exist in the transcript.
	ErrFieldOutOfRange = errors.New("story field index out of range")
	// ErrUnknownField is returned for a field kind the story does not have.
	ErrUnknownField = errors.New("unknown story field")
)

// Field identifies an editable part of a story.
type Field string

const (
	FieldContext Field = "context"
	FieldMemory  Field = "memory"
	FieldAction  Field = "action"
	FieldResult  Field = "result"
)

// Indexed reports whether the field is addressed by a transcript index.
func (f Field) Indexed() bool {
	return f == FieldAction || f == FieldResult
}

// Story is the mutable aggregate for one adventure: the fixed context, the
// rolling memory text and the transcript of action/result pairs. Exactly one
// Story is live per session. Actions and results always have equal length;
// AppendTurn is the only way to grow the transcript, so a submitted action
// that fails to generate never enters the aggregate.
type Story struct {
	mu      sync.RWMutex
	name    string
	context string
	memory  string
	actions []string
	results []string
}

// New creates an empty story with the given name and context.
func New(name, context string) *Story {
	return &Story{name: name, context: context}
}

func (s *Story) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Story) Context() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.context
}

func (s *Story) Memory() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memory
}

// Turns returns the number of completed action/result pairs.
func (s *Story) Turns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.actions)
}

// StoryLen returns the length of the interleaved transcript.
func (s *Story) StoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return 2 * min(len(s.actions), len(s.results))
}

// Interleaved returns the actions and results in chronological order, not
// including the context: action 0, result 0, action 1, result 1, ...
func (s *Story) Interleaved() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interleavedLocked()
}

func (s *Story) interleavedLocked() []string {
	n := min(len(s.actions), len(s.results))
	out := make([]string, 0, 2*n)
	for i := 0; i < n; i++ {
		out = append(out, s.actions[i], s.results[i])
	}
	return out
}

// FullTranscript returns the interleaved transcript preceded by the context,
// when the context is non-empty.
func (s *Story) FullTranscript() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.interleavedLocked()
	if s.context == "" {
		return entries
	}
	return append([]string{s.context}, entries...)
}

// WindowedPrompt returns the prompt view over the half-open interleaved range
// [start, end): context (when non-empty), then memory, then the windowed
// entries. start and end are clamped into [0, story length]; an inverted
// range yields an empty window.
func (s *Story) WindowedPrompt(start, end int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.interleavedLocked()
	start = clamp(start, 0, len(entries))
	end = clamp(end, 0, len(entries))
	if start > end {
		start = end
	}

	out := make([]string, 0, end-start+2)
	if s.context != "" {
		out = append(out, s.context)
	}
	out = append(out, s.memory)
	out = append(out, entries[start:end]...)
	return out
}

// AppendTurn records one completed turn. This is the only operation that
// grows the transcript.
func (s *Story) AppendTurn(action, result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	s.results = append(s.results, result)
}

// SetField overwrites a single editable field. index is ignored for context
// and memory; for actions and results it addresses the respective sequence
// and must be in range.
func (s *Story) SetField(field Field, index int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch field {
	case FieldContext:
		s.context = value
	case FieldMemory:
		s.memory = value
	case FieldAction:
		if index < 0 || index >= len(s.actions) {
			return fmt.Errorf("%w: action %d of %d", ErrFieldOutOfRange, index, len(s.actions))
		}
		s.actions[index] = value
	case FieldResult:
		if index < 0 || index >= len(s.results) {
			return fmt.Errorf("%w: result %d of %d", ErrFieldOutOfRange, index, len(s.results))
		}
		s.results[index] = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// FieldValue reads a single editable field, for pre-filling an edit buffer.
func (s *Story) FieldValue(field Field, index int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch field {
	case FieldContext:
		return s.context, nil
	case FieldMemory:
		return s.memory, nil
	case FieldAction:
		if index < 0 || index >= len(s.actions) {
			return "", fmt.Errorf("%w: action %d of %d", ErrFieldOutOfRange, index, len(s.actions))
		}
		return s.actions[index], nil
	case FieldResult:
		if index < 0 || index >= len(s.results) {
			return "", fmt.Errorf("%w: result %d of %d", ErrFieldOutOfRange, index, len(s.results))
		}
		return s.results[index], nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// Snapshot copies the story into its persisted form.
func (s *Story) Snapshot() *interfaces.SaveRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &interfaces.SaveRecord{
		Name:    s.name,
		Context: s.context,
		Memory:  s.memory,
		Actions: append([]string(nil), s.actions...),
		Results: append([]string(nil), s.results...),
	}
}

// Restore replaces every field of the story with the record's values. This is
// a full replace, not a merge.
func (s *Story) Restore(rec *interfaces.SaveRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = rec.Name
	s.context = rec.Context
	s.memory = rec.Memory
	s.actions = append([]string(nil), rec.Actions...)
	s.results = append([]string(nil), rec.Results...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
