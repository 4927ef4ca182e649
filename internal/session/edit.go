package session

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"inklore/server/internal/story"
)

// ErrMalformedSelection is returned when an edit target string cannot be
// parsed into a transcript field.
var ErrMalformedSelection = errors.New("malformed edit selection")

// selRe matches a one-letter field kind with an optional decimal index,
// e.g. "c", "m", "a4", "r12".
var selRe = regexp.MustCompile(`^([a-z])([0-9]+)?$`)

// Selection identifies one editable transcript entry.
type Selection struct {
	Field story.Field
	Index int
}

// ResolveSelection parses an edit target. "c" and "m" select the context and
// memory and take no index; "aN" and "rN" select an entry by its interleaved
// transcript position, which maps to turn N/2. The index is required for
// actions and results and rejected for context and memory.
func ResolveSelection(target string) (Selection, error) {
	m := selRe.FindStringSubmatch(target)
	if m == nil {
		return Selection{}, fmt.Errorf("%w: %q", ErrMalformedSelection, target)
	}
	kind, digits := m[1], m[2]

	switch kind {
	case "c", "m":
		if digits != "" {
			return Selection{}, fmt.Errorf("%w: %q takes no index", ErrMalformedSelection, kind)
		}
		field := story.FieldContext
		if kind == "m" {
			field = story.FieldMemory
		}
		return Selection{Field: field}, nil

	case "a", "r":
		if digits == "" {
			return Selection{}, fmt.Errorf("%w: %q needs an entry number", ErrMalformedSelection, kind)
		}
		pos, err := strconv.Atoi(digits)
		if err != nil {
			return Selection{}, fmt.Errorf("%w: %q", ErrMalformedSelection, target)
		}
		field := story.FieldAction
		if kind == "r" {
			field = story.FieldResult
		}
		// The transcript interleaves actions and results; both land on the
		// same turn index.
		return Selection{Field: field, Index: pos / 2}, nil

	default:
		return Selection{}, fmt.Errorf("%w: unknown field %q", ErrMalformedSelection, kind)
	}
}

// LoadForEdit returns the current text of the selected entry, for pre-filling
// an edit prompt.
func (s *Session) LoadForEdit(target string) (string, error) {
	st, _, err := s.current()
	if err != nil {
		return "", err
	}
	sel, err := ResolveSelection(target)
	if err != nil {
		return "", err
	}
	return st.FieldValue(sel.Field, sel.Index)
}

// ApplyEdit writes new text into the selected entry and returns the value as
// recorded. Later turns are untouched; regeneration from the edited state
// happens on the next Send.
func (s *Session) ApplyEdit(target, text string) (string, error) {
	_, orch, err := s.current()
	if err != nil {
		return "", err
	}
	sel, err := ResolveSelection(target)
	if err != nil {
		return "", err
	}
	value, err := orch.SubmitEdit(sel.Field, sel.Index, text)
	if err != nil {
		return "", err
	}
	s.notify()
	return value, nil
}
