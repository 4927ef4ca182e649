package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"inklore/server/internal/interfaces"
)

var (
	// ErrRecordNotFound is returned when no save record exists for a key.
	ErrRecordNotFound = errors.New("save record not found")
	// ErrRecordMalformed is returned when a stored record cannot be decoded
	// or is missing a required field.
	ErrRecordMalformed = errors.New("save record malformed")
)

var (
	reSpaceRun   = regexp.MustCompile(`\s+`)
	reUnsafeChar = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// recordKeys are the fields every save record must carry. There is no
// versioning; a record missing any of them is malformed.
var recordKeys = []string{"name", "context", "memory", "actions", "results"}

// SaveName derives a save key from an adventure name: surrounding whitespace
// is stripped, inner whitespace runs become single underscores, and every
// remaining character outside [a-zA-Z0-9_-] is dropped. Idempotent.
func SaveName(name string) string {
	name = reSpaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	return reUnsafeChar.ReplaceAllString(name, "")
}

// encodeRecord serializes a save record to its stored JSON form.
func encodeRecord(rec *interfaces.SaveRecord) ([]byte, error) {
	out := *rec
	if out.Actions == nil {
		out.Actions = []string{}
	}
	if out.Results == nil {
		out.Results = []string{}
	}
	return json.MarshalIndent(&out, "", "    ")
}

// decodeRecord parses a stored record, requiring every record key to be
// present.
func decodeRecord(data []byte) (*interfaces.SaveRecord, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordMalformed, err)
	}
	for _, k := range recordKeys {
		if _, ok := raw[k]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrRecordMalformed, k)
		}
	}

	var rec interfaces.SaveRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordMalformed, err)
	}
	return &rec, nil
}
