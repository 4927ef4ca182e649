package interfaces

import "context"

// SaveRecord is the persisted form of an adventure. Every field must be
// present in a stored record; a record missing any of them is malformed.
type SaveRecord struct {
	Name    string   `json:"name"`
	Context string   `json:"context"`
	Memory  string   `json:"memory"`
	Actions []string `json:"actions"`
	Results []string `json:"results"`
}

// SaveStore persists adventure save records keyed by their sanitized name.
// Save overwrites any existing record with the same key.
type SaveStore interface {
	Save(ctx context.Context, key string, rec *SaveRecord) error
	Load(ctx context.Context, key string) (*SaveRecord, error)
	List(ctx context.Context) ([]string, error)
}
