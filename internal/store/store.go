package store

import (
	"encoding/json"
	"errors"
	"strings"
)

// Store is the hierarchical realtime key-value tree the discussion engine
// runs on. Paths are slash-separated; values are JSON-shaped (maps, slices,
// strings, float64 numbers, bools). A nil value in Update deletes the target.
type Store interface {
	// Get returns the value at path, or nil when the path is absent.
	Get(path string) (any, error)
	// Set writes value at path, replacing whatever subtree was there.
	Set(path string, value any) error
	// Update applies several writes as one batch; nil values delete.
	Update(values map[string]any) error
	// Remove deletes the node at path and everything under it.
	Remove(path string) error
	// Push appends a child under path with a generated key that sorts
	// after every previously generated key.
	Push(path string, value any) (string, error)
	// Increment atomically adds delta to the numeric leaf at path,
	// treating an absent leaf as 0.
	Increment(path string, delta int64) error
	// Query returns the current children of path, ordered and filtered.
	Query(path string, q Query) ([]Child, error)
	// Subscribe opens a continuous subscription under path. Every change
	// below path delivers the full current child set; the caller must
	// replace, never patch, its local view.
	Subscribe(path string, q Query) *Subscription
}

// Query controls ordering and filtering of child reads.
type Query struct {
	// OrderBy names the child field to order by; empty means key order.
	OrderBy string
	// EqualTo, when non-nil, keeps only children whose OrderBy field
	// equals it.
	EqualTo any
	// LimitToLast keeps only the last N children in query order; 0 means
	// no limit.
	LimitToLast int
}

// Child is one key/value pair of a queried path.
type Child struct {
	Key   string
	Value any
}

var ErrBadPath = errors.New("store: empty or malformed path")

func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, ErrBadPath
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return nil, ErrBadPath
		}
	}
	return parts, nil
}

// normalize round-trips v through JSON so the tree only ever holds
// map[string]any / []any / string / float64 / bool leaves, no matter what
// struct the caller handed in.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode copies a tree value into a typed destination.
func Decode(v any, dest any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
