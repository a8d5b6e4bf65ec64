// Package store is a keyed document store addressed by slash-separated paths,
// modelled on a realtime-database tree: every node holds one JSON value and
// can be listed by parent.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrInvalidPath is returned for empty paths or segments containing '/'
	ErrInvalidPath = errors.New("invalid store path")

	// ErrInvalidField is returned when a query field is not a plain identifier
	ErrInvalidField = errors.New("invalid query field")

	// ErrNotFound is returned by Merge when the node does not exist
	ErrNotFound = errors.New("node not found")
)

// Path addresses a node, e.g. "users/u1/collection/cards/abc"
type Path string

// Join builds a path from segments
func Join(segments ...string) Path {
	return Path(strings.Join(segments, "/"))
}

// Child returns the path of a direct child
func (p Path) Child(segment string) Path {
	if p == "" {
		return Path(segment)
	}
	return Path(string(p) + "/" + segment)
}

// Parent returns the path without its last segment
func (p Path) Parent() Path {
	i := strings.LastIndex(string(p), "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

// Key returns the last segment
func (p Path) Key() string {
	i := strings.LastIndex(string(p), "/")
	return string(p[i+1:])
}

// Segments splits the path
func (p Path) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), "/")
}

// descendantRange returns bounds that every path strictly below p falls
// between under byte-wise comparison ('0' follows '/').
func (p Path) descendantRange() (lo, hi string) {
	return string(p) + "/", string(p) + "0"
}

// Validate rejects empty paths and empty segments
func (p Path) Validate() error {
	if p == "" {
		return ErrInvalidPath
	}
	for _, seg := range p.Segments() {
		if seg == "" {
			return ErrInvalidPath
		}
	}
	return nil
}

// Snapshot is one child node returned by a listing
type Snapshot struct {
	Key   string
	Value json.RawMessage
}

// Decode unmarshals the snapshot value into dst
func (s Snapshot) Decode(dst any) error {
	return json.Unmarshal(s.Value, dst)
}

// Store is the keyed store the services talk to. Implementations return
// errors unchanged; they do not retry.
type Store interface {
	// Get decodes the node at path into dst. It reports false when the node
	// does not exist.
	Get(ctx context.Context, path Path, dst any) (bool, error)

	// Set replaces the node at path.
	Set(ctx context.Context, path Path, value any) error

	// Update shallow-merges fields into the node at path, creating it when
	// missing.
	Update(ctx context.Context, path Path, fields map[string]any) error

	// Merge shallow-merges fields into an existing node. It fails with
	// ErrNotFound, writing nothing, when the node is missing.
	Merge(ctx context.Context, path Path, fields map[string]any) error

	// Delete removes the node and everything below it. Deleting a missing
	// node is not an error.
	Delete(ctx context.Context, path Path) error

	// Push returns a new child path with a fresh, time-ordered key. Nothing
	// is written until the caller sets it.
	Push(path Path) (Path, error)

	// Children lists the direct children of path ordered by key.
	Children(ctx context.Context, path Path) ([]Snapshot, error)

	// Query lists the direct children of path whose top-level field equals
	// value, ordered by key.
	Query(ctx context.Context, path Path, field string, value any) ([]Snapshot, error)

	// Find returns every path below root whose last segment is key.
	Find(ctx context.Context, root Path, key string) ([]Path, error)
}
