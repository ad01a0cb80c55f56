// Package configstore persists named mapping configurations. The store is
// an injected dependency with explicit CRUD operations; there is no hidden
// process-wide state.
package configstore

import (
	"context"
	"errors"
	"time"

	"github.com/oakrise/docstamp/internal/mapping"
)

// ErrNotFound signals that no configuration exists under the given name.
var ErrNotFound = errors.New("mapping configuration not found")

// Summary is one row of a configuration listing.
type Summary struct {
	Name         string    `json:"name"`
	LastModified time.Time `json:"lastModified"`
	FieldCount   int       `json:"fieldCount"`
}

// Store is CRUD over named mapping configurations. Identity is the set's
// name; Save is an upsert with whole-configuration last-write-wins, and
// Delete of an absent name is a no-op. Implementations must tolerate
// concurrent independent callers.
type Store interface {
	Save(ctx context.Context, set *mapping.MappingSet) error
	Load(ctx context.Context, name string) (*mapping.MappingSet, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, name string) error
}
