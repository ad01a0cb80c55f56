package batch

import (
	"context"

	"github.com/oakrise/docstamp/internal/delivery"
	"github.com/oakrise/docstamp/internal/docstore"
	"github.com/oakrise/docstamp/internal/mapping"
	"github.com/oakrise/docstamp/internal/record"
)

// Compositor produces one filled document from template bytes and a record.
type Compositor interface {
	Compose(templateBytes []byte, rec record.Record, set *mapping.MappingSet) ([]byte, error)
}

// DocumentStore persists generated documents. The orchestrator only writes;
// template retrieval happens before a run starts.
type DocumentStore interface {
	Persist(ctx context.Context, folderID, filename string, data []byte) (docstore.FileRef, error)
}

// Deliverer transmits one generated document to a recipient.
type Deliverer interface {
	Deliver(ctx context.Context, msg delivery.Message) error
}
