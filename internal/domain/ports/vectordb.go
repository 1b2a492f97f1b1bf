package ports

import (
	"context"

	"github.com/ersonp/popolo-core/internal/domain/entities"
)

// VectorDB defines the interface for the name index.
type VectorDB interface {
	// Save stores a name record with its embedding.
	Save(ctx context.Context, record entities.NameRecord) error

	// SaveBatch stores multiple name records.
	SaveBatch(ctx context.Context, records []entities.NameRecord) error

	// Search returns the records closest to embedding. An empty kind searches every kind.
	Search(ctx context.Context, embedding []float32, kind entities.OwnerKind, limit int) ([]entities.NameMatch, error)

	// Delete removes the record of an entity.
	Delete(ctx context.Context, entityID string) error
}
