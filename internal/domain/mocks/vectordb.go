package mocks

import (
	"context"
	"sort"

	"github.com/ersonp/popolo-core/internal/domain/entities"
)

// VectorDB is a mock implementation of ports.VectorDB.
// Search ignores the embedding and ranks records by entity ID.
type VectorDB struct {
	Records map[string]entities.NameRecord
	Err     error

	// Call tracking
	SaveBatchCallCount int
	DeleteCallCount    int
	LastSearchKind     entities.OwnerKind
}

// NewVectorDB creates an empty mock VectorDB.
func NewVectorDB() *VectorDB {
	return &VectorDB{Records: make(map[string]entities.NameRecord)}
}

// Save stores a single record.
func (m *VectorDB) Save(ctx context.Context, record entities.NameRecord) error {
	if m.Err != nil {
		return m.Err
	}
	if m.Records == nil {
		m.Records = make(map[string]entities.NameRecord)
	}
	m.Records[record.EntityID] = record
	return nil
}

// SaveBatch stores multiple records.
func (m *VectorDB) SaveBatch(ctx context.Context, records []entities.NameRecord) error {
	m.SaveBatchCallCount++
	for _, r := range records {
		if err := m.Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the stored records of kind, best score first.
func (m *VectorDB) Search(ctx context.Context, embedding []float32, kind entities.OwnerKind, limit int) ([]entities.NameMatch, error) {
	m.LastSearchKind = kind
	if m.Err != nil {
		return nil, m.Err
	}
	var matches []entities.NameMatch
	for _, r := range m.Records {
		if kind != "" && r.Kind != kind {
			continue
		}
		matches = append(matches, entities.NameMatch{NameRecord: r})
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].EntityID < matches[j].EntityID
	})
	for i := range matches {
		matches[i].Score = 1 - float32(i)*0.1
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Delete removes a record by entity ID.
func (m *VectorDB) Delete(ctx context.Context, entityID string) error {
	m.DeleteCallCount++
	if m.Err != nil {
		return m.Err
	}
	delete(m.Records, entityID)
	return nil
}
