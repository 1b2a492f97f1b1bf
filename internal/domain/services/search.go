package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
)

// DefaultSearchLimit is the default number of results to return.
const DefaultSearchLimit = 10

const indexPageSize = 100

// SearchService finds persons and organizations by name. With an embedder
// and a vector index it ranks names semantically; without them it falls back
// to substring matching in the relational store.
type SearchService struct {
	relationalDB ports.RelationalDB
	embedder     ports.Embedder
	vectorDB     ports.VectorDB
	logger       logrus.FieldLogger
}

// NewSearchService creates a new search service. embedder and vectorDB may be
// nil to disable the vector index.
func NewSearchService(relationalDB ports.RelationalDB, embedder ports.Embedder, vectorDB ports.VectorDB, logger logrus.FieldLogger) *SearchService {
	return &SearchService{
		relationalDB: relationalDB,
		embedder:     embedder,
		vectorDB:     vectorDB,
		logger:       orDiscard(logger),
	}
}

// Enabled reports whether the vector index is configured.
func (s *SearchService) Enabled() bool {
	return s.embedder != nil && s.vectorDB != nil
}

// Search returns the entities of kind whose names best match query.
// An empty kind searches persons and organizations.
func (s *SearchService) Search(ctx context.Context, query string, kind entities.OwnerKind, limit int) ([]entities.NameMatch, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if kind != "" && kind != entities.OwnerPerson && kind != entities.OwnerOrganization {
		return nil, &entities.ValidationError{Field: "kind", Message: fmt.Sprintf("cannot search %s names", kind)}
	}

	if !s.Enabled() {
		return s.searchStore(ctx, query, kind, limit)
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	matches, err := s.vectorDB.Search(ctx, embedding, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("searching names: %w", err)
	}

	return matches, nil
}

func (s *SearchService) searchStore(ctx context.Context, query string, kind entities.OwnerKind, limit int) ([]entities.NameMatch, error) {
	var matches []entities.NameMatch

	if kind == "" || kind == entities.OwnerPerson {
		persons, err := s.relationalDB.SearchPersons(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("searching persons: %w", err)
		}
		for _, p := range persons {
			matches = append(matches, entities.NameMatch{
				NameRecord: entities.NameRecord{EntityID: p.ID, Kind: entities.OwnerPerson, Name: p.Name},
				Score:      1,
			})
		}
	}

	if kind == "" || kind == entities.OwnerOrganization {
		orgs, err := s.relationalDB.SearchOrganizations(ctx, query, limit)
		if err != nil {
			return nil, fmt.Errorf("searching organizations: %w", err)
		}
		for _, o := range orgs {
			matches = append(matches, entities.NameMatch{
				NameRecord: entities.NameRecord{EntityID: o.ID, Kind: entities.OwnerOrganization, Name: o.Name},
				Score:      1,
			})
		}
	}

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Index embeds and stores the names of the given persons and organizations.
// It does nothing when the vector index is disabled.
func (s *SearchService) Index(ctx context.Context, refs ...entities.OwnerRef) error {
	if !s.Enabled() || len(refs) == 0 {
		return nil
	}

	records := make([]entities.NameRecord, 0, len(refs))
	for _, ref := range refs {
		rec, ok, err := s.nameRecord(ctx, ref)
		if err != nil {
			return err
		}
		if ok {
			records = append(records, rec)
		}
	}
	return s.save(ctx, records)
}

// IndexAll rebuilds the index from every stored person and organization and
// returns the number of records written.
func (s *SearchService) IndexAll(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, fmt.Errorf("vector index is not configured")
	}

	total := 0
	for offset := 0; ; offset += indexPageSize {
		persons, err := s.relationalDB.ListPersons(ctx, indexPageSize, offset)
		if err != nil {
			return total, fmt.Errorf("listing persons: %w", err)
		}
		refs := make([]entities.OwnerRef, len(persons))
		for i, p := range persons {
			refs[i] = entities.OwnerRef{Kind: entities.OwnerPerson, ID: p.ID}
		}
		if err := s.Index(ctx, refs...); err != nil {
			return total, err
		}
		total += len(refs)
		if len(persons) < indexPageSize {
			break
		}
	}

	for offset := 0; ; offset += indexPageSize {
		orgs, err := s.relationalDB.ListOrganizations(ctx, indexPageSize, offset)
		if err != nil {
			return total, fmt.Errorf("listing organizations: %w", err)
		}
		refs := make([]entities.OwnerRef, len(orgs))
		for i, o := range orgs {
			refs[i] = entities.OwnerRef{Kind: entities.OwnerOrganization, ID: o.ID}
		}
		if err := s.Index(ctx, refs...); err != nil {
			return total, err
		}
		total += len(refs)
		if len(orgs) < indexPageSize {
			break
		}
	}

	s.logger.WithField("records", total).Info("name index rebuilt")
	return total, nil
}

// Remove drops an entity from the index.
func (s *SearchService) Remove(ctx context.Context, entityID string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.vectorDB.Delete(ctx, entityID); err != nil {
		return fmt.Errorf("removing %s from index: %w", entityID, err)
	}
	return nil
}

func (s *SearchService) nameRecord(ctx context.Context, ref entities.OwnerRef) (entities.NameRecord, bool, error) {
	rec := entities.NameRecord{EntityID: ref.ID, Kind: ref.Kind}

	switch ref.Kind {
	case entities.OwnerPerson:
		p, err := s.relationalDB.FindPersonByID(ctx, ref.ID)
		if err != nil {
			return rec, false, fmt.Errorf("finding person: %w", err)
		}
		if p == nil {
			return rec, false, nil
		}
		rec.Name = p.Name
	case entities.OwnerOrganization:
		o, err := s.relationalDB.FindOrganizationByID(ctx, ref.ID)
		if err != nil {
			return rec, false, fmt.Errorf("finding organization: %w", err)
		}
		if o == nil {
			return rec, false, nil
		}
		rec.Name = o.Name
	default:
		return rec, false, nil
	}

	names, err := s.relationalDB.ListOtherNames(ctx, ref)
	if err != nil {
		return rec, false, fmt.Errorf("listing other names: %w", err)
	}
	for _, n := range names {
		rec.OtherNames = append(rec.OtherNames, n.Name)
	}
	return rec, true, nil
}

func (s *SearchService) save(ctx context.Context, records []entities.NameRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i := range records {
		texts[i] = records[i].SearchText()
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("generating embeddings: %w", err)
	}
	if len(embeddings) != len(records) {
		return fmt.Errorf("generating embeddings: got %d vectors for %d names", len(embeddings), len(records))
	}

	for i := range records {
		records[i].Embedding = embeddings[i]
	}

	if err := s.vectorDB.SaveBatch(ctx, records); err != nil {
		return fmt.Errorf("saving name records: %w", err)
	}
	return nil
}
