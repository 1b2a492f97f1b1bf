package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/services"
)

// SearchHandler handles name lookups.
type SearchHandler struct {
	searchService *services.SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searchService *services.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchResult contains the result of a search.
type SearchResult struct {
	Query    string
	Semantic bool
	Matches  []entities.NameMatch
}

// Handle searches persons and organizations by name. kind may be empty.
func (h *SearchHandler) Handle(ctx context.Context, query string, kind entities.OwnerKind, limit int) (*SearchResult, error) {
	matches, err := h.searchService.Search(ctx, query, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("searching names: %w", err)
	}

	return &SearchResult{
		Query:    query,
		Semantic: h.searchService.Enabled(),
		Matches:  matches,
	}, nil
}

// HandleReindex rebuilds the name index.
func (h *SearchHandler) HandleReindex(ctx context.Context) (int, error) {
	return h.searchService.IndexAll(ctx)
}

// AuditHandler reads the audit log.
type AuditHandler struct {
	relationalDB ports.RelationalDB
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(relationalDB ports.RelationalDB) *AuditHandler {
	return &AuditHandler{relationalDB: relationalDB}
}

// Handle returns the entries of one subject, or the latest entries of an
// action when subjectID is empty.
func (h *AuditHandler) Handle(ctx context.Context, subjectID, action string, limit int) ([]entities.AuditEntry, error) {
	if subjectID != "" {
		entries, err := h.relationalDB.FindAuditLog(ctx, subjectID)
		if err != nil {
			return nil, fmt.Errorf("reading audit log: %w", err)
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		return entries, nil
	}

	entries, err := h.relationalDB.FindAuditLogByAction(ctx, action, limit)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	return entries, nil
}
