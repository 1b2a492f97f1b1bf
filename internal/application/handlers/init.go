// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/infrastructure/config"
)

// InitHandler prepares a dataset: the relational schema and, when the name
// index is configured, its vector collection.
type InitHandler struct {
	relationalDB      ports.RelationalDB
	collectionManager ports.CollectionManager
	vectorSize        uint64
}

// NewInitHandler creates a new init handler. collectionManager may be nil.
func NewInitHandler(relationalDB ports.RelationalDB, collectionManager ports.CollectionManager, vectorSize uint64) *InitHandler {
	return &InitHandler{
		relationalDB:      relationalDB,
		collectionManager: collectionManager,
		vectorSize:        vectorSize,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath string
	Indexed    bool
}

// WriteConfig writes the default configuration into basePath.
func WriteConfig(basePath string) (string, error) {
	if config.Exists(basePath) {
		return "", fmt.Errorf("popolo already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}

	return config.ConfigFilePath(basePath), nil
}

// Handle creates the schema and the name-index collection of a dataset.
func (h *InitHandler) Handle(ctx context.Context) (*InitResult, error) {
	if err := h.relationalDB.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	result := &InitResult{}
	if h.collectionManager != nil {
		if err := h.collectionManager.EnsureCollection(ctx, h.vectorSize); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		result.Indexed = true
	}

	return result, nil
}
