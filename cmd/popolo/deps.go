package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ersonp/popolo-core/internal/application/handlers"
	"github.com/ersonp/popolo-core/internal/domain/ports"
	"github.com/ersonp/popolo-core/internal/domain/services"
	"github.com/ersonp/popolo-core/internal/infrastructure/config"
	embedder "github.com/ersonp/popolo-core/internal/infrastructure/embedder/openai"
	"github.com/ersonp/popolo-core/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/popolo-core/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config   *config.Config
	Logger   logrus.FieldLogger
	Entities *handlers.EntityHandler
	Facts    *handlers.FactsHandler
	Import   *handlers.ImportHandler
	Export   *handlers.ExportHandler
	Search   *handlers.SearchHandler
	Audit    *handlers.AuditHandler
}

// internalDeps holds all dependencies including low-level components.
type internalDeps struct {
	Deps
	basePath     string
	relationalDB *sqlite.Repository
	index        *nameIndex
}

// nameIndex is the optional vector side of a dataset.
type nameIndex struct {
	repo     *qdrant.Repository
	embedder *embedder.Embedder
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps opens the selected dataset and wires its handlers.
func withInternalDeps(fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	datasets, err := config.LoadDatasets(cwd)
	if err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}

	if globalDataset == "" {
		return errors.New("dataset is required (use --dataset flag)")
	}

	collection, err := datasets.GetCollection(globalDataset)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log, globalVerbose)
	if err != nil {
		return err
	}

	relationalDB, err := openRelationalDB(context.Background(), cwd, cfg, globalDataset)
	if err != nil {
		return err
	}
	defer relationalDB.Close()

	index, err := openNameIndex(cfg, collection)
	if err != nil {
		return err
	}
	if index != nil {
		defer index.repo.Close()
	}

	var search *services.SearchService
	if index != nil {
		search = services.NewSearchService(relationalDB, index.embedder, index.repo, logger)
	} else {
		search = services.NewSearchService(relationalDB, nil, nil, logger)
	}

	deps := &internalDeps{
		Deps: Deps{
			Config:   cfg,
			Logger:   logger,
			Entities: handlers.NewEntityHandler(services.NewEntityService(relationalDB), indexing(search), logger),
			Facts:    handlers.NewFactsHandler(relationalDB, indexing(search), logger),
			Import:   handlers.NewImportHandler(services.NewImportService(relationalDB, indexing(search), logger)),
			Export:   handlers.NewExportHandler(services.NewExportService(relationalDB)),
			Search:   handlers.NewSearchHandler(search),
			Audit:    handlers.NewAuditHandler(relationalDB),
		},
		basePath:     cwd,
		relationalDB: relationalDB,
		index:        index,
	}

	return fn(deps)
}

// indexing returns search when it writes to a name index, nil otherwise.
func indexing(search *services.SearchService) *services.SearchService {
	if search.Enabled() {
		return search
	}
	return nil
}

// newLogger builds a logrus logger from cfg. verbose forces debug level.
func newLogger(cfg config.LogConfig, verbose bool) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q (valid: text, json)", cfg.Format)
	}

	return logger, nil
}

// openRelationalDB opens the SQLite database of a dataset and ensures its schema.
func openRelationalDB(ctx context.Context, basePath string, cfg *config.Config, dataset string) (*sqlite.Repository, error) {
	if err := os.MkdirAll(config.DatasetDir(basePath, dataset), 0755); err != nil {
		return nil, fmt.Errorf("creating dataset directory: %w", err)
	}

	sqliteCfg := cfg.SQLite
	sqliteCfg.Path = config.SQLitePathForDataset(basePath, dataset)

	relationalDB, err := sqlite.NewRepository(sqliteCfg)
	if err != nil {
		return nil, fmt.Errorf("creating sqlite repository: %w", err)
	}

	if err := relationalDB.EnsureSchema(ctx); err != nil {
		relationalDB.Close()
		return nil, fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	return relationalDB, nil
}

// openNameIndex connects the name index of a collection. It returns nil when
// no Qdrant host or no embedding key is configured.
func openNameIndex(cfg *config.Config, collection string) (*nameIndex, error) {
	if !indexConfigured(cfg) {
		return nil, nil
	}

	emb, err := embedder.NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	qdrantCfg := cfg.Qdrant
	qdrantCfg.Collection = collection

	repo, err := qdrant.NewRepository(qdrantCfg)
	if err != nil {
		return nil, fmt.Errorf("creating qdrant repository: %w", err)
	}

	return &nameIndex{repo: repo, embedder: emb}, nil
}

func indexConfigured(cfg *config.Config) bool {
	return cfg.Qdrant.Host != "" && cfg.Embedder.APIKey != ""
}

// collectionManager returns the collection side of the index, or nil.
func (i *nameIndex) collectionManager() ports.CollectionManager {
	if i == nil {
		return nil
	}
	return i.repo
}

func (i *nameIndex) dimensions() uint64 {
	if i == nil {
		return 0
	}
	return i.embedder.Dimensions()
}
