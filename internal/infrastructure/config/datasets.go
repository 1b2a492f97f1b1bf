package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DatasetsConfig holds the dataset definitions (read/write). Each dataset has
// its own SQLite database and name-index collection.
type DatasetsConfig struct {
	Datasets map[string]DatasetEntry `yaml:"datasets,omitempty"`
}

// DatasetEntry holds configuration for a specific dataset.
type DatasetEntry struct {
	Collection  string `yaml:"collection"`
	Description string `yaml:"description,omitempty"`
}

// LoadDatasets loads dataset configuration from the .popolo directory.
func LoadDatasets(basePath string) (*DatasetsConfig, error) {
	data, err := os.ReadFile(DatasetsFilePath(basePath))
	if os.IsNotExist(err) {
		return &DatasetsConfig{
			Datasets: make(map[string]DatasetEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading datasets file: %w", err)
	}

	var cfg DatasetsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing datasets file: %w", err)
	}

	if cfg.Datasets == nil {
		cfg.Datasets = make(map[string]DatasetEntry)
	}

	return &cfg, nil
}

// Save writes the datasets configuration to the datasets file.
func (d *DatasetsConfig) Save(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling datasets config: %w", err)
	}

	if err := os.WriteFile(DatasetsFilePath(basePath), data, 0600); err != nil {
		return fmt.Errorf("writing datasets file: %w", err)
	}

	return nil
}

// Add adds a dataset to the configuration.
func (d *DatasetsConfig) Add(name string, entry DatasetEntry) {
	if d.Datasets == nil {
		d.Datasets = make(map[string]DatasetEntry)
	}
	d.Datasets[name] = entry
}

// Remove removes a dataset from the configuration.
func (d *DatasetsConfig) Remove(name string) {
	delete(d.Datasets, name)
}

// Names returns the dataset names in sorted order.
func (d *DatasetsConfig) Names() []string {
	names := make([]string, 0, len(d.Datasets))
	for name := range d.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the configuration for a specific dataset.
func (d *DatasetsConfig) Get(name string) (*DatasetEntry, error) {
	if len(d.Datasets) == 0 {
		return nil, errors.New("no datasets configured")
	}

	entry, ok := d.Datasets[name]
	if !ok {
		names := d.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, fmt.Errorf("dataset %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	return &entry, nil
}

// GetCollection returns the Qdrant collection name for a dataset.
func (d *DatasetsConfig) GetCollection(name string) (string, error) {
	entry, err := d.Get(name)
	if err != nil {
		return "", err
	}
	return entry.Collection, nil
}

// Exists checks if a dataset exists in the configuration.
func (d *DatasetsConfig) Exists(name string) bool {
	_, ok := d.Datasets[name]
	return ok
}
