// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for popolo configuration.
	DefaultConfigDir = ".popolo"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatasetsFile is the default datasets file name.
	DefaultDatasetsFile = "datasets.yaml"
	// DefaultIDPrefix prefixes the identifier scheme of imported external ids.
	DefaultIDPrefix = "popit-"
	// envPrefix prefixes every environment override.
	envPrefix = "POPOLO"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
	Import   ImportConfig   `yaml:"import,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider   string `yaml:"provider,omitempty" envconfig:"PROVIDER"`
	Model      string `yaml:"model,omitempty" envconfig:"MODEL"`
	APIKey     string `yaml:"api_key,omitempty" envconfig:"API_KEY"`
	Dimensions uint64 `yaml:"dimensions,omitempty" envconfig:"DIMENSIONS"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
// An empty Host disables the name index.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty" envconfig:"HOST"`
	Port       int    `yaml:"port,omitempty" envconfig:"PORT"`
	Collection string `yaml:"collection,omitempty" envconfig:"COLLECTION"`
	APIKey     string `yaml:"api_key,omitempty" envconfig:"API_KEY"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	// For per-dataset databases, this is computed dynamically using SQLitePathForDataset.
	Path string `yaml:"path,omitempty" envconfig:"PATH"`
	// BusyTimeout is how long a writer waits on a locked database, in milliseconds.
	BusyTimeout int `yaml:"busy_timeout,omitempty" envconfig:"BUSY_TIMEOUT"`
}

// BusyTimeoutMS returns the busy timeout, defaulting to five seconds.
func (c SQLiteConfig) BusyTimeoutMS() int {
	if c.BusyTimeout <= 0 {
		return 5000
	}
	return c.BusyTimeout
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" envconfig:"LEVEL"`
	Format string `yaml:"format,omitempty" envconfig:"FORMAT"`
}

// ImportConfig controls Popolo JSON imports.
type ImportConfig struct {
	IDPrefix string `yaml:"id_prefix,omitempty" envconfig:"ID_PREFIX"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Embedder: EmbedderConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		SQLite: SQLiteConfig{
			BusyTimeout: 5000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Import: ImportConfig{
			IDPrefix: DefaultIDPrefix,
		},
	}
}

// Load loads configuration from the .popolo directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'popolo init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies POPOLO_<SECTION>_<FIELD> overrides, then the
// provider key fallbacks for keys still empty.
func (c *Config) applyEnvOverrides() error {
	sections := []struct {
		name   string
		target any
	}{
		{"SQLITE", &c.SQLite},
		{"QDRANT", &c.Qdrant},
		{"EMBEDDER", &c.Embedder},
		{"LOG", &c.Log},
		{"IMPORT", &c.Import},
	}
	for _, s := range sections {
		if err := envconfig.Process(envPrefix+"_"+s.name, s.target); err != nil {
			return fmt.Errorf("reading %s_%s environment: %w", envPrefix, s.name, err)
		}
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Embedder.APIKey == "" {
		c.Embedder.APIKey = key
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" && c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = key
	}
	return nil
}

// ConfigDir returns the path to the .popolo config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// DatasetsFilePath returns the path to the datasets file.
func DatasetsFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultDatasetsFile)
}

// SanitizeDatasetName converts a dataset name to a valid collection suffix.
func SanitizeDatasetName(name string) string {
	name = strings.ToLower(name)

	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	name = reNonAlphanumeric.ReplaceAllString(name, "")
	name = reMultipleUnderscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// GenerateCollectionName creates a name-index collection name for a dataset.
func GenerateCollectionName(dataset string) string {
	return "popolo_" + SanitizeDatasetName(dataset)
}

// SQLitePathForDataset returns the SQLite database path for a given dataset.
func SQLitePathForDataset(basePath, dataset string) string {
	return filepath.Join(DatasetDir(basePath, dataset), "popolo.db")
}

// DatasetDir returns the directory path for a given dataset.
func DatasetDir(basePath, dataset string) string {
	return filepath.Join(basePath, DefaultConfigDir, "datasets", SanitizeDatasetName(dataset))
}
