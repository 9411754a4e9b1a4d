package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the document QA engine.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Answer    AnswerConfig    `yaml:"answer"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Server    ServerConfig    `yaml:"server"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StorageConfig selects where and how artifacts are persisted.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	Backend string `yaml:"backend"` // "json" or "bolt"
}

// ChunkingConfig holds the window geometry, in runes.
type ChunkingConfig struct {
	Window  int `yaml:"window"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "hash", "openai", "ollama"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
}

// AnswerConfig selects the answer provider for the QA endpoint.
type AnswerConfig struct {
	Provider  string `yaml:"provider"` // "stub" or "openai"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

// RetrieveConfig holds retrieval parameters.
type RetrieveConfig struct {
	TopK       int `yaml:"top_k"`
	SnippetMax int `yaml:"snippet_max"`
}

// ServerConfig holds the HTTP server address.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig holds drop-directory watch parameters.
type WatchConfig struct {
	Extensions []string `yaml:"extensions"`
	DebounceMS int      `yaml:"debounce_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir: "./data",
			Backend: "json",
		},
		Chunking: ChunkingConfig{
			Window:  500,
			Overlap: 50,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 256,
		},
		Answer: AnswerConfig{
			Provider:  "stub",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Retrieve: RetrieveConfig{
			TopK:       3,
			SnippetMax: 2000,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Watch: WatchConfig{
			Extensions: []string{".txt", ".md"},
			DebounceMS: 400,
		},
		Logging: LoggingConfig{
			Debug: false,
		},
	}
}

// Load loads configuration from a YAML file, over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir looks for docqa.yaml in dir, falling back to defaults.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	return DefaultConfig(), nil
}

// DocsDir is where raw document text is stored.
func (c *Config) DocsDir() string {
	return filepath.Join(c.Storage.DataDir, "docs")
}

// VectorsPath is the JSON vector artifact location.
func (c *Config) VectorsPath() string {
	return filepath.Join(c.Storage.DataDir, "embeddings.json")
}

// IndexPath is the JSON document index artifact location.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Storage.DataDir, "index.json")
}

// BoltPath is the bbolt database location used by the bolt backend.
func (c *Config) BoltPath() string {
	return filepath.Join(c.Storage.DataDir, "index.db")
}
