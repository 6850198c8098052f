// Package config loads the application configuration from a YAML file with
// environment variable overrides for deployment-specific values.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig configures the durable document catalog and conversation
// store.
type StorageConfig struct {
	Path                   string `yaml:"path"`
	DocumentCollection     string `yaml:"document_collection"`
	ConversationCollection string `yaml:"conversation_collection"`
}

// EmbeddedConfig contains settings for the embedded vector store variant.
type EmbeddedConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
}

// QdrantConfig contains connection details for the networked vector store
// variant.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Embedded *EmbeddedConfig `yaml:"embedded,omitempty"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
}

// AIConfig configures the OpenAI-compatible model endpoints.
type AIConfig struct {
	EmbeddingHost   string `yaml:"embedding_host"`
	GenerationHost  string `yaml:"generation_host"`
	EmbeddingModel  string `yaml:"embedding_model"`
	GenerationModel string `yaml:"generation_model"`
}

// ChunkingConfig configures how extracted pages are split.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig configures context retrieval for question answering.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server       ServerConfig      `yaml:"server"`
	DocumentsDir string            `yaml:"documents_dir"`
	Storage      StorageConfig     `yaml:"storage"`
	VectorStore  VectorStoreConfig `yaml:"vector_store"`
	AI           AIConfig          `yaml:"ai"`
	Chunking     ChunkingConfig    `yaml:"chunking"`
	Retrieval    RetrievalConfig   `yaml:"retrieval"`
}

// Vector store variants.
const (
	VectorStoreEmbedded = "embedded"
	VectorStoreQdrant   = "qdrant"
)

// Load reads a config from the specified path. If the file does not exist,
// returns defaults. Environment overrides are applied either way.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyConfigDefaults(cfg)
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the application cannot start with.
func (cfg *AppConfig) Validate() error {
	switch cfg.VectorStore.Type {
	case VectorStoreEmbedded:
	case VectorStoreQdrant:
		if cfg.VectorStore.Qdrant == nil || cfg.VectorStore.Qdrant.URL == "" {
			return fmt.Errorf("vector_store.qdrant.url is required for the qdrant variant")
		}
	default:
		return fmt.Errorf("unknown vector store type %q", cfg.VectorStore.Type)
	}
	if cfg.Chunking.Overlap >= cfg.Chunking.Size {
		return fmt.Errorf("chunking overlap %d must be smaller than size %d", cfg.Chunking.Overlap, cfg.Chunking.Size)
	}
	return nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server:       ServerConfig{Addr: ":8000"},
		DocumentsDir: "data/documents",
		Storage: StorageConfig{
			Path:                   "data/storage",
			DocumentCollection:     "documents",
			ConversationCollection: "conversations",
		},
		VectorStore: VectorStoreConfig{
			Type:     VectorStoreEmbedded,
			Embedded: &EmbeddedConfig{Path: "data/index", Collection: "chunks"},
		},
		AI: AIConfig{
			EmbeddingHost:   "http://localhost:11434",
			GenerationHost:  "http://localhost:11434",
			EmbeddingModel:  "nomic-embed-text",
			GenerationModel: "llama3.2",
		},
		Chunking:  ChunkingConfig{Size: 1000, Overlap: 200},
		Retrieval: RetrievalConfig{TopK: 4},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.DocumentsDir == "" {
		cfg.DocumentsDir = "data/documents"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/storage"
	}
	if cfg.Storage.DocumentCollection == "" {
		cfg.Storage.DocumentCollection = "documents"
	}
	if cfg.Storage.ConversationCollection == "" {
		cfg.Storage.ConversationCollection = "conversations"
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = VectorStoreEmbedded
	}
	if cfg.VectorStore.Type == VectorStoreEmbedded {
		if cfg.VectorStore.Embedded == nil {
			cfg.VectorStore.Embedded = &EmbeddedConfig{}
		}
		if cfg.VectorStore.Embedded.Path == "" {
			cfg.VectorStore.Embedded.Path = "data/index"
		}
		if cfg.VectorStore.Embedded.Collection == "" {
			cfg.VectorStore.Embedded.Collection = "chunks"
		}
	}
	if cfg.VectorStore.Type == VectorStoreQdrant && cfg.VectorStore.Qdrant != nil {
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "chunks"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = "http://localhost:11434"
	}
	if cfg.AI.GenerationHost == "" {
		cfg.AI.GenerationHost = cfg.AI.EmbeddingHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.AI.GenerationModel == "" {
		cfg.AI.GenerationModel = "llama3.2"
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 1000
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 200
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
}

// applyEnvOverrides lets deployments override endpoints and data locations
// without editing the config file. Typically paired with a .env file loaded
// by the CLI.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("RAG_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RAG_DOCUMENTS_DIR"); v != "" {
		cfg.DocumentsDir = v
	}
	if v := os.Getenv("RAG_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("RAG_AI_HOST"); v != "" {
		cfg.AI.EmbeddingHost = v
		cfg.AI.GenerationHost = v
	}
	if v := os.Getenv("RAG_EMBEDDING_MODEL"); v != "" {
		cfg.AI.EmbeddingModel = v
	}
	if v := os.Getenv("RAG_GENERATION_MODEL"); v != "" {
		cfg.AI.GenerationModel = v
	}
	if v := os.Getenv("RAG_QDRANT_URL"); v != "" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		cfg.VectorStore.Type = VectorStoreQdrant
		cfg.VectorStore.Qdrant.URL = v
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "chunks"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if v := os.Getenv("RAG_QDRANT_API_KEY"); v != "" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		cfg.VectorStore.Qdrant.APIKey = v
	}
}
