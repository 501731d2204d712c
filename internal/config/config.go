package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic information about the application.
type AppInfo struct {
	Name        string `yaml:"name"`        // Application name
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Level string `yaml:"level"` // "info", "debug", "warn", "error"
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	Address string `yaml:"address"` // listen address, e.g. ":8080"
}

// UploadsConfig configures the scratch directory for uploaded documents.
type UploadsConfig struct {
	Dir string `yaml:"dir"` // staging directory, one subdirectory per chat
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "gigachat", "ollama" or "huggingface"
	Model    string `yaml:"model"`    // embedding model name
	BaseURL  string `yaml:"baseURL"`  // provider endpoint override
}

// LLMConfig selects and configures the chat model provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // "gigachat" or "ollama"
	Model    string `yaml:"model"`    // model override; empty means the session's variant is used
	BaseURL  string `yaml:"baseURL"`  // provider endpoint override
}

// SplitterConfig configures the chunker.
type SplitterConfig struct {
	ChunkSize    int `yaml:"chunkSize"`    // maximum chunk length in characters
	ChunkOverlap int `yaml:"chunkOverlap"` // overlap between consecutive chunks
}

// RetrieverConfig configures retrieval.
type RetrieverConfig struct {
	TopK int `yaml:"topK"` // number of chunks retrieved per question
}

// MilvusConfig holds the connection settings for the Milvus vector store backend.
type MilvusConfig struct {
	Address    string `yaml:"address"`    // Milvus service address
	Collection string `yaml:"collection"` // collection name used for chunk vectors
}

// VectorStoreConfig selects the vector store backend.
type VectorStoreConfig struct {
	Backend string       `yaml:"backend"` // "memory" (default) or "milvus"
	Milvus  MilvusConfig `yaml:"milvus"`
}

// RedisConfig holds the connection settings for the Redis chunk store backend.
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis server address, e.g. "localhost:6379"
	Password string `yaml:"password"` // Redis password
	DB       int    `yaml:"db"`       // Redis database number
}

// DocStoreConfig selects the chunk text store backend.
type DocStoreConfig struct {
	Backend string      `yaml:"backend"` // "memory" (default) or "redis"
	Redis   RedisConfig `yaml:"redis"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Logger      LoggerConfig      `yaml:"logger"`
	Server      ServerConfig      `yaml:"server"`
	Uploads     UploadsConfig     `yaml:"uploads"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	Splitter    SplitterConfig    `yaml:"splitter"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	VectorStore VectorStoreConfig `yaml:"vectorStore"`
	DocStore    DocStoreConfig    `yaml:"docStore"`
}

const (
	// DefaultChunkSize is the chunk length used when the config leaves it unset.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the overlap used when the config leaves it unset.
	DefaultChunkOverlap = 200
	// DefaultTopK is the retrieval depth used when the config leaves it unset.
	DefaultTopK = 4
)

// LoadConfig loads and parses the YAML configuration file at the given path.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "uploads"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "gigachat"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "gigachat"
	}
	if c.Splitter.ChunkSize <= 0 {
		c.Splitter.ChunkSize = DefaultChunkSize
	}
	if c.Splitter.ChunkOverlap <= 0 {
		c.Splitter.ChunkOverlap = DefaultChunkOverlap
	}
	if c.Retriever.TopK <= 0 {
		c.Retriever.TopK = DefaultTopK
	}
	if c.VectorStore.Backend == "" {
		c.VectorStore.Backend = "memory"
	}
	if c.DocStore.Backend == "" {
		c.DocStore.Backend = "memory"
	}
}
