package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"

	"github.com/dmoraru/personas/internal/model"
)

type Config struct {
	Port          int    `json:"port"`
	DBDSN         string `json:"db_dsn"`
	DataDir       string `json:"data_dir"`
	JWTSecret     string `json:"jwt_secret"`
	JWTTTLHours   int    `json:"jwt_ttl_hours"`
	AdminPassword string `json:"admin_password_hash"`
	// APIKey protects the query surface. Empty disables the check.
	APIKey          string           `json:"api_key"`
	CORSAllowlist   []string         `json:"cors_allowlist"`
	MaxUploadBytes  int64            `json:"max_upload_bytes"`
	RateLimitSecond int              `json:"rate_limit_window_seconds"`
	LogConfig       logger.LogConfig `json:"log_config"`
	FileStore       FileStoreConfig  `json:"file_store"`
	AI              AIConfig         `json:"ai"`
	Retrieval       RetrievalConfig  `json:"retrieval"`
	Worker          WorkerConfig     `json:"worker"`
	Jobs            JobsConfig       `json:"jobs"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	// Mirror is an optional secondary store (typically s3) that receives an
	// archive copy of every accepted upload.
	Mirror *FileStoreConfig `json:"mirror,omitempty"`
}

type AIProviderEntry struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Args     interface{} `json:"args"`
}

type AIConfig struct {
	Synthesis      []AIProviderEntry `json:"synthesis"`
	Embedding      []AIProviderEntry `json:"embedding"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	AnswerCacheTTL int               `json:"answer_cache_ttl_minutes"`
}

// CollectionDefaults is the process-wide chunking/retrieval policy for one
// collection type. Personas may override any field.
type CollectionDefaults struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
	TopK         int `json:"top_k"`
}

type RetrievalConfig struct {
	Works   CollectionDefaults `json:"works"`
	Quotes  CollectionDefaults `json:"quotes"`
	Profile CollectionDefaults `json:"profile"`
}

func (r RetrievalConfig) For(t model.CollectionType) CollectionDefaults {
	switch t {
	case model.CollectionQuotes:
		return r.Quotes
	case model.CollectionProfile:
		return r.Profile
	default:
		return r.Works
	}
}

type WorkerConfig struct {
	PoolSize         int `json:"pool_size"`
	SoftLimitMinutes int `json:"soft_limit_minutes"`
	HardLimitMinutes int `json:"hard_limit_minutes"`
}

type JobsConfig struct {
	StaleJobSweepSpec    string `json:"stale_job_sweep_spec"`
	EmbedCacheCleanSpec  string `json:"embed_cache_clean_spec"`
	EmbedCacheMaxAgeDays int    `json:"embed_cache_max_age_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("db_dsn is required")
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("admin_password_hash is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if len(cfg.AI.Embedding) == 0 {
		return nil, fmt.Errorf("ai.embedding requires at least one provider entry")
	}
	if len(cfg.AI.Synthesis) == 0 {
		return nil, fmt.Errorf("ai.synthesis requires at least one provider entry")
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 12
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
		cfg.FileStore.Data = map[string]interface{}{"dir": cfg.DataDir}
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.RateLimitSecond == 0 {
		cfg.RateLimitSecond = 1
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 120
	}
	if cfg.AI.AnswerCacheTTL == 0 {
		cfg.AI.AnswerCacheTTL = 120
	}
	fillCollection(&cfg.Retrieval.Works, CollectionDefaults{ChunkSize: 1024, ChunkOverlap: 128, TopK: 8})
	fillCollection(&cfg.Retrieval.Quotes, CollectionDefaults{ChunkSize: 512, ChunkOverlap: 64, TopK: 10})
	fillCollection(&cfg.Retrieval.Profile, CollectionDefaults{ChunkSize: 2048, ChunkOverlap: 256, TopK: 5})
	if cfg.Worker.PoolSize == 0 {
		cfg.Worker.PoolSize = 4
	}
	if cfg.Worker.SoftLimitMinutes == 0 {
		cfg.Worker.SoftLimitMinutes = 115
	}
	if cfg.Worker.HardLimitMinutes == 0 {
		cfg.Worker.HardLimitMinutes = 120
	}
	if cfg.Jobs.StaleJobSweepSpec == "" {
		cfg.Jobs.StaleJobSweepSpec = "*/10 * * * *"
	}
	if cfg.Jobs.EmbedCacheCleanSpec == "" {
		cfg.Jobs.EmbedCacheCleanSpec = "30 3 * * *"
	}
	if cfg.Jobs.EmbedCacheMaxAgeDays == 0 {
		cfg.Jobs.EmbedCacheMaxAgeDays = 30
	}
}

func fillCollection(dst *CollectionDefaults, def CollectionDefaults) {
	if dst.ChunkSize == 0 {
		dst.ChunkSize = def.ChunkSize
	}
	if dst.ChunkOverlap == 0 {
		dst.ChunkOverlap = def.ChunkOverlap
	}
	if dst.TopK == 0 {
		dst.TopK = def.TopK
	}
}
