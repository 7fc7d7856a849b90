package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendPathstore = "pathstore"
)

type Config struct {
	Port string

	// Auth for the HTTP API
	APIKey string

	// Document store
	StoreBackend    string
	SQLitePath      string
	PostgresURL     string
	PathstoreURL    string
	PathstoreAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Extraction tuning
	LabsMinHeaderHits   int
	LabsCaptionLookback int
	DateCenturyBase     int
}

var defaults = map[string]any{
	"port":                  "8090",
	"store_backend":         BackendSQLite,
	"sqlite_path":           "data/coursegest.db",
	"pathstore_url":         "http://localhost:8080",
	"worker_count":          2,
	"max_queue_size":        50,
	"max_upload_bytes":      int64(20 << 20), // 20MB
	"job_ttl":               time.Hour,
	"labs_min_header_hits":  5,
	"labs_caption_lookback": 7,
	"date_century_base":     2000,
}

// Load reads configuration from defaults, the optional YAML file at
// configFile and the environment, in increasing precedence. Environment
// keys are the upper-cased config keys, e.g. STORE_BACKEND.
func Load(configFile string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		Port: v.GetString("port"),

		APIKey: v.GetString("api_key"),

		StoreBackend:    strings.ToLower(v.GetString("store_backend")),
		SQLitePath:      v.GetString("sqlite_path"),
		PostgresURL:     v.GetString("postgres_url"),
		PathstoreURL:    v.GetString("pathstore_url"),
		PathstoreAPIKey: v.GetString("pathstore_api_key"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),

		MaxUploadBytes: v.GetInt64("max_upload_bytes"),

		JobTTL: v.GetDuration("job_ttl"),

		LabsMinHeaderHits:   v.GetInt("labs_min_header_hits"),
		LabsCaptionLookback: v.GetInt("labs_caption_lookback"),
		DateCenturyBase:     v.GetInt("date_century_base"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.LabsMinHeaderHits <= 0 {
		cfg.LabsMinHeaderHits = 5
	}
	if cfg.LabsCaptionLookback <= 0 {
		cfg.LabsCaptionLookback = 7
	}

	return cfg, nil
}

// Validate checks the settings the selected store backend needs.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the postgres backend")
		}
	case BackendPathstore:
		if c.PathstoreURL == "" {
			return fmt.Errorf("PATHSTORE_URL is required for the pathstore backend")
		}
		if c.PathstoreAPIKey == "" {
			return fmt.Errorf("PATHSTORE_API_KEY is required for the pathstore backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// ValidateServer additionally requires the API key the HTTP server checks.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}
	return nil
}
