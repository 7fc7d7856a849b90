package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "data/coursegest.db", cfg.SQLitePath)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 50, cfg.MaxQueueSize)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.Equal(t, 5, cfg.LabsMinHeaderHits)
	assert.Equal(t, 7, cfg.LabsCaptionLookback)
	assert.Equal(t, 2000, cfg.DateCenturyBase)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("POSTGRES_URL", "postgres://localhost/coursegest")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("JOB_TTL", "30m")
	t.Setenv("DATE_CENTURY_BASE", "1900")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, "postgres://localhost/coursegest", cfg.PostgresURL)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 30*time.Minute, cfg.JobTTL)
	assert.Equal(t, 1900, cfg.DateCenturyBase)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coursegest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_backend: memory\nport: \"9000\"\nlabs_min_header_hits: 4\n"), 0o644))
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 4, cfg.LabsMinHeaderHits)
	assert.Equal(t, "9100", cfg.Port, "environment wins over the file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_ClampsNonPositive(t *testing.T) {
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("MAX_QUEUE_SIZE", "-1")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 50, cfg.MaxQueueSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{StoreBackend: BackendMemory}, false},
		{"sqlite", Config{StoreBackend: BackendSQLite, SQLitePath: "x.db"}, false},
		{"sqlite without path", Config{StoreBackend: BackendSQLite}, true},
		{"postgres without url", Config{StoreBackend: BackendPostgres}, true},
		{"pathstore without key", Config{StoreBackend: BackendPathstore, PathstoreURL: "http://x"}, true},
		{"pathstore", Config{StoreBackend: BackendPathstore, PathstoreURL: "http://x", PathstoreAPIKey: "k"}, false},
		{"unknown", Config{StoreBackend: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateServer_RequiresAPIKey(t *testing.T) {
	cfg := Config{StoreBackend: BackendMemory}
	assert.Error(t, cfg.ValidateServer())
	cfg.APIKey = "secret"
	assert.NoError(t, cfg.ValidateServer())
}
