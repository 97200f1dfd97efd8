package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		configFile string
		envVars    map[string]string
		validate   func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8080", cfg.Server.Port)
				assert.Equal(t, "file", cfg.Storage.Backend)
				assert.Equal(t, 30*time.Minute, cfg.Cleanup.TTL)
				assert.Equal(t, 350, cfg.Limits.MaxFileUploads)
				assert.Equal(t, int64(4096), cfg.Limits.MemoryLimitMB)
				assert.Equal(t, int64(50*1024*1024), cfg.Limits.MaxFileSizeBytes())
				assert.Equal(t, 800, cfg.Processing.MaxSize)
				assert.Equal(t, filepath.Join(cfg.Storage.Root, "cleanup.db"), cfg.Database.Path)
			},
		},
		{
			name: "file config",
			configFile: `
server:
  port: "9090"
storage:
  backend: redis
cleanup:
  ttl: 45m
processing:
  quality: 90
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9090", cfg.Server.Port)
				assert.Equal(t, "redis", cfg.Storage.Backend)
				assert.Equal(t, 45*time.Minute, cfg.Cleanup.TTL)
				assert.Equal(t, 90, cfg.Processing.Quality)
			},
		},
		{
			name: "environment override",
			envVars: map[string]string{
				"PHOTOBATCH_SERVER_PORT":             "8181",
				"PHOTOBATCH_LIMITS_MAX_FILE_UPLOADS": "20",
				"PHOTOBATCH_LOG_DEBUG":               "true",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8181", cfg.Server.Port)
				assert.Equal(t, 20, cfg.Limits.MaxFileUploads)
				assert.True(t, cfg.Log.Debug)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.configFile != "" {
				path = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.configFile), 0644))
			}
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load(path)
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
