package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	Cleanup    CleanupConfig
	Processing ProcessingDefaults
	Limits     Limits
	Log        LogConfig
}

type ServerConfig struct {
	Host               string
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	AllowedOrigins     []string
	RateLimitPerMinute int
	GinMode            string
}

// StorageConfig selects where session records and workspaces live
type StorageConfig struct {
	Backend       string // file or redis
	Root          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

type DatabaseConfig struct {
	Path string
}

type CleanupConfig struct {
	TTL time.Duration
}

// ProcessingDefaults are the worker count and the option values used when a request omits them
type ProcessingDefaults struct {
	Workers      int
	MaxSize      int
	Quality      int
	Progressive  bool
	PreserveExif bool
	SortBy       string
	SortOrder    string
	AutoRotate   bool
	KeepOriginal bool
	OutputFormat string
}

// Limits are the request ceilings the capacity planner and transport enforce
type Limits struct {
	MaxFileSizeMB       int64
	MaxFileUploads      int
	PostMaxSizeMB       int64
	UploadMaxFilesizeMB int64
	MaxInputVars        int
	MaxExecutionTime    time.Duration
	MemoryLimitMB       int64
}

type LogConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Debug      bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "20m")
	v.SetDefault("server.write_timeout", "20m")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_minute", 60)
	v.SetDefault("server.gin_mode", "release")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.root", filepath.Join(os.TempDir(), "photobatch"))
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.cache_ttl", "10m")

	v.SetDefault("database.path", "")

	v.SetDefault("cleanup.ttl", "30m")

	v.SetDefault("processing.workers", 0)
	v.SetDefault("processing.max_size", 800)
	v.SetDefault("processing.quality", 85)
	v.SetDefault("processing.progressive", true)
	v.SetDefault("processing.preserve_exif", true)
	v.SetDefault("processing.sort_by", "exif_date")
	v.SetDefault("processing.sort_order", "asc")
	v.SetDefault("processing.auto_rotate", true)
	v.SetDefault("processing.keep_original", false)
	v.SetDefault("processing.output_format", "original")

	v.SetDefault("limits.max_file_size_mb", 50)
	v.SetDefault("limits.max_file_uploads", 350)
	v.SetDefault("limits.post_max_size_mb", 8000)
	v.SetDefault("limits.upload_max_filesize_mb", 100)
	v.SetDefault("limits.max_input_vars", 8000)
	v.SetDefault("limits.max_execution_time", "20m")
	v.SetDefault("limits.memory_limit_mb", 4096)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "photobatch.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.debug", false)
}

// Load reads configuration from defaults, an optional YAML file and PHOTOBATCH_* environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PHOTOBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Port:               v.GetString("server.port"),
			ReadTimeout:        v.GetDuration("server.read_timeout"),
			WriteTimeout:       v.GetDuration("server.write_timeout"),
			AllowedOrigins:     v.GetStringSlice("server.allowed_origins"),
			RateLimitPerMinute: v.GetInt("server.rate_limit_per_minute"),
			GinMode:            v.GetString("server.gin_mode"),
		},
		Storage: StorageConfig{
			Backend:       strings.ToLower(v.GetString("storage.backend")),
			Root:          v.GetString("storage.root"),
			RedisAddr:     v.GetString("storage.redis_addr"),
			RedisPassword: v.GetString("storage.redis_password"),
			RedisDB:       v.GetInt("storage.redis_db"),
			CacheTTL:      v.GetDuration("storage.cache_ttl"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("database.path"),
		},
		Cleanup: CleanupConfig{
			TTL: v.GetDuration("cleanup.ttl"),
		},
		Processing: ProcessingDefaults{
			Workers:      v.GetInt("processing.workers"),
			MaxSize:      v.GetInt("processing.max_size"),
			Quality:      v.GetInt("processing.quality"),
			Progressive:  v.GetBool("processing.progressive"),
			PreserveExif: v.GetBool("processing.preserve_exif"),
			SortBy:       v.GetString("processing.sort_by"),
			SortOrder:    v.GetString("processing.sort_order"),
			AutoRotate:   v.GetBool("processing.auto_rotate"),
			KeepOriginal: v.GetBool("processing.keep_original"),
			OutputFormat: v.GetString("processing.output_format"),
		},
		Limits: Limits{
			MaxFileSizeMB:       v.GetInt64("limits.max_file_size_mb"),
			MaxFileUploads:      v.GetInt("limits.max_file_uploads"),
			PostMaxSizeMB:       v.GetInt64("limits.post_max_size_mb"),
			UploadMaxFilesizeMB: v.GetInt64("limits.upload_max_filesize_mb"),
			MaxInputVars:        v.GetInt("limits.max_input_vars"),
			MaxExecutionTime:    v.GetDuration("limits.max_execution_time"),
			MemoryLimitMB:       v.GetInt64("limits.memory_limit_mb"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Path:       v.GetString("log.path"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
			Compress:   v.GetBool("log.compress"),
			Debug:      v.GetBool("log.debug"),
		},
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(cfg.Storage.Root, "cleanup.db")
	}
	if cfg.Cleanup.TTL <= 0 {
		cfg.Cleanup.TTL = 30 * time.Minute
	}

	return cfg, nil
}

// EnsureDirs creates the storage root
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.Storage.Root, 0755); err != nil {
		return fmt.Errorf("failed to create storage root %s: %w", c.Storage.Root, err)
	}
	if dir := filepath.Dir(c.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return nil
}

// MaxFileSizeBytes is the per-file upload ceiling
func (l Limits) MaxFileSizeBytes() int64 {
	return l.MaxFileSizeMB * 1024 * 1024
}
