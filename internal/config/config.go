package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers accepted by storage.driver.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// S3Config locates the save object in an S3-compatible bucket.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// StorageConfig selects and configures the save store.
type StorageConfig struct {
	Driver      string   `yaml:"driver"`
	Key         string   `yaml:"key"`
	FilePath    string   `yaml:"file_path"`
	SQLitePath  string   `yaml:"sqlite_path"`
	PostgresDSN string   `yaml:"postgres_dsn"`
	S3          S3Config `yaml:"s3"`
}

// Config holds all application configuration.
type Config struct {
	Game struct {
		TickInterval     time.Duration `yaml:"tick_interval"`
		AutosaveInterval time.Duration `yaml:"autosave_interval"`
		OfflineCap       time.Duration `yaml:"offline_cap"`
		OfflineMinGap    time.Duration `yaml:"offline_min_gap"`
		StartingGrant    *float64      `yaml:"starting_grant"`
		CatalogPath      string        `yaml:"catalog_path"`
	} `yaml:"game"`
	Storage  StorageConfig `yaml:"storage"`
	Recorder struct {
		SQLitePath   string `yaml:"sqlite_path"`
		SnapshotCron string `yaml:"snapshot_cron"`
		SaveCron     string `yaml:"save_cron"`
	} `yaml:"recorder"`
	API struct {
		Addr      string  `yaml:"addr"`
		RateLimit float64 `yaml:"rate_limit"`
		Burst     int     `yaml:"burst"`
	} `yaml:"api"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Grant returns the configured starting grant.
func (c *Config) Grant() float64 {
	if c.Game.StartingGrant == nil {
		return 5
	}
	return *c.Game.StartingGrant
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.API.Addr = ":8080"

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TYCOON_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("TYCOON_SAVE_PATH"); v != "" {
		cfg.Storage.FilePath = v
	}
	if v := os.Getenv("TYCOON_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("TYCOON_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("TYCOON_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("TYCOON_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("TYCOON_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("TYCOON_HISTORY_PATH"); v != "" {
		cfg.Recorder.SQLitePath = v
	}
	if v, ok := os.LookupEnv("TYCOON_API_ADDR"); ok {
		cfg.API.Addr = v
	}
	if v := os.Getenv("TYCOON_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TYCOON_STARTING_GRANT"); v != "" {
		var grant float64
		if _, err := fmt.Sscanf(v, "%f", &grant); err == nil {
			cfg.Game.StartingGrant = &grant
		}
	}

	// Defaults
	if cfg.Game.TickInterval == 0 {
		cfg.Game.TickInterval = 50 * time.Millisecond
	}
	if cfg.Game.AutosaveInterval == 0 {
		cfg.Game.AutosaveInterval = 10 * time.Second
	}
	if cfg.Game.OfflineCap == 0 {
		cfg.Game.OfflineCap = 24 * time.Hour
	}
	if cfg.Game.OfflineMinGap == 0 {
		cfg.Game.OfflineMinGap = time.Second
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverFile
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = "tycoon/save.json"
	}
	if cfg.Storage.FilePath == "" {
		cfg.Storage.FilePath = "data/save.json"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/tycoon.db"
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.Recorder.SnapshotCron == "" {
		cfg.Recorder.SnapshotCron = "0 */5 * * * *"
	}
	if cfg.Recorder.SaveCron == "" {
		cfg.Recorder.SaveCron = "0 0 * * * *"
	}
	if cfg.API.RateLimit == 0 {
		cfg.API.RateLimit = 5
	}
	if cfg.API.Burst == 0 {
		cfg.API.Burst = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("game.tick_interval must be positive")
	}
	if c.Game.AutosaveInterval <= 0 {
		return fmt.Errorf("game.autosave_interval must be positive")
	}
	if c.Game.OfflineCap <= 0 {
		return fmt.Errorf("game.offline_cap must be positive")
	}
	if c.Game.OfflineMinGap < 0 {
		return fmt.Errorf("game.offline_min_gap must not be negative")
	}
	if c.Grant() < 0 {
		return fmt.Errorf("game.starting_grant must not be negative")
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverFile, DriverSQLite:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	case DriverS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.API.Addr != "" {
		if c.API.RateLimit <= 0 {
			return fmt.Errorf("api.rate_limit must be positive")
		}
		if c.API.Burst <= 0 {
			return fmt.Errorf("api.burst must be positive")
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}
