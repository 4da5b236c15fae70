// Package config loads the tracker's YAML configuration.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Feed     FeedConfig     `yaml:"feed"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Storage  StorageConfig  `yaml:"storage"`
}

// FeedConfig holds the live feed subscription settings.
type FeedConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ScheduleConfig holds the schedule source settings. Empty URLs fall back
// to the public SIROS site.
type ScheduleConfig struct {
	CacheDir      string `yaml:"cache_dir"`
	RegistersURL  string `yaml:"registers_url"`
	CodesharesURL string `yaml:"codeshares_url"`
}

// TrackerConfig holds the engine's timing settings.
type TrackerConfig struct {
	StaleMinutes         int           `yaml:"stale_minutes"`
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	StaleAfter           time.Duration `yaml:"-"` // Ignored by YAML parser
	SweepInterval        time.Duration `yaml:"-"`
}

// StorageConfig holds the optional persistence settings.
type StorageConfig struct {
	SQLitePath string           `yaml:"sqlite_path"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`
}

// ClickHouseConfig holds the sighting archive connection settings.
type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// PostgresConfig holds the track history connection settings.
type PostgresConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Feed.URL == "" {
		cfg.Feed.URL = "nats://localhost:4222"
	}
	if cfg.Feed.Subject == "" {
		cfg.Feed.Subject = "atc.tracks"
	}
	if cfg.Schedule.CacheDir == "" {
		cfg.Schedule.CacheDir = "./registros"
	}
	if cfg.Tracker.StaleMinutes <= 0 {
		cfg.Tracker.StaleMinutes = 20
	}
	if cfg.Tracker.SweepIntervalSeconds <= 0 {
		cfg.Tracker.SweepIntervalSeconds = 60
	}
	cfg.Tracker.StaleAfter = time.Duration(cfg.Tracker.StaleMinutes) * time.Minute
	cfg.Tracker.SweepInterval = time.Duration(cfg.Tracker.SweepIntervalSeconds) * time.Second

	if cfg.Storage.ClickHouse.Enabled {
		applyHostDefaults(&cfg.Storage.ClickHouse.Host, &cfg.Storage.ClickHouse.Port, 9000)
		if cfg.Storage.ClickHouse.Database == "" {
			cfg.Storage.ClickHouse.Database = "siros"
		}
		if cfg.Storage.ClickHouse.User == "" {
			cfg.Storage.ClickHouse.User = "default"
		}
	}
	if cfg.Storage.Postgres.Enabled {
		applyHostDefaults(&cfg.Storage.Postgres.Host, &cfg.Storage.Postgres.Port, 5432)
		if cfg.Storage.Postgres.Database == "" {
			cfg.Storage.Postgres.Database = "siros_state"
		}
		if cfg.Storage.Postgres.User == "" {
			cfg.Storage.Postgres.User = "siros"
		}
	}
}

func applyHostDefaults(host *string, port *int, defaultPort int) {
	if *host == "" {
		*host = "localhost"
	}
	if *port <= 0 {
		*port = defaultPort
	}
}
