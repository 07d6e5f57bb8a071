// Package conf loads and validates kpiwatch runtime settings.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseSettings selects the persistence backend.
type DatabaseSettings struct {
	// Driver is "sqlite" or "mysql".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// MonitorSettings tunes the scheduling and execution engine.
type MonitorSettings struct {
	// TickInterval is how often the scheduler scans for due indicators.
	TickInterval Duration `mapstructure:"tick_interval"`
	// Workers bounds concurrent indicator runs so the collector backend
	// is not overwhelmed.
	Workers int `mapstructure:"workers"`
	// CollectorTimeout bounds a single metric collection call.
	CollectorTimeout Duration `mapstructure:"collector_timeout"`
	// DashboardCacheTTL is how long a computed dashboard snapshot is reused.
	DashboardCacheTTL Duration `mapstructure:"dashboard_cache_ttl"`
	// HistoryRetentionDays controls execution record cleanup. 0 disables it.
	HistoryRetentionDays int `mapstructure:"history_retention_days"`
}

// Settings is the full kpiwatch configuration.
type Settings struct {
	LogLevel string           `mapstructure:"log_level"`
	Database DatabaseSettings `mapstructure:"database"`
	Monitor  MonitorSettings  `mapstructure:"monitor"`
}

// Defaults applied when the config file omits a key.
const (
	DefaultTickInterval     = time.Minute
	DefaultWorkers          = 8
	DefaultCollectorTimeout = 30 * time.Second
	DefaultDashboardTTL     = 15 * time.Second
	DefaultRetentionDays    = 90
)

// Load reads settings from the given YAML file, with environment variable
// overrides (KPIWATCH_ prefix, underscores for nesting). An empty path
// yields pure defaults.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "kpiwatch.db")
	v.SetDefault("monitor.tick_interval", DefaultTickInterval.String())
	v.SetDefault("monitor.workers", DefaultWorkers)
	v.SetDefault("monitor.collector_timeout", DefaultCollectorTimeout.String())
	v.SetDefault("monitor.dashboard_cache_ttl", DefaultDashboardTTL.String())
	v.SetDefault("monitor.history_retention_days", DefaultRetentionDays)

	v.SetEnvPrefix("KPIWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate rejects settings the engine cannot run with.
func (s *Settings) Validate() error {
	switch s.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", s.Database.Driver)
	}
	if s.Monitor.TickInterval.Std() <= 0 {
		return errors.New("monitor.tick_interval must be positive")
	}
	if s.Monitor.Workers <= 0 {
		return errors.New("monitor.workers must be positive")
	}
	if s.Monitor.CollectorTimeout.Std() <= 0 {
		return errors.New("monitor.collector_timeout must be positive")
	}
	if s.Monitor.HistoryRetentionDays < 0 {
		return errors.New("monitor.history_retention_days must not be negative")
	}
	return nil
}
