package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/smssensor"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Scan     ScanConfig
	Match    MatchConfig
	Triage   TriageConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ScanConfig tunes the extraction run.
type ScanConfig struct {
	Workers           int
	LookbackDays      int  `mapstructure:"lookback_days"`
	AllTime           bool `mapstructure:"all_time"`
	OverlapHours      int  `mapstructure:"overlap_hours"`
	ReportEvery       int  `mapstructure:"report_every"`
	MonitorIntervalMs int  `mapstructure:"monitor_interval_ms"`
}

// MatchConfig tunes subscription matching.
type MatchConfig struct {
	AmountTolerance float64 `mapstructure:"amount_tolerance"`
}

// TriageConfig tunes handling of financial-looking messages no parser claimed.
type TriageConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level   string
	Console bool
}

// Load reads configuration from file and env. Env var overrides use prefix SMSSENSOR_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "smssensor", "smssensor.db"))
	v.SetDefault("scan.workers", 4)
	v.SetDefault("scan.lookback_days", 90)
	v.SetDefault("scan.all_time", false)
	v.SetDefault("scan.overlap_hours", 72)
	v.SetDefault("scan.report_every", 10)
	v.SetDefault("scan.monitor_interval_ms", 50)
	v.SetDefault("match.amount_tolerance", 0.05)
	v.SetDefault("triage.retention_days", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("SMSSENSOR_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "smssensor"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SMSSENSOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// CoordinatorOptions maps the scan and triage settings onto the
// coordinator's option set.
func (c Config) CoordinatorOptions() smssensor.CoordinatorOptions {
	return smssensor.CoordinatorOptions{
		Workers:         c.Scan.Workers,
		LookbackDays:    c.Scan.LookbackDays,
		ScanAllTime:     c.Scan.AllTime,
		Overlap:         time.Duration(c.Scan.OverlapHours) * time.Hour,
		ReportEvery:     int64(c.Scan.ReportEvery),
		MonitorInterval: time.Duration(c.Scan.MonitorIntervalMs) * time.Millisecond,
		TriageRetention: time.Duration(c.Triage.RetentionDays) * 24 * time.Hour,
	}
}
