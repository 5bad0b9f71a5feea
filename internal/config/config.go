package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"optionsgateway/internal/provider/cache"
	"optionsgateway/internal/provider/eodhd"
	"optionsgateway/internal/provider/massive"
	"optionsgateway/internal/provider/theta"
)

type Server struct {
	Port              string `mapstructure:"port"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
}

// MarketData holds the raw selectors. They are validated by their owners
// (mode.Parse and strategy.ParseSelection).
type MarketData struct {
	Mode            string `mapstructure:"mode"`
	OptionsProvider string `mapstructure:"options_provider"`
	QuotesProvider  string `mapstructure:"quotes_provider"`
	// VerboseLogs logs every successful upstream call at debug level.
	VerboseLogs     bool   `mapstructure:"verbose_logs"`
}

type Theta struct {
	BaseURL string `mapstructure:"base_url"`
	MaxRPM  int    `mapstructure:"max_rpm"`
	Burst   int    `mapstructure:"burst"`
}

type Massive struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	MaxRPM  int    `mapstructure:"max_rpm"`
	Burst   int    `mapstructure:"burst"`
}

type EODHD struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	MaxRPM  int    `mapstructure:"max_rpm"`
	Burst   int    `mapstructure:"burst"`
}

type Cache struct {
	TTLSec   int `mapstructure:"ttl_sec"`
	SweepSec int `mapstructure:"sweep_sec"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type Config struct {
	Server     Server     `mapstructure:"server"`
	MarketData MarketData `mapstructure:"market_data"`
	Theta      Theta      `mapstructure:"theta"`
	Massive    Massive    `mapstructure:"massive"`
	EODHD      EODHD      `mapstructure:"eodhd"`
	Cache      Cache      `mapstructure:"cache"`
	Log        Log        `mapstructure:"log"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Theta:  Theta{BaseURL: theta.DefaultBaseURL},
		Massive: Massive{
			BaseURL: massive.DefaultBaseURL,
			MaxRPM:  300,
			Burst:   10,
		},
		EODHD: EODHD{
			BaseURL: eodhd.DefaultBaseURL,
			MaxRPM:  60,
			Burst:   5,
		},
		Cache: Cache{
			TTLSec:   int(cache.DefaultTTL.Seconds()),
			SweepSec: int(cache.DefaultSweep.Seconds()),
		},
		Log: Log{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			File:       "logs/optionsgateway.log",
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// env maps environment variables onto config keys. Empty variables are
// ignored.
var env = map[string]string{
	"server.port":                  "PORT",
	"server.request_timeout_sec":   "REQUEST_TIMEOUT_SEC",
	"market_data.mode":             "DATA_MODE",
	"market_data.options_provider": "MARKET_DATA_PROVIDER",
	"market_data.quotes_provider":  "QUOTE_DATA_PROVIDER",
	"market_data.verbose_logs":     "THETA_DATA_VERBOSE_LOGS",
	"theta.base_url":               "THETA_API_URL",
	"theta.max_rpm":                "THETA_MAX_RPM",
	"theta.burst":                  "THETA_BURST",
	"massive.base_url":             "MASSIVE_API_URL",
	"massive.api_key":              "MASSIVE_API_KEY",
	"massive.max_rpm":              "MASSIVE_MAX_RPM",
	"massive.burst":                "MASSIVE_BURST",
	"eodhd.base_url":               "EODHD_API_URL",
	"eodhd.api_key":                "EODHD_API_KEY",
	"eodhd.max_rpm":                "EODHD_MAX_RPM",
	"eodhd.burst":                  "EODHD_BURST",
	"cache.ttl_sec":                "CACHE_TTL_SEC",
	"log.level":                    "LOG_LEVEL",
	"log.format":                   "LOG_FORMAT",
	"log.output":                   "LOG_OUTPUT",
	"log.file":                     "LOG_FILE",
}

// Load reads config from path (JSON, TOML or YAML by extension). If path
// is empty, config.json is used when present. A missing file yields
// defaults. Environment variables override both.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the numeric settings.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.RequestTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("server.request_timeout_sec must be positive, got %d", c.Server.RequestTimeoutSec))
	}
	for name, v := range map[string]int{
		"theta.max_rpm":   c.Theta.MaxRPM,
		"massive.max_rpm": c.Massive.MaxRPM,
		"eodhd.max_rpm":   c.EODHD.MaxRPM,
		"cache.ttl_sec":   c.Cache.TTLSec,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, v))
		}
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.request_timeout_sec", d.Server.RequestTimeoutSec)
	v.SetDefault("market_data.mode", d.MarketData.Mode)
	v.SetDefault("market_data.options_provider", d.MarketData.OptionsProvider)
	v.SetDefault("market_data.quotes_provider", d.MarketData.QuotesProvider)
	v.SetDefault("market_data.verbose_logs", d.MarketData.VerboseLogs)
	v.SetDefault("theta.base_url", d.Theta.BaseURL)
	v.SetDefault("theta.max_rpm", d.Theta.MaxRPM)
	v.SetDefault("theta.burst", d.Theta.Burst)
	v.SetDefault("massive.base_url", d.Massive.BaseURL)
	v.SetDefault("massive.api_key", d.Massive.APIKey)
	v.SetDefault("massive.max_rpm", d.Massive.MaxRPM)
	v.SetDefault("massive.burst", d.Massive.Burst)
	v.SetDefault("eodhd.base_url", d.EODHD.BaseURL)
	v.SetDefault("eodhd.api_key", d.EODHD.APIKey)
	v.SetDefault("eodhd.max_rpm", d.EODHD.MaxRPM)
	v.SetDefault("eodhd.burst", d.EODHD.Burst)
	v.SetDefault("cache.ttl_sec", d.Cache.TTLSec)
	v.SetDefault("cache.sweep_sec", d.Cache.SweepSec)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)
}
