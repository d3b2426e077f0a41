// Package config loads pofeed settings with precedence flags > env > file > defaults.
package config

import (
	"strings"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	paging "github.com/nrfta/feed-paging"
	"github.com/nrfta/feed-paging/internal/logger"
	"github.com/nrfta/feed-paging/trigger"
)

// EnvPrefix prefixes every environment variable, e.g. POFEED_API_BASE_URL.
const EnvPrefix = "POFEED"

// Config is the fully resolved configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Feed    FeedConfig    `mapstructure:"feed"`
	View    ViewConfig    `mapstructure:"view"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type FeedConfig struct {
	PageSize        int           `mapstructure:"page_size"`
	CacheCapacity   int           `mapstructure:"cache_capacity"`
	ScrollThreshold float64       `mapstructure:"scroll_threshold"`
	ScrollThrottle  time.Duration `mapstructure:"scroll_throttle"`
}

type ViewConfig struct {
	// Rows is the number of list rows visible at once in browse mode.
	Rows int `mapstructure:"rows"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	// Endpoint is the OTLP gRPC collector address. Empty disables tracing.
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint. Empty disables it.
	Addr string `mapstructure:"addr"`
}

var defaults = map[string]any{
	"api.base_url":          "http://localhost:8000",
	"api.timeout":           10 * time.Second,
	"feed.page_size":        paging.DefaultPageSize,
	"feed.cache_capacity":   paging.DefaultCacheCapacity,
	"feed.scroll_threshold": trigger.DefaultThreshold,
	"feed.scroll_throttle":  50 * time.Millisecond,
	"view.rows":             15,
	"log.level":             string(logger.InfoLevel),
	"log.format":            string(logger.TextFormat),
	"tracing.endpoint":      "",
	"tracing.service_name":  "pofeed",
	"metrics.addr":          "",
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"api-url":       "api.base_url",
	"timeout":       "api.timeout",
	"page-size":     "feed.page_size",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"otlp-endpoint": "tracing.endpoint",
	"metrics-addr":  "metrics.addr",
}

// RegisterFlags adds the persistent flags every command accepts.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, json or toml)")
	fs.String("api-url", "", "base URL of the purchase-order API")
	fs.Duration("timeout", 0, "per-request timeout")
	fs.Int("page-size", 0, "orders requested per page (max 100)")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "text or json")
	fs.String("otlp-endpoint", "", "OTLP gRPC collector address")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
}

// Loader resolves a Config from defaults, an optional file, the environment
// and bound flags.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a loader. configFile may be empty.
func NewLoader(configFile string) *Loader {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, configFile: configFile}
}

// BindFlags binds the flags registered by RegisterFlags. Only flags that were
// set on the command line override other sources.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}

// Load reads the file, if any, and returns the validated configuration.
func (l *Loader) Load() (*Config, error) {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", l.configFile)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// Settings returns every resolved key, for the config command.
func (l *Loader) Settings() map[string]any {
	return l.v.AllSettings()
}

// Validate checks values that cannot be silently defaulted.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout < 0 {
		return errors.Errorf("api.timeout must not be negative, got %s", c.API.Timeout)
	}
	if c.Feed.PageSize <= 0 {
		return errors.Errorf("feed.page_size must be positive, got %d", c.Feed.PageSize)
	}
	if err := c.Paging().Validate(); err != nil {
		return err
	}
	if c.Feed.CacheCapacity <= 0 {
		return errors.Errorf("feed.cache_capacity must be positive, got %d", c.Feed.CacheCapacity)
	}
	if c.View.Rows <= 0 {
		return errors.Errorf("view.rows must be positive, got %d", c.View.Rows)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	return nil
}

// Paging returns the pagination settings.
func (c *Config) Paging() *paging.Config {
	return &paging.Config{
		PageSize:      c.Feed.PageSize,
		CacheCapacity: c.Feed.CacheCapacity,
	}
}

// Logger returns the logger settings. Validate has already checked them.
func (c *Config) Logger() logger.Config {
	level, _ := logger.ParseLevel(c.Log.Level)
	format, _ := logger.ParseFormat(c.Log.Format)
	return logger.Config{Level: level, Format: format}
}
