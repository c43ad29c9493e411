package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Adapters AdaptersConfig `mapstructure:"adapters"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Traffic  TrafficConfig  `mapstructure:"traffic"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// RelayConfig selects the sink that carries the server-bound copy.
type RelayConfig struct {
	Sink           string        `mapstructure:"sink"` // http | redis-streams
	BaseURL        string        `mapstructure:"base_url"`
	Path           string        `mapstructure:"path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	AdapterTimeout time.Duration `mapstructure:"adapter_timeout"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	Stream       string `mapstructure:"stream"`
	MaxLenApprox int64  `mapstructure:"max_len_approx"`
}

type SessionConfig struct {
	Store  string        `mapstructure:"store"` // memory | redis
	ID     string        `mapstructure:"id"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type AdaptersConfig struct {
	// Enabled platforms get a loaded SDK handle; the rest are skipped.
	Enabled []string `mapstructure:"enabled"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type TrafficConfig struct {
	SiteURL string        `mapstructure:"site_url"`
	Seed    int64         `mapstructure:"seed"`
	Count   int           `mapstructure:"count"`
	Pause   time.Duration `mapstructure:"pause"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("relay.sink", "http")
	v.SetDefault("relay.base_url", "http://localhost:8000")
	v.SetDefault("relay.path", "/api/event")
	v.SetDefault("relay.timeout", "10s")
	v.SetDefault("relay.adapter_timeout", "0s")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "xtrack:events")
	v.SetDefault("redis.max_len_approx", 0)
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.id", "")
	v.SetDefault("session.prefix", "xtrack:session")
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("adapters.enabled", []string{"meta", "tiktok", "reddit"})
	v.SetDefault("metrics.addr", "")
	v.SetDefault("traffic.site_url", "https://shop.example")
	v.SetDefault("traffic.seed", 0)
	v.SetDefault("traffic.count", 10)
	v.SetDefault("traffic.pause", "0s")
}

// Load reads configuration from configPath (or ./xtrack.yaml when empty)
// and overlays XTRACK_* environment variables, e.g. XTRACK_RELAY_BASE_URL.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("xtrack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/xtrack")
	}

	v.SetEnvPrefix("XTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in defaults without reading a file or the environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func (c *Config) Validate() error {
	switch c.Relay.Sink {
	case "http":
		if c.Relay.BaseURL == "" {
			return fmt.Errorf("config: relay.base_url is required for the http sink")
		}
	case "redis-streams":
		if c.Redis.Addr == "" || c.Redis.Stream == "" {
			return fmt.Errorf("config: redis.addr and redis.stream are required for the redis-streams sink")
		}
	default:
		return fmt.Errorf("config: unknown relay.sink %q", c.Relay.Sink)
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.ID == "" {
			return fmt.Errorf("config: session.id is required for the redis session store")
		}
	default:
		return fmt.Errorf("config: unknown session.store %q", c.Session.Store)
	}
	if c.Relay.Timeout < 0 {
		return fmt.Errorf("config: relay.timeout must be >= 0")
	}
	return nil
}
