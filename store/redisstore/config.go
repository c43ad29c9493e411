package redisstore

import (
	"fmt"
	"time"
)

// Config for the Redis session store.
type Config struct {
	// Connection
	Addr     string
	Username string
	Password string
	DB       int

	// Keys are <Prefix>:<Session>:<key>.
	Prefix  string
	Session string
	// TTL bounds how long captured identifiers survive (0 = no expiry).
	TTL time.Duration
}

// Defaults returns a Config with local defaults.
func Defaults() Config {
	return Config{
		Addr:   "127.0.0.1:6379",
		Prefix: "xtrack:session",
		TTL:    30 * time.Minute,
	}
}

// Validate checks Config.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr required")
	}
	if c.Prefix == "" {
		return fmt.Errorf("config: prefix required")
	}
	if c.Session == "" {
		return fmt.Errorf("config: session required")
	}
	if c.TTL < 0 {
		return fmt.Errorf("config: ttl must be >= 0, got %v", c.TTL)
	}
	return nil
}

// ConfigFromMap converts a generic map to Config, starting from Defaults.
func ConfigFromMap(m map[string]any) Config {
	c := Defaults()

	if v, ok := m["addr"].(string); ok && v != "" {
		c.Addr = v
	}
	if v, ok := m["username"].(string); ok {
		c.Username = v
	}
	if v, ok := m["password"].(string); ok {
		c.Password = v
	}
	if v, ok := m["db"].(int); ok {
		c.DB = v
	}
	if v, ok := m["prefix"].(string); ok && v != "" {
		c.Prefix = v
	}
	if v, ok := m["session"].(string); ok {
		c.Session = v
	}
	switch v := m["ttl"].(type) {
	case time.Duration:
		c.TTL = v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			c.TTL = d
		}
	}

	return c
}
