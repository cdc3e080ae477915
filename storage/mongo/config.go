package mongo

import (
	"fmt"
	"time"
)

// Config is the configuration for dialing a Store.
type Config struct {
	ConnectionURI     string `mapstructure:"connection_uri" json:"connection_uri"`
	Database          string `mapstructure:"database" json:"database"`
	Collection        string `mapstructure:"collection" json:"collection"`
	ConnectionTimeout string `mapstructure:"connection_timeout" json:"connection_timeout"`
	PingTimeout       string `mapstructure:"ping_timeout" json:"ping_timeout"`
}

// DefaultConfig returns a Config for a local mongod.
func DefaultConfig() Config {
	return Config{
		ConnectionURI:     "mongodb://localhost:27017",
		Database:          "easydoc",
		Collection:        "documents",
		ConnectionTimeout: "5s",
		PingTimeout:       "5s",
	}
}

// Validate returns an error if the provided Config is invalid.
func (c *Config) Validate() error {
	if c.ConnectionURI == "" {
		return fmt.Errorf("mongo connection uri is empty")
	}
	if c.Database == "" || c.Collection == "" {
		return fmt.Errorf("mongo database and collection are required")
	}
	if _, err := time.ParseDuration(c.ConnectionTimeout); err != nil {
		return fmt.Errorf("invalid mongo connection timeout %q: %w", c.ConnectionTimeout, err)
	}
	if _, err := time.ParseDuration(c.PingTimeout); err != nil {
		return fmt.Errorf("invalid mongo ping timeout %q: %w", c.PingTimeout, err)
	}
	return nil
}

func (c *Config) connectionTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ConnectionTimeout)
	return d
}

func (c *Config) pingTimeout() time.Duration {
	d, _ := time.ParseDuration(c.PingTimeout)
	return d
}
