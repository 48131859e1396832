// Package config wraps viper with nil-safe typed accessors and the
// application defaults. A single Config is built at process start and
// passed by reference into every component.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config provides read access to application configuration.
type Config struct {
	v *viper.Viper
}

// New wraps an existing viper instance. A nil viper yields a Config that
// returns zero values for every key.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Load builds the application configuration. path may be empty, in which
// case only defaults and AUTOCONF_* environment variables apply. A missing
// config file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("inventory.path", "devices.yaml")
	v.SetDefault("probe.mode", "system")
	v.SetDefault("probe.count", 4)
	v.SetDefault("probe.timeout", "10s")
	v.SetDefault("transport.dial_timeout", "10s")
	v.SetDefault("transport.command_timeout", "30s")
	v.SetDefault("backup.dir", "backups_routers")
	v.SetDefault("audit.path", "autoconf_audit.db")
	v.SetDefault("auth.users.admin.password", "admin123")
	v.SetDefault("auth.users.admin.role", "admin")
	v.SetDefault("auth.users.user.password", "user123")
	v.SetDefault("auth.users.user.role", "user")

	v.SetEnvPrefix("AUTOCONF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config %q: %w", path, err)
			}
		}
	}

	return New(v), nil
}

// GetString returns the string value for key.
func (c *Config) GetString(key string) string {
	if c == nil || c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// GetInt returns the int value for key.
func (c *Config) GetInt(key string) int {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetInt(key)
}

// GetBool returns the bool value for key.
func (c *Config) GetBool(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.GetBool(key)
}

// GetDuration returns the duration value for key.
func (c *Config) GetDuration(key string) time.Duration {
	if c == nil || c.v == nil {
		return 0
	}
	return c.v.GetDuration(key)
}

// GetStringMap returns the map value for key.
func (c *Config) GetStringMap(key string) map[string]any {
	if c == nil || c.v == nil {
		return nil
	}
	return c.v.GetStringMap(key)
}

// IsSet reports whether key has a value.
func (c *Config) IsSet(key string) bool {
	if c == nil || c.v == nil {
		return false
	}
	return c.v.IsSet(key)
}

// Sub returns the configuration subtree under key. Never returns nil.
func (c *Config) Sub(key string) *Config {
	if c == nil || c.v == nil {
		return New(nil)
	}
	sub := c.v.Sub(key)
	if sub == nil {
		return New(nil)
	}
	return New(sub)
}

// Unmarshal decodes the configuration into target using mapstructure tags.
func (c *Config) Unmarshal(target any) error {
	if c == nil || c.v == nil {
		return nil
	}
	return c.v.Unmarshal(target)
}
