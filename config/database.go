package config

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Supported database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// DatabaseConfig describes how to reach the relational store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=mysql sqlite3"`
	// Address is host:port for mysql; unused for sqlite3.
	Address  string `mapstructure:"address" validate:"required_if=Driver mysql"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// Database is the schema name for mysql or the file path for sqlite3.
	Database string            `mapstructure:"database" validate:"required"`
	Params   map[string]string `mapstructure:"params"`
	// PoolConfigFile points at a properties file with HikariCP-style pool keys.
	PoolConfigFile string `mapstructure:"pool_config_file"`
}

// DSN builds the driver-specific data source name.
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = c.Address
		mc.DBName = c.Database
		mc.ParseTime = true
		if len(c.Params) > 0 {
			mc.Params = make(map[string]string, len(c.Params))
			for k, v := range c.Params {
				mc.Params[k] = v
			}
		}
		return mc.FormatDSN()
	default:
		if len(c.Params) == 0 {
			return c.Database
		}
		keys := make([]string, 0, len(c.Params))
		for k := range c.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		q := url.Values{}
		for _, k := range keys {
			q.Set(k, c.Params[k])
		}
		return c.Database + "?" + q.Encode()
	}
}

// PoolConfig mirrors the HikariCP property names so existing pool files can be reused.
// Durations are given in milliseconds.
type PoolConfig struct {
	MaximumPoolSize   int   `mapstructure:"maximumPoolSize" validate:"min=1"`
	MinimumIdle       int   `mapstructure:"minimumIdle" validate:"min=0"`
	IdleTimeoutMs     int64 `mapstructure:"idleTimeout" validate:"min=0"`
	MaxLifetimeMs     int64 `mapstructure:"maxLifetime" validate:"min=0"`
	ConnectionTimeout int64 `mapstructure:"connectionTimeout" validate:"min=0"`
}

// IdleTimeout returns IdleTimeoutMs as a duration.
func (p *PoolConfig) IdleTimeout() time.Duration {
	return time.Duration(p.IdleTimeoutMs) * time.Millisecond
}

// MaxLifetime returns MaxLifetimeMs as a duration.
func (p *PoolConfig) MaxLifetime() time.Duration {
	return time.Duration(p.MaxLifetimeMs) * time.Millisecond
}

// ConnectTimeout returns ConnectionTimeout as a duration.
func (p *PoolConfig) ConnectTimeout() time.Duration {
	return time.Duration(p.ConnectionTimeout) * time.Millisecond
}

// DefaultPoolConfig returns the HikariCP defaults.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaximumPoolSize:   10,
		MinimumIdle:       10,
		IdleTimeoutMs:     600000,
		MaxLifetimeMs:     1800000,
		ConnectionTimeout: 30000,
	}
}

// LoadDatabase reads the database config at path and, when it names one,
// the pool properties file.
func LoadDatabase(path string) (*DatabaseConfig, *PoolConfig, error) {
	v, err := newViper(path, "json")
	if err != nil {
		return nil, nil, err
	}
	v.SetDefault("driver", DriverMySQL)
	v.SetDefault("address", "")
	v.SetDefault("user", "")
	v.SetDefault("password", "")
	v.SetDefault("database", "")
	v.SetDefault("pool_config_file", "")

	var cfg DatabaseConfig
	if err := decode(v, path, &cfg); err != nil {
		return nil, nil, err
	}

	pool, err := LoadPool(cfg.PoolConfigFile)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, pool, nil
}

// LoadPool reads a properties file of pool settings. Missing keys keep their defaults.
func LoadPool(path string) (*PoolConfig, error) {
	def := DefaultPoolConfig()
	if path == "" {
		return def, nil
	}
	v, err := newViper(path, "properties")
	if err != nil {
		return nil, err
	}
	v.SetDefault("maximumPoolSize", def.MaximumPoolSize)
	v.SetDefault("minimumIdle", def.MinimumIdle)
	v.SetDefault("idleTimeout", def.IdleTimeoutMs)
	v.SetDefault("maxLifetime", def.MaxLifetimeMs)
	v.SetDefault("connectionTimeout", def.ConnectionTimeout)

	var pool PoolConfig
	if err := decode(v, path, &pool); err != nil {
		return nil, err
	}
	if pool.MinimumIdle > pool.MaximumPoolSize {
		pool.MinimumIdle = pool.MaximumPoolSize
	}
	return &pool, nil
}

// String hides the password so configs can be logged.
func (c DatabaseConfig) String() string {
	return fmt.Sprintf("%s://%s@%s/%s", c.Driver, c.User, c.Address, c.Database)
}
