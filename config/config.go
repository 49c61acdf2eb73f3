// Package config loads server, logger and database settings from JSON and
// properties files using Viper. Any key can be overridden from the
// environment with the USERSVC_ prefix (dots become underscores).
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. USERSVC_HTTP_PORT.
const EnvPrefix = "USERSVC"

var validate = newValidator()

// MaxTableNameLen leaves room for the longest index suffix ("_username_uindex")
// within MySQL's 64-character identifier limit.
const MaxTableNameLen = 48

var identPattern = regexp.MustCompile(fmt.Sprintf(`^[A-Za-z_][A-Za-z0-9_]{0,%d}$`, MaxTableNameLen-1))

// ValidIdent reports whether name is safe to interpolate into SQL as a table name.
func ValidIdent(name string) bool {
	return identPattern.MatchString(name)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return ValidIdent(fl.Field().String())
	})
	return v
}

// ServerConfig holds the HTTP server and user service settings.
type ServerConfig struct {
	// HTTPPort is the TCP port the server listens on.
	HTTPPort int `mapstructure:"http_port" validate:"min=1,max=65535"`
	// URLPrefix is prepended to every API path (e.g. "/api/v1").
	URLPrefix string `mapstructure:"url_prefix" validate:"omitempty,startswith=/"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	// CORSAllowedOrigins lists origins accepted by the CORS handler; "*" allows any.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins" validate:"min=1"`
	// TokenSecret is the HMAC key used to sign access tokens.
	TokenSecret string `mapstructure:"token_secret" validate:"required"`
	// TokenTTL is how long an issued access token stays valid.
	TokenTTL   time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	BcryptCost int           `mapstructure:"bcrypt_cost" validate:"min=4,max=31"`
	// UserTable is the table the user service reads and creates.
	UserTable string `mapstructure:"user_table" validate:"sqlident"`
}

// Addr returns the listen address for HTTPPort.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Path joins the URL prefix and a route path.
func (c *ServerConfig) Path(path string) string {
	return strings.TrimSuffix(c.URLPrefix, "/") + path
}

// LoggerConfig controls log level, format and optional file rotation.
type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	// File enables rotated file output when set; stdout is used otherwise.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
}

func newViper(path, configType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if configType != "" {
		v.SetConfigType(configType)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return v, nil
}

func decode(v *viper.Viper, path string, out any) error {
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return nil
}

// LoadServer reads the server config at path. An empty path uses defaults
// and environment overrides only; TokenSecret must then come from the environment.
func LoadServer(path string) (*ServerConfig, error) {
	v, err := newViper(path, "json")
	if err != nil {
		return nil, err
	}
	v.SetDefault("http_port", 8080)
	v.SetDefault("url_prefix", "")
	v.SetDefault("read_timeout", "15s")
	v.SetDefault("write_timeout", "15s")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("token_secret", "")
	v.SetDefault("token_ttl", "720h") // 30d
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("user_table", "user")

	var cfg ServerConfig
	if err := decode(v, path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadLogger reads the logger config at path; an empty path yields defaults.
func LoadLogger(path string) (*LoggerConfig, error) {
	v, err := newViper(path, "json")
	if err != nil {
		return nil, err
	}
	v.SetDefault("level", "info")
	v.SetDefault("format", "text")
	v.SetDefault("file", "")
	v.SetDefault("max_size_mb", 100)
	v.SetDefault("max_backups", 3)
	v.SetDefault("max_age_days", 28)

	var cfg LoggerConfig
	if err := decode(v, path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
