// Package config loads provtrack settings from YAML and the environment.
//
// Precedence, highest first: PROVTRACK_* environment variables (including
// those loaded from a .env file), the YAML config file, built-in defaults.
// Nested keys map to variables with dots replaced by underscores, so
// sync.max_attempts is PROVTRACK_SYNC_MAX_ATTEMPTS.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/provtrack/internal/logging"
	"github.com/roach88/provtrack/internal/syncer"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PROVTRACK"

// Backend kinds.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendHTTP   = "http"
)

// Config is the full provtrack configuration.
type Config struct {
	Log     logging.Config `yaml:"log" mapstructure:"log"`
	Backend BackendConfig  `yaml:"backend" mapstructure:"backend"`
	Sync    syncer.Config  `yaml:"sync" mapstructure:"sync"`
	Metrics MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Server  ServerConfig   `yaml:"server" mapstructure:"server"`
}

// BackendConfig selects where synced events go.
type BackendConfig struct {
	Kind          string `yaml:"kind" mapstructure:"kind" validate:"oneof=memory sqlite redis http"`
	SQLitePath    string `yaml:"sqlite_path" mapstructure:"sqlite_path" validate:"required_if=Kind sqlite"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr" validate:"required_if=Kind redis"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db" validate:"gte=0"`
	RedisPrefix   string `yaml:"redis_prefix" mapstructure:"redis_prefix"`
	HTTPEndpoint  string `yaml:"http_endpoint" mapstructure:"http_endpoint" validate:"required_if=Kind http,omitempty,url"`
	// AuthSecret signs requests to an http backend.
	AuthSecret string `yaml:"auth_secret" mapstructure:"auth_secret"`
	// Subject identifies this client in signed requests.
	Subject string `yaml:"subject" mapstructure:"subject"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// ServerConfig configures provtrack serve.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required"`
	// AuthSecret, when set, requires signed requests.
	AuthSecret string `yaml:"auth_secret" mapstructure:"auth_secret"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log: logging.Config{Level: "info", Format: "console"},
		Backend: BackendConfig{
			Kind:        BackendSQLite,
			SQLitePath:  "provtrack.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "provtrack:",
			Subject:     "provtrack",
		},
		Sync:   syncer.DefaultConfig(),
		Server: ServerConfig{Addr: ":8080"},
	}
}

// LoaderConfig holds optional file overrides.
type LoaderConfig struct {
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets the YAML config file. It must exist.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets the .env file. It must exist. Without it, ./.env is
// loaded when present.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load builds the configuration, applies defaults and validates it.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	// .env values never override variables already set in the process.
	switch {
	case lc.EnvFile != "":
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", lc.EnvFile, err)
		}
	case fileExists(".env"):
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load env file .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v, Default())

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", lc.ConfigFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills fields left empty by the file and environment.
func (c *Config) ApplyDefaults() {
	c.Log.ApplyDefaults()
	if c.Backend.Kind == "" {
		c.Backend.Kind = BackendSQLite
	}
	if c.Sync.MaxAttempts == 0 {
		c.Sync.MaxAttempts = syncer.DefaultConfig().MaxAttempts
	}
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := getValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", describe(err))
	}
	return nil
}

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator. Field names in errors are
// the mapstructure keys users write in YAML.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// describe flattens validator errors into "key: rule" messages.
func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Config.backend.kind"; drop the root type name.
		key := fe.Namespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", key, rule))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// setDefaults registers every key of d with v so that environment
// variables are picked up by Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.no_color", d.Log.NoColor)

	v.SetDefault("backend.kind", d.Backend.Kind)
	v.SetDefault("backend.sqlite_path", d.Backend.SQLitePath)
	v.SetDefault("backend.redis_addr", d.Backend.RedisAddr)
	v.SetDefault("backend.redis_password", d.Backend.RedisPassword)
	v.SetDefault("backend.redis_db", d.Backend.RedisDB)
	v.SetDefault("backend.redis_prefix", d.Backend.RedisPrefix)
	v.SetDefault("backend.http_endpoint", d.Backend.HTTPEndpoint)
	v.SetDefault("backend.auth_secret", d.Backend.AuthSecret)
	v.SetDefault("backend.subject", d.Backend.Subject)

	v.SetDefault("sync.timeout", d.Sync.Timeout)
	v.SetDefault("sync.max_attempts", d.Sync.MaxAttempts)
	v.SetDefault("sync.initial_backoff", d.Sync.InitialBackoff)
	v.SetDefault("sync.max_backoff", d.Sync.MaxBackoff)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.auth_secret", d.Server.AuthSecret)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
