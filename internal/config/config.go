// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Generator providers.
const (
	ProviderNone   = ""
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds all application configuration.
type Config struct {
	Port        string          `mapstructure:"port"`
	FrontendURL string          `mapstructure:"frontend_url"`
	CORS        CORSConfig      `mapstructure:"cors"`
	Store       StoreConfig     `mapstructure:"store"`
	DB          DBConfig        `mapstructure:"db"`
	Log         LogConfig       `mapstructure:"log"`
	Session     SessionConfig   `mapstructure:"session"`
	GRPC        GRPCConfig      `mapstructure:"grpc"`
	Upload      UploadConfig    `mapstructure:"upload"`
	Generator   GeneratorConfig `mapstructure:"generator"`
	OpenAI      APIKeyConfig    `mapstructure:"openai"`
	Gemini      APIKeyConfig    `mapstructure:"gemini"`
}

// CORSConfig lists allowed browser origins in addition to FrontendURL.
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// StoreConfig selects the repository implementation.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// DBConfig configures the SQLite database.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig configures the zap core.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SessionConfig controls login token lifetime. A zero TTL disables expiry.
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// GRPCConfig configures the optional gRPC health listener.
type GRPCConfig struct {
	HealthAddr string `mapstructure:"health_addr"`
}

// UploadConfig bounds CV uploads.
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// GeneratorConfig configures the external text generator.
type GeneratorConfig struct {
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Temperature       float64       `mapstructure:"temperature"`
	FeedbackMaxTokens int           `mapstructure:"feedback_max_tokens"`
	AnalysisMaxTokens int           `mapstructure:"analysis_max_tokens"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RatePerMinute     int           `mapstructure:"rate_per_minute"`
	Burst             int           `mapstructure:"burst"`
}

// APIKeyConfig holds a provider credential.
type APIKeyConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// SetDefaults registers a default for every key so AutomaticEnv can resolve them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("frontend_url", "")
	v.SetDefault("cors.origins", []string{})
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("db.path", "./data/careersim.db")
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.sweep_interval", 10*time.Minute)
	v.SetDefault("grpc.health_addr", "")
	v.SetDefault("upload.max_bytes", int64(5<<20))
	v.SetDefault("generator.provider", ProviderNone)
	v.SetDefault("generator.model", "")
	v.SetDefault("generator.base_url", "")
	v.SetDefault("generator.timeout", 20*time.Second)
	v.SetDefault("generator.temperature", 0.7)
	v.SetDefault("generator.feedback_max_tokens", 500)
	v.SetDefault("generator.analysis_max_tokens", 1500)
	v.SetDefault("generator.max_attempts", 2)
	v.SetDefault("generator.rate_per_minute", 60)
	v.SetDefault("generator.burst", 5)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("gemini.api_key", "")
}

// NewViper returns a viper instance with defaults and environment binding
// (PORT, DB_PATH, OPENAI_API_KEY, GENERATOR_TIMEOUT, ...).
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load decodes and validates configuration from v. When configFile is set
// it is read first; environment variables still take precedence.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Generator.Provider = strings.ToLower(strings.TrimSpace(c.Generator.Provider))
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)

	if c.Generator.Provider == ProviderNone {
		switch {
		case c.OpenAI.APIKey != "":
			c.Generator.Provider = ProviderOpenAI
		case c.Gemini.APIKey != "":
			c.Generator.Provider = ProviderGemini
		}
	}
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("DB_PATH cannot be empty")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER %q is not supported", c.Store.Driver)
	}
	if c.Session.TTL < 0 {
		return errors.New("SESSION_TTL cannot be negative")
	}
	if c.Session.TTL > 0 && c.Session.SweepInterval <= 0 {
		return errors.New("SESSION_SWEEP_INTERVAL must be > 0 when SESSION_TTL is set")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be > 0")
	}

	switch c.Generator.Provider {
	case ProviderNone:
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		return fmt.Errorf("GENERATOR_PROVIDER %q is not supported", c.Generator.Provider)
	}
	if c.Generator.Timeout <= 0 {
		return errors.New("GENERATOR_TIMEOUT must be > 0")
	}
	if c.Generator.FeedbackMaxTokens <= 0 || c.Generator.AnalysisMaxTokens <= 0 {
		return errors.New("generator max tokens must be > 0")
	}
	if c.Generator.MaxAttempts < 1 {
		return errors.New("GENERATOR_MAX_ATTEMPTS must be >= 1")
	}
	if c.Generator.RatePerMinute < 0 || c.Generator.Burst < 0 {
		return errors.New("generator rate limits cannot be negative")
	}
	return nil
}

// GeneratorEnabled reports whether an external generator is configured.
func (c *Config) GeneratorEnabled() bool {
	return c.Generator.Provider != ProviderNone
}

// AllowedOrigins returns the CORS origins: FrontendURL plus any extra origins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	if c.FrontendURL != "" {
		out = append(out, strings.TrimRight(c.FrontendURL, "/"))
	}
	for _, o := range c.CORS.Origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, strings.TrimRight(o, "/"))
		}
	}
	return out
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// IsContainer returns true if running inside a Docker container.
func IsContainer() bool {
	if os.Getenv("CONTAINER") == "true" {
		return true
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
