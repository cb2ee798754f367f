package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

// Config is the process configuration, read from .env and the environment
type Config struct {
	// Server
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	// Logging
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Development bool   `mapstructure:"DEVELOPMENT"`

	// Database
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DataPath    string `mapstructure:"DATA_PATH"`

	// Auth
	JWTSecret        string `mapstructure:"JWT_SECRET"`
	APIMasterSecret  string `mapstructure:"API_MASTER_SECRET"`
	AdminUsername    string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword    string `mapstructure:"ADMIN_PASSWORD"`
	DefaultRateLimit int    `mapstructure:"DEFAULT_RATE_LIMIT"`

	// Allocation defaults
	Sheet                   string `mapstructure:"SHEET"`
	MaxHomeBase             int    `mapstructure:"MAX_HOME_BASE"`
	MaxAwayBase             int    `mapstructure:"MAX_AWAY_BASE"`
	GKCap                   int    `mapstructure:"GK_CAP"`
	RequireExactReserveFour bool   `mapstructure:"REQUIRE_EXACT_RESERVE_FOUR"`
	PreferGKVolunteers      bool   `mapstructure:"PREFER_GK_VOLUNTEERS"`
}

// envPaths are tried in order; the first .env found is loaded
var envPaths = []string{".env", "../.env", "../../.env"}

// Load reads configuration from the first .env found and the environment.
// Environment variables win over .env values.
func Load() (*Config, error) {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return nil, fmt.Errorf("load %s: %w", p, err)
			}
			break
		}
	}
	return FromViper(viper.New())
}

// FromViper fills a Config from v after applying defaults and env binding
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal only sees env values for keys registered by a default.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := models.DefaultAllocationConfig()

	v.SetDefault("PORT", "8000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEVELOPMENT", false)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATA_PATH", "api_keys.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("API_MASTER_SECRET", "")
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("DEFAULT_RATE_LIMIT", 10000)

	v.SetDefault("SHEET", "Formulärsvar 1 (exakt)")
	v.SetDefault("MAX_HOME_BASE", defaults.MaxHomeBase)
	v.SetDefault("MAX_AWAY_BASE", defaults.MaxAwayBase)
	v.SetDefault("GK_CAP", defaults.GKCap)
	v.SetDefault("REQUIRE_EXACT_RESERVE_FOUR", defaults.RequireExactReserveFour)
	v.SetDefault("PREFER_GK_VOLUNTEERS", defaults.PreferGKVolunteers)
}

// Validate reports settings the HTTP server cannot run without; both
// signing secrets must be non-empty.
func (c *Config) Validate() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.APIMasterSecret == "" {
		missing = append(missing, "API_MASTER_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s must be set", strings.Join(missing, " and "))
	}
	return nil
}

// Allocation returns the allocation defaults as an engine config
func (c *Config) Allocation() models.AllocationConfig {
	return models.AllocationConfig{
		MaxHomeBase:             c.MaxHomeBase,
		MaxAwayBase:             c.MaxAwayBase,
		GKCap:                   c.GKCap,
		RequireExactReserveFour: c.RequireExactReserveFour,
		PreferGKVolunteers:      c.PreferGKVolunteers,
	}
}
