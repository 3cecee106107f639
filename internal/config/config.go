// Package config loads the service settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	minSecretLength = 16
)

// Config is the full service configuration.
type Config struct {
	Env      string     `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel string     `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTP     HTTPServer `yaml:"http"`
	Storage  Storage    `yaml:"storage"`
	Auth     Auth       `yaml:"auth"`
	GitHub   GitHub     `yaml:"github"`
	Swaps    Swaps      `yaml:"swaps"`
}

// HTTPServer holds the listener settings.
type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"30s"`
}

// Storage locates the SQLite database. ":memory:" keeps everything in RAM.
type Storage struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"data/skillswap.db"`
}

// Auth configures token signing and password hashing.
type Auth struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
}

// GitHub holds the OAuth App credentials. Sign-in with GitHub is off unless
// both the client id and secret are set.
type GitHub struct {
	ClientID     string `yaml:"client_id" env:"GITHUB_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GITHUB_CLIENT_SECRET"`
	CallbackURL  string `yaml:"callback_url" env:"GITHUB_CALLBACK_URL" env-default:"http://localhost:8080/api/auth/github/callback"`
}

// Enabled reports whether GitHub sign-in is configured.
func (g GitHub) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Swaps tunes the swap request lifecycle.
type Swaps struct {
	// StrictTransitions limits status changes to the party-aware table
	// instead of accepting any transition from either party.
	StrictTransitions bool `yaml:"strict_transitions" env:"SWAPS_STRICT_TRANSITIONS" env-default:"false"`
}

// Load reads the file named by CONFIG_PATH when set, then the environment.
// Environment variables override values from the file.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load for main: any error is fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		errs = append(errs, fmt.Errorf("env must be one of local, dev, prod, got %q", c.Env))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", c.LogLevel))
	}
	if len(c.Auth.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d characters", minSecretLength))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path must not be empty"))
	}
	if (c.GitHub.ClientID == "") != (c.GitHub.ClientSecret == "") {
		errs = append(errs, errors.New("github.client_id and github.client_secret must be set together"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// String renders the configuration with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"LogLevel: %s\n"+
			"HTTP:\n"+
			"  Address: %s\n"+
			"  ReadTimeout: %s\n"+
			"  WriteTimeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"  ShutdownTimeout: %s\n"+
			"Storage:\n"+
			"  Path: %s\n"+
			"Auth:\n"+
			"  JWTSecret: %s\n"+
			"  TokenTTL: %s\n"+
			"  BcryptCost: %d\n"+
			"GitHub:\n"+
			"  Enabled: %t\n"+
			"  CallbackURL: %s\n"+
			"Swaps:\n"+
			"  StrictTransitions: %t\n",
		c.Env,
		c.LogLevel,
		c.HTTP.Address,
		c.HTTP.ReadTimeout,
		c.HTTP.WriteTimeout,
		c.HTTP.IdleTimeout,
		c.HTTP.ShutdownTimeout,
		c.Storage.Path,
		mask(c.Auth.JWTSecret),
		c.Auth.TokenTTL,
		c.Auth.BcryptCost,
		c.GitHub.Enabled(),
		c.GitHub.CallbackURL,
		c.Swaps.StrictTransitions,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}
