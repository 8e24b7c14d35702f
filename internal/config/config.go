package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "ISSUESUITE_"

// Transport modes.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Config defines server configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Transport   TransportConfig   `yaml:"transport"`
	DB          DBConfig          `yaml:"db"`
	Collections CollectionsConfig `yaml:"collections"`
	Blob        BlobConfig        `yaml:"blob"`
	Cache       CacheConfig       `yaml:"cache"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	CORS        CORSConfig        `yaml:"cors"`
	Consistency ConsistencyConfig `yaml:"consistency"`
	Seed        SeedConfig        `yaml:"seed"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// PublicURL is the externally visible base URL; blob locations are built from it.
	PublicURL string `yaml:"public_url"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type DBConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type CollectionsConfig struct {
	Projects string `yaml:"projects"`
	Tickets  string `yaml:"tickets"`
	Users    string `yaml:"users"`
}

type BlobConfig struct {
	Root      string `yaml:"root"`
	Container string `yaml:"container"`
	// BaseURL defaults to PublicURL + "/" + Container.
	BaseURL  string `yaml:"base_url"`
	PageSize int    `yaml:"page_size"`
	// DeleteConcurrency bounds parallel blob deletions per request.
	DeleteConcurrency int `yaml:"delete_concurrency"`
	// PruneGrace is the minimum age of an unreferenced blob before pruning.
	PruneGrace time.Duration `yaml:"prune_grace"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ConsistencyConfig struct {
	MaxRetries int `yaml:"max_retries"`
}

type SeedConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{Mode: TransportHTTP},
		DB: DBConfig{
			Name: "issuesuite",
			Path: "issuesuite.db",
		},
		Collections: CollectionsConfig{
			Projects: "projects",
			Tickets:  "tickets",
			Users:    "users",
		},
		Blob: BlobConfig{
			Root:              "data",
			Container:         "videos",
			PageSize:          256,
			DeleteConcurrency: 4,
			PruneGrace:        15 * time.Minute,
		},
		Cache:       CacheConfig{TTL: time.Second},
		RateLimit:   RateLimitConfig{RPS: 20, Burst: 40},
		CORS:        CORSConfig{AllowedOrigins: []string{"*"}},
		Consistency: ConsistencyConfig{MaxRetries: 5},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, an
// optional .env file and ISSUESUITE_* environment variables, in that order.
// An empty path falls back to ISSUESUITE_CONFIG_PATH.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.resolve()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Blob.Container == "" {
		return errors.New("blob container is required")
	}
	if c.Blob.DeleteConcurrency <= 0 {
		return errors.New("blob delete_concurrency must be positive")
	}
	if c.Blob.PruneGrace < 0 {
		return errors.New("blob prune_grace must not be negative")
	}
	if c.Consistency.MaxRetries < 0 {
		return errors.New("consistency max_retries must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit requires positive rps and burst")
	}
	return nil
}

func (c *Config) resolve() {
	if c.Server.PublicURL == "" {
		host := c.Server.Host
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		c.Server.PublicURL = fmt.Sprintf("http://%s:%d", host, c.Server.Port)
	}
	c.Server.PublicURL = strings.TrimSuffix(c.Server.PublicURL, "/")
	if c.Blob.BaseURL == "" {
		c.Blob.BaseURL = c.Server.PublicURL + "/" + c.Blob.Container
	}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setString(&cfg.Server.PublicURL, "SERVER_PUBLIC_URL")
	setString(&cfg.Transport.Mode, "TRANSPORT")
	setString(&cfg.DB.Name, "DB_NAME")
	setString(&cfg.DB.Path, "DB_PATH")
	setString(&cfg.Collections.Projects, "COLLECTION_PROJECTS")
	setString(&cfg.Collections.Tickets, "COLLECTION_TICKETS")
	setString(&cfg.Collections.Users, "COLLECTION_USERS")
	setString(&cfg.Blob.Root, "BLOB_ROOT")
	setString(&cfg.Blob.Container, "BLOB_CONTAINER")
	setString(&cfg.Blob.BaseURL, "BLOB_BASE_URL")
	setString(&cfg.Seed.Path, "SEED_PATH")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	if v := os.Getenv(envPrefix + "CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}

	ints := []struct {
		dst *int
		key string
	}{
		{&cfg.Server.Port, "SERVER_PORT"},
		{&cfg.Blob.PageSize, "BLOB_PAGE_SIZE"},
		{&cfg.Blob.DeleteConcurrency, "BLOB_DELETE_CONCURRENCY"},
		{&cfg.RateLimit.Burst, "RATE_LIMIT_BURST"},
		{&cfg.Consistency.MaxRetries, "CONSISTENCY_MAX_RETRIES"},
	}
	for _, e := range ints {
		if err := setInt(e.dst, e.key); err != nil {
			return err
		}
	}

	if v := os.Getenv(envPrefix + "RATE_LIMIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT_ENABLED: %w", envPrefix, err)
		}
		cfg.RateLimit.Enabled = enabled
	}
	if v := os.Getenv(envPrefix + "RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT_RPS: %w", envPrefix, err)
		}
		cfg.RateLimit.RPS = rps
	}
	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&cfg.Cache.TTL, "CACHE_TTL"},
		{&cfg.Blob.PruneGrace, "BLOB_PRUNE_GRACE"},
	}
	for _, e := range durations {
		if err := setDuration(e.dst, e.key); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
