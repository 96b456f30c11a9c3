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

const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"

	ModeStdio = "stdio"
	ModeHTTP  = "http"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// StoreConfig selects the note store. An empty backend resolves to supabase when
// a URL is configured and sqlite otherwise.
type StoreConfig struct {
	Backend       string        `yaml:"backend"`
	URL           string        `yaml:"url"`
	Key           string        `yaml:"key"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	Path          string        `yaml:"path"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: ModeStdio,
		},
		Store: StoreConfig{
			Timeout:       10 * time.Second,
			RetryAttempts: 3,
			Path:          "voicenotes.db",
		},
		Cache: CacheConfig{
			TTL:        60 * time.Second,
			MaxEntries: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, an optional
// .env file, and environment variables, later sources winning. Variables already
// present in the environment are not replaced by the .env file.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("VOICENOTES_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	envFile := os.Getenv("VOICENOTES_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendSQLite
		if cfg.Store.URL != "" {
			cfg.Store.Backend = BackendSupabase
		}
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("VOICENOTES_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if err := envInt("VOICENOTES_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if mode := os.Getenv("VOICENOTES_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if backend := os.Getenv("VOICENOTES_STORE_BACKEND"); backend != "" {
		cfg.Store.Backend = backend
	}
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		cfg.Store.URL = url
	}
	if key := firstEnv("SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_ANON_KEY", "SUPABASE_KEY"); key != "" {
		cfg.Store.Key = key
	}
	if err := envDuration("VOICENOTES_STORE_TIMEOUT", &cfg.Store.Timeout); err != nil {
		return err
	}
	if err := envInt("VOICENOTES_STORE_RETRY_ATTEMPTS", &cfg.Store.RetryAttempts); err != nil {
		return err
	}
	if path := os.Getenv("VOICENOTES_DB_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if err := envDuration("VOICENOTES_CACHE_TTL", &cfg.Cache.TTL); err != nil {
		return err
	}
	if err := envInt("VOICENOTES_CACHE_MAX_ENTRIES", &cfg.Cache.MaxEntries); err != nil {
		return err
	}
	if level := os.Getenv("VOICENOTES_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if v := os.Getenv("VOICENOTES_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid VOICENOTES_METRICS_ENABLED: %w", err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case ModeStdio, ModeHTTP:
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	switch c.Store.Backend {
	case BackendSupabase:
		if c.Store.URL == "" || c.Store.Key == "" {
			return errors.New("supabase backend requires SUPABASE_URL and a key (SUPABASE_SERVICE_ROLE_KEY, SUPABASE_ANON_KEY, or SUPABASE_KEY)")
		}
	case BackendSQLite:
		if c.Store.Path == "" {
			return errors.New("sqlite backend requires store.path")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must not be negative, got %d", c.Cache.MaxEntries)
	}
	if c.Store.RetryAttempts < 1 {
		return fmt.Errorf("store.retry_attempts must be at least 1, got %d", c.Store.RetryAttempts)
	}
	if c.Transport.Mode == ModeHTTP && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
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

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func envInt(name string, out *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*out = n
	return nil
}

func envDuration(name string, out *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*out = d
	return nil
}
