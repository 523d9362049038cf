package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	// EnvAPIURL and EnvWSURL override the file configuration, the same way
	// the browser clients read their base URL at build time.
	EnvAPIURL = "CHAT_API_URL"
	EnvWSURL  = "CHAT_WS_URL"
)

type Config struct {
	// APIURL is the REST base URL used by the room client. Its WebSocket
	// endpoint is derived from it.
	APIURL string `yaml:"api_url"`

	// WSURL is the WebSocket endpoint used by the simple client.
	WSURL string `yaml:"ws_url"`

	LogLevel  string `yaml:"log_level"`
	LogFile   string `yaml:"log_file"`
	DebugAddr string `yaml:"debug_addr"`

	Reconnect ReconnectConfig `yaml:"reconnect"`
	Store     StoreConfig     `yaml:"store"`
}

type ReconnectConfig struct {
	// MaxRetries is how many extra dial attempts are made. Zero disables
	// reconnecting.
	MaxRetries int           `yaml:"max_retries"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

type StoreConfig struct {
	Type          string `yaml:"type"`
	Path          string `yaml:"path"`
	DSN           string `yaml:"dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`
}

func Default() *Config {
	return &Config{
		APIURL:   "http://localhost:8080",
		WSURL:    "ws://localhost:8080/ws",
		LogLevel: "info",
		Reconnect: ReconnectConfig{
			MaxRetries: 0,
			MaxBackoff: 8 * time.Second,
		},
		Store: StoreConfig{
			Type:      StoreSQLite,
			Path:      "gochat-client.db",
			KeyPrefix: "gochat:",
		},
	}
}

// Load reads the optional YAML file at path over the defaults, then applies
// environment overrides. Flags are applied by the caller before Validate.
func Load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config file: %w", err)
		}
	}

	if lookupEnv != nil {
		if v, ok := lookupEnv(EnvAPIURL); ok && v != "" {
			cfg.APIURL = v
		}
		if v, ok := lookupEnv(EnvWSURL); ok && v != "" {
			cfg.WSURL = v
		}
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api url cannot be empty")
	}
	if err := validateURL(c.APIURL, "http", "https"); err != nil {
		return fmt.Errorf("api url: %w", err)
	}
	if c.WSURL == "" {
		return fmt.Errorf("websocket url cannot be empty")
	}
	if err := validateURL(c.WSURL, "ws", "wss", "http", "https"); err != nil {
		return fmt.Errorf("websocket url: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Reconnect.MaxRetries < 0 {
		return fmt.Errorf("reconnect max retries cannot be negative")
	}

	switch c.Store.Type {
	case StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("sqlite store path cannot be empty")
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("postgres store DSN cannot be empty")
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("redis store address cannot be empty")
		}
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}

	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}
