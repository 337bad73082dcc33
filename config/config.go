package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultProvider   = "gemini"
	DefaultModel      = "gemini-2.0-flash-001"
	DefaultStore      = "sqlite"
	DefaultServerAddr = ":8080"
	DefaultUser       = "default"
	DefaultLogMode    = "dev"
	DefaultTimeoutSec = 60
)

// Config is the on-disk configuration, overlaid with NEWSLETTER_* env vars.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Store    StoreConfig    `yaml:"store"`
	Workbook WorkbookConfig `yaml:"workbook"`
	Server   ServerConfig   `yaml:"server"`
	User     string         `yaml:"user"`
	LogMode  string         `yaml:"log_mode"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini (default), genai, openai, mock
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url,omitempty"`
	// APIKey seeds the shared credential scope; per-user keys live in the store.
	APIKey     string `yaml:"api_key,omitempty"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type StoreConfig struct {
	Driver        string `yaml:"driver"` // memory, sqlite, redis
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty"`
}

type WorkbookConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AllowOrigins lists browser origins allowed to call the API (the sidebar).
	AllowOrigins []string `yaml:"allow_origins,omitempty"`
	// RequestTimeoutSec bounds every API request.
	RequestTimeoutSec int `yaml:"request_timeout_sec"`
}

func DefaultConfig() *Config {
	dir := ConfigDir()
	return &Config{
		LLM: LLMConfig{
			Provider:   DefaultProvider,
			Model:      DefaultModel,
			TimeoutSec: DefaultTimeoutSec,
		},
		Store: StoreConfig{
			Driver:     DefaultStore,
			SQLitePath: filepath.Join(dir, "properties.db"),
		},
		Workbook: WorkbookConfig{Path: filepath.Join(dir, "workbook.yaml")},
		Server: ServerConfig{
			Addr:              DefaultServerAddr,
			AllowOrigins:      []string{"http://localhost:5173", "http://127.0.0.1:5173"},
			RequestTimeoutSec: DefaultTimeoutSec,
		},
		User:    DefaultUser,
		LogMode: DefaultLogMode,
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".config", "class-newsletter")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Load reads path (ConfigPath when empty). A missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("NEWSLETTER_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("NEWSLETTER_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("NEWSLETTER_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("NEWSLETTER_STORE"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("NEWSLETTER_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("NEWSLETTER_REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("NEWSLETTER_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Store.RedisDB = n
		}
	}
	if v := os.Getenv("NEWSLETTER_WORKBOOK"); v != "" {
		cfg.Workbook.Path = v
	}
	if v := os.Getenv("NEWSLETTER_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("NEWSLETTER_ALLOW_ORIGINS"); v != "" {
		cfg.Server.AllowOrigins = splitList(v)
	}
	if v := os.Getenv("NEWSLETTER_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("NEWSLETTER_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
}

// Validate normalizes enum-like fields and rejects unknown values.
func (c *Config) Validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case "":
		c.LLM.Provider = DefaultProvider
	case "gemini", "genai", "openai", "deepseek", "mock":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "":
		c.Store.Driver = DefaultStore
	case "memory", "sqlite":
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}

	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = DefaultTimeoutSec
	}
	if c.Server.RequestTimeoutSec <= 0 {
		c.Server.RequestTimeoutSec = DefaultTimeoutSec
	}
	if strings.TrimSpace(c.User) == "" {
		c.User = DefaultUser
	}
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
