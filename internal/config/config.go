package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the persistent application configuration
type Config struct {
	// Where posts_processed.json, manifest.json and insights.json live
	Source SourceConfig `yaml:"source"`

	// Local HTTP surface
	Server ServerConfig `yaml:"server"`

	// Language-model assistant
	Assistant AssistantConfig `yaml:"assistant"`

	// Homework PDF preview
	Preview PreviewConfig `yaml:"preview"`

	// Quick filter tuning
	Filters FiltersConfig `yaml:"filters"`

	// UI preferences
	UI UIConfig `yaml:"ui"`
}

// SourceConfig locates the dataset documents
type SourceConfig struct {
	Base         string `yaml:"base" validate:"required"`
	PostsPath    string `yaml:"posts_path" validate:"required"`
	ManifestPath string `yaml:"manifest_path" validate:"required"`
	InsightsPath string `yaml:"insights_path" validate:"required"`
	TimeoutSec   int    `yaml:"timeout_sec" validate:"min=1,max=300"`
}

// ServerConfig for `explorer serve`
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// AssistantConfig for the Ollama-backed assistant
type AssistantConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Endpoint     string `yaml:"endpoint" validate:"required,url"`
	Model        string `yaml:"model" validate:"required"`
	SystemPrompt string `yaml:"system_prompt,omitempty"`
	TimeoutSec   int    `yaml:"timeout_sec" validate:"min=1,max=600"`
}

// PreviewConfig for homework PDF lookups
type PreviewConfig struct {
	URLTemplate string `yaml:"url_template" validate:"required,contains=%s"`
	TimeoutSec  int    `yaml:"timeout_sec" validate:"min=1,max=300"`
}

// FiltersConfig tunes the recent and popular quick filters
type FiltersConfig struct {
	RecentDays int      `yaml:"recent_days" validate:"min=1"`
	Popular    []string `yaml:"popular" validate:"dive,required"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	SearchDebounceMs int    `yaml:"search_debounce_ms" validate:"min=0,max=5000"`
	DefaultView      string `yaml:"default_view" validate:"oneof=grid list compact"`
}

var validate = validator.New()

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Base:         ".",
			PostsPath:    "data/posts_processed.json",
			ManifestPath: "files/manifest.json",
			InsightsPath: "data/insights.json",
			TimeoutSec:   30,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8182",
		},
		Assistant: AssistantConfig{
			Enabled:    true,
			Endpoint:   "http://localhost:11434",
			Model:      "llama3.2:1b",
			TimeoutSec: 120,
		},
		Preview: PreviewConfig{
			URLTemplate: "https://berkeley-cs182.github.io/fa25/assets/assignments/hw%s.pdf",
			TimeoutSec:  20,
		},
		Filters: FiltersConfig{
			RecentDays: 7,
			Popular:    []string{"GPT-4o", "GPT-5", "Claude", "Gemini", "DeepSeek", "Llama"},
		},
		UI: UIConfig{
			SearchDebounceMs: 300,
			DefaultView:      "grid",
		},
	}
}

// Dir is the per-user profile directory. EXPLORER_HOME overrides it.
func Dir() string {
	if dir := os.Getenv("EXPLORER_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".postexplorer")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads config from the default path, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. A missing file yields defaults, an
// unparseable one yields defaults too. Environment overrides apply in both
// cases; a parsed file that fails validation is an error.
func LoadFrom(path string) (*Config, error) {
	// .env in the working directory is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = DefaultConfig()
		cfg.AutoPopulateFromEnv()
		return cfg, nil
	}

	cfg.AutoPopulateFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Save writes config to the default path
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv applies environment overrides
func (c *Config) AutoPopulateFromEnv() {
	if v := strings.TrimSpace(os.Getenv("EXPLORER_SOURCE")); v != "" {
		c.Source.Base = v
	}
	if v := strings.TrimSpace(os.Getenv("EXPLORER_ADDR")); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("OLLAMA_HOST")); v != "" {
		if !strings.Contains(v, "://") {
			v = "http://" + v
		}
		c.Assistant.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("EXPLORER_MODEL")); v != "" {
		c.Assistant.Model = v
	}
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// SourceTimeout is the dataset fetch timeout.
func (c *Config) SourceTimeout() time.Duration { return seconds(c.Source.TimeoutSec) }

// AssistantTimeout bounds a single assistant reply.
func (c *Config) AssistantTimeout() time.Duration { return seconds(c.Assistant.TimeoutSec) }

// PreviewTimeout bounds a PDF download.
func (c *Config) PreviewTimeout() time.Duration { return seconds(c.Preview.TimeoutSec) }

// SearchDebounce is the delay before a typed search is applied.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.UI.SearchDebounceMs) * time.Millisecond
}

// RecentWindow is the span of the "recent" quick filter.
func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.Filters.RecentDays) * 24 * time.Hour
}
