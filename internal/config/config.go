// Package config loads gateway configuration from defaults, an optional YAML
// file and CHOCAI_-prefixed environment variables, in that order of
// precedence (later wins).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the gateway's environment variables. Section and key
// are separated by a double underscore: CHOCAI_PROVIDER__API_KEY maps to
// provider.api_key.
const envPrefix = "CHOCAI_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Provider  ProviderConfig  `koanf:"provider"`
	Storage   StorageConfig   `koanf:"storage"`
	Cache     CacheConfig     `koanf:"cache"`
	Chat      ChatConfig      `koanf:"chat"`
	Translate TranslateConfig `koanf:"translate"`
	Breaker   BreakerConfig   `koanf:"breaker"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// ProviderConfig configures the generative-language provider. An empty
// APIKey leaves the assistant unconfigured; chat then degrades to a static
// message instead of calling out.
type ProviderConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// StorageConfig selects the backing store: "memory" or "sqlite".
type StorageConfig struct {
	Type string `koanf:"type"`
	Path string `koanf:"path"`
}

type CacheConfig struct {
	TranslationTTL time.Duration `koanf:"translation_ttl"`
	HistoryTTL     time.Duration `koanf:"history_ttl"`
}

type ChatConfig struct {
	HistoryWindow int `koanf:"history_window"`
	MaxImageBytes int `koanf:"max_image_bytes"`
}

type TranslateConfig struct {
	MaxBatchSize int `koanf:"max_batch_size"`
}

type BreakerConfig struct {
	FailureThreshold int           `koanf:"failure_threshold"`
	ResetTimeout     time.Duration `koanf:"reset_timeout"`
}

var defaults = map[string]any{
	"server.port":               8080,
	"provider.model":            "gemini-1.5-flash",
	"provider.timeout":          30 * time.Second,
	"storage.type":              "memory",
	"storage.path":              "gateway.db",
	"cache.translation_ttl":     168 * time.Hour,
	"cache.history_ttl":         24 * time.Hour,
	"chat.history_window":       10,
	"chat.max_image_bytes":      5 * 1024 * 1024,
	"translate.max_batch_size":  50,
	"breaker.failure_threshold": 5,
	"breaker.reset_timeout":     30 * time.Second,
}

// Load reads configuration. path names an optional YAML file; an empty path
// or a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		k.Set(key, value)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects values the gateway cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Storage.Type {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("storage.type %q is not supported", c.Storage.Type)
	}
	if c.Storage.Type == "sqlite" && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for sqlite storage")
	}
	if c.Translate.MaxBatchSize <= 0 {
		return fmt.Errorf("translate.max_batch_size must be positive")
	}
	return nil
}
