package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.TranslationTTL != 168*time.Hour {
		t.Errorf("cache.translation_ttl = %v, want 168h", cfg.Cache.TranslationTTL)
	}
	if cfg.Cache.HistoryTTL != 24*time.Hour {
		t.Errorf("cache.history_ttl = %v, want 24h", cfg.Cache.HistoryTTL)
	}
	if cfg.Chat.HistoryWindow != 10 {
		t.Errorf("chat.history_window = %d, want 10", cfg.Chat.HistoryWindow)
	}
	if cfg.Chat.MaxImageBytes != 5*1024*1024 {
		t.Errorf("chat.max_image_bytes = %d, want 5 MiB", cfg.Chat.MaxImageBytes)
	}
	if cfg.Translate.MaxBatchSize != 50 {
		t.Errorf("translate.max_batch_size = %d, want 50", cfg.Translate.MaxBatchSize)
	}
	if cfg.Breaker.FailureThreshold != 5 {
		t.Errorf("breaker.failure_threshold = %d, want 5", cfg.Breaker.FailureThreshold)
	}
	if cfg.Breaker.ResetTimeout != 30*time.Second {
		t.Errorf("breaker.reset_timeout = %v, want 30s", cfg.Breaker.ResetTimeout)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage.type = %q, want memory", cfg.Storage.Type)
	}
	if cfg.Provider.APIKey != "" {
		t.Errorf("provider.api_key = %q, want empty", cfg.Provider.APIKey)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHOCAI_SERVER__PORT", "9000")
	t.Setenv("CHOCAI_PROVIDER__API_KEY", "test-key")
	t.Setenv("CHOCAI_BREAKER__RESET_TIMEOUT", "45s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("server.port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Provider.APIKey != "test-key" {
		t.Errorf("provider.api_key = %q, want test-key", cfg.Provider.APIKey)
	}
	if cfg.Breaker.ResetTimeout != 45*time.Second {
		t.Errorf("breaker.reset_timeout = %v, want 45s", cfg.Breaker.ResetTimeout)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := []byte(`
server:
  port: 7070
storage:
  type: sqlite
  path: /tmp/test.db
translate:
  max_batch_size: 25
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.Path != "/tmp/test.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Translate.MaxBatchSize != 25 {
		t.Errorf("translate.max_batch_size = %d, want 25", cfg.Translate.MaxBatchSize)
	}
	// Untouched keys keep their defaults.
	if cfg.Chat.HistoryWindow != 10 {
		t.Errorf("chat.history_window = %d, want 10", cfg.Chat.HistoryWindow)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHOCAI_SERVER__PORT", "9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("server.port = %d, want env override 9000", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/does/not/exist.yaml")
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad port", func(c *Config) { c.Server.Port = -1 }, false},
		{"bad storage type", func(c *Config) { c.Storage.Type = "redis" }, false},
		{"sqlite without path", func(c *Config) { c.Storage.Type = "sqlite"; c.Storage.Path = "" }, false},
		{"zero batch size", func(c *Config) { c.Translate.MaxBatchSize = 0 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); (err == nil) != tc.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}
