package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set required environment variables
	_ = os.Setenv(EnvLineChannelAccessToken, "test_token")
	_ = os.Setenv(EnvLineChannelSecret, "test_secret")
	defer func() { _ = os.Unsetenv(EnvLineChannelAccessToken) }()
	defer func() { _ = os.Unsetenv(EnvLineChannelSecret) }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check required fields
	if cfg.LineChannelToken != "test_token" {
		t.Errorf("Expected token 'test_token', got '%s'", cfg.LineChannelToken)
	}

	if cfg.LineChannelSecret != "test_secret" {
		t.Errorf("Expected secret 'test_secret', got '%s'", cfg.LineChannelSecret)
	}

	// Check defaults
	if cfg.Port != "10000" {
		t.Errorf("Expected default port '10000', got '%s'", cfg.Port)
	}

	if cfg.Resolver.PadWidth != 3 {
		t.Errorf("Expected default pad width 3, got %d", cfg.Resolver.PadWidth)
	}

	if cfg.Resolver.PageSize != 3 {
		t.Errorf("Expected default page size 3, got %d", cfg.Resolver.PageSize)
	}

	if cfg.Resolver.SearchPassCount != 3 {
		t.Errorf("Expected default search pass count 3, got %d", cfg.Resolver.SearchPassCount)
	}

	if cfg.Resolver.FolderURL != "https://works.do/FYhb6GY" {
		t.Errorf("Unexpected default folder URL: %s", cfg.Resolver.FolderURL)
	}

	if cfg.Bot.WebhookTimeout != 60*time.Second {
		t.Errorf("Expected default webhook timeout 60s, got %v", cfg.Bot.WebhookTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	env := map[string]string{
		EnvLineChannelAccessToken: "tok",
		EnvLineChannelSecret:      "sec",
		EnvPadWidth:               "4",
		EnvPageSize:               "5",
		EnvSearchPassCount:        "2",
		EnvSessionTTL:             "10m",
		EnvFolderURL:              "https://example.com/docs",
	}
	for k, v := range env {
		_ = os.Setenv(k, v)
	}
	defer func() {
		for k := range env {
			_ = os.Unsetenv(k)
		}
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Resolver.PadWidth != 4 {
		t.Errorf("Expected pad width 4, got %d", cfg.Resolver.PadWidth)
	}
	if cfg.Resolver.PageSize != 5 {
		t.Errorf("Expected page size 5, got %d", cfg.Resolver.PageSize)
	}
	if cfg.Resolver.SearchPassCount != 2 {
		t.Errorf("Expected search pass count 2, got %d", cfg.Resolver.SearchPassCount)
	}
	if cfg.Resolver.SessionTTL != 10*time.Minute {
		t.Errorf("Expected session TTL 10m, got %v", cfg.Resolver.SessionTTL)
	}
	if cfg.Resolver.FolderURL != "https://example.com/docs" {
		t.Errorf("Unexpected folder URL: %s", cfg.Resolver.FolderURL)
	}
}

func TestLoadForToolMode(t *testing.T) {
	// No LINE credentials set; offline tools must still load
	cfg, err := LoadForMode(ToolMode)
	if err != nil {
		t.Fatalf("LoadForMode(ToolMode) failed: %v", err)
	}
	if cfg.LineChannelToken != "" {
		t.Errorf("Expected empty token, got '%s'", cfg.LineChannelToken)
	}

	// The same environment must fail server-mode validation
	if _, err := Load(); err == nil {
		t.Error("Load() should require LINE credentials in server mode")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing channel token",
			mutate:  func(c *Config) { c.LineChannelToken = "" },
			wantErr: true,
		},
		{
			name:    "missing channel secret",
			mutate:  func(c *Config) { c.LineChannelSecret = "" },
			wantErr: true,
		},
		{
			name:    "invalid pad width",
			mutate:  func(c *Config) { c.Resolver.PadWidth = 0 },
			wantErr: true,
		},
		{
			name:    "invalid page size",
			mutate:  func(c *Config) { c.Resolver.PageSize = -1 },
			wantErr: true,
		},
		{
			name:    "invalid search pass count",
			mutate:  func(c *Config) { c.Resolver.SearchPassCount = 0 },
			wantErr: true,
		},
		{
			name:    "r2 enabled without credentials",
			mutate:  func(c *Config) { c.R2Enabled = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LineChannelToken:  "tok",
				LineChannelSecret: "sec",
				Port:              "10000",
				DataDir:           "/data",
				Resolver: ResolverConfig{
					PadWidth:        3,
					PageSize:        3,
					SearchPassCount: 3,
					SessionTTL:      30 * time.Minute,
					FolderURL:       "https://works.do/FYhb6GY",
				},
				Bot: BotConfig{WebhookTimeout: time.Minute},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSQLitePath(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.SQLitePath(); got != "/data/index.db" {
		t.Errorf("SQLitePath() = %s, want /data/index.db", got)
	}
}

func TestHasLLMProvider(t *testing.T) {
	cfg := &Config{}
	if cfg.HasLLMProvider() {
		t.Error("Expected no LLM provider")
	}
	cfg.GroqAPIKey = "key"
	if !cfg.HasLLMProvider() {
		t.Error("Expected LLM provider with Groq key")
	}
}
