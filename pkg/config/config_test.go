package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(orig) })
	_ = os.Chdir(tmp)
	return tmp
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"UNSPLASH_ACCESS_KEY", "GROQ_API_KEY", "GOOGLE_CLOUD_PROJECT", "PORT", "GCS_BUCKET"} {
		t.Setenv(key, "")
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	yaml := `
keywords:
  endpoint: http://localhost:9000/api/generate
unsplash:
  per_page: 20
generator:
  concurrency: 4
  seed: 42
http:
  timeout: 10s
groq:
  model: test-model
download:
  dir: ./out
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Keywords.Endpoint != "http://localhost:9000/api/generate" {
		t.Errorf("Keywords.Endpoint = %q", cfg.Keywords.Endpoint)
	}
	if cfg.Unsplash.PerPage != 20 {
		t.Errorf("Unsplash.PerPage = %d, want 20", cfg.Unsplash.PerPage)
	}
	if cfg.Unsplash.BaseURL != defaultUnsplashBaseURL {
		t.Errorf("Unsplash.BaseURL = %q, want default", cfg.Unsplash.BaseURL)
	}
	if cfg.Generator.Concurrency != 4 {
		t.Errorf("Generator.Concurrency = %d, want 4", cfg.Generator.Concurrency)
	}
	if cfg.Generator.Seed != 42 {
		t.Errorf("Generator.Seed = %d, want 42", cfg.Generator.Seed)
	}
	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("HTTP.Timeout = %v, want 10s", cfg.HTTP.Timeout)
	}
	if cfg.Groq.Model != "test-model" {
		t.Errorf("Groq.Model = %q, want test-model", cfg.Groq.Model)
	}
	if cfg.Download.Dir != "./out" {
		t.Errorf("Download.Dir = %q, want ./out", cfg.Download.Dir)
	}
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Keywords.Endpoint != defaultKeywordsEndpoint {
		t.Errorf("Keywords.Endpoint = %q, want %q", cfg.Keywords.Endpoint, defaultKeywordsEndpoint)
	}
	if cfg.Generator.Concurrency != 1 {
		t.Errorf("Generator.Concurrency = %d, want 1", cfg.Generator.Concurrency)
	}
	if cfg.Server.Port != defaultPort {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, defaultPort)
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		t.Error("Server.AllowedOrigins is empty")
	}
	if cfg.Server.SessionTTL != defaultSessionTTL || cfg.Server.MaxSessions != defaultMaxSessions {
		t.Errorf("Server sessions = %v/%d, want %v/%d", cfg.Server.SessionTTL, cfg.Server.MaxSessions, defaultSessionTTL, defaultMaxSessions)
	}
	if cfg.Groq.KeywordCount != defaultKeywordCount {
		t.Errorf("Groq.KeywordCount = %d, want %d", cfg.Groq.KeywordCount, defaultKeywordCount)
	}
	if cfg.HTTP.Timeout != 0 {
		t.Errorf("HTTP.Timeout = %v, want 0", cfg.HTTP.Timeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	t.Setenv("UNSPLASH_ACCESS_KEY", "test-unsplash")
	t.Setenv("GROQ_API_KEY", "test-groq")
	t.Setenv("PORT", "9999")
	t.Setenv("GCS_BUCKET", "my-bucket")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.UnsplashAccessKey != "test-unsplash" {
		t.Errorf("UnsplashAccessKey = %q, want test-unsplash", cfg.UnsplashAccessKey)
	}
	if cfg.GroqAPIKey != "test-groq" {
		t.Errorf("GroqAPIKey = %q, want test-groq", cfg.GroqAPIKey)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("Server.Port = %q, want 9999", cfg.Server.Port)
	}
	if cfg.Download.GCSBucket != "my-bucket" {
		t.Errorf("Download.GCSBucket = %q, want my-bucket", cfg.Download.GCSBucket)
	}
}

func TestLoadFromDotEnv(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)
	_ = os.Unsetenv("UNSPLASH_ACCESS_KEY")

	_ = os.WriteFile(filepath.Join(tmp, ".env"), []byte("UNSPLASH_ACCESS_KEY=from-dotenv\n"), 0644)
	t.Cleanup(func() { _ = os.Unsetenv("UNSPLASH_ACCESS_KEY") })

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.UnsplashAccessKey != "from-dotenv" {
		t.Errorf("UnsplashAccessKey = %q, want from-dotenv", cfg.UnsplashAccessKey)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmp := chdirTemp(t)
	clearEnv(t)

	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte("generator: [unclosed"), 0644)

	if _, err := Load(context.Background()); err == nil {
		t.Error("Load() should fail on malformed config.yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantErr   error
		wantServe bool
	}{
		{
			name:    "missingUnsplashKey",
			cfg:     Config{Keywords: KeywordsConfig{Endpoint: "http://x"}, Server: ServerConfig{Port: "8000"}},
			wantErr: ErrMissingUnsplashKey,
		},
		{
			name:      "valid",
			cfg:       Config{UnsplashAccessKey: "k", Keywords: KeywordsConfig{Endpoint: "http://x"}, Server: ServerConfig{Port: "8000"}},
			wantServe: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateGenerate()
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateGenerate() = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateGenerate() unexpected error: %v", err)
			}
			if serveErr := tt.cfg.ValidateServe(); (serveErr == nil) != tt.wantServe {
				t.Errorf("ValidateServe() = %v, wantServe %v", serveErr, tt.wantServe)
			}
		})
	}
}

func TestSecretVersionName(t *testing.T) {
	got := secretVersionName("proj", "GROQ_API_KEY")
	want := "projects/proj/secrets/GROQ_API_KEY/versions/latest"
	if got != want {
		t.Errorf("secretVersionName() = %q, want %q", got, want)
	}
}
