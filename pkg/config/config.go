package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath       = "config.yaml"
	defaultKeywordsEndpoint = "https://pixgenie.onrender.com/api/generate"
	defaultUnsplashBaseURL  = "https://api.unsplash.com"
	defaultPerPage          = 10
	defaultConcurrency      = 1
	defaultPort             = "8000"
	defaultSessionTTL       = 30 * time.Minute
	defaultMaxSessions      = 1000
	defaultGroqModel        = "llama-3.3-70b-versatile"
	defaultKeywordCount     = 5
	defaultDownloadDir      = "./downloads"
)

var (
	defaultAllowedOrigins = []string{"https://pix-genie.vercel.app", "http://localhost:3000"}

	ErrMissingUnsplashKey = errors.New("UNSPLASH_ACCESS_KEY is required")
	ErrMissingGroqKey     = errors.New("GROQ_API_KEY is required")
)

type Config struct {
	UnsplashAccessKey string
	GroqAPIKey        string
	GCPProject        string

	Keywords  KeywordsConfig  `yaml:"keywords"`
	Unsplash  UnsplashConfig  `yaml:"unsplash"`
	Generator GeneratorConfig `yaml:"generator"`
	HTTP      HTTPConfig      `yaml:"http"`
	Server    ServerConfig    `yaml:"server"`
	Groq      GroqConfig      `yaml:"groq"`
	Download  DownloadConfig  `yaml:"download"`
}

type KeywordsConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type UnsplashConfig struct {
	BaseURL string `yaml:"base_url"`
	PerPage int    `yaml:"per_page"`
}

type GeneratorConfig struct {
	Concurrency int    `yaml:"concurrency"`
	Seed        uint64 `yaml:"seed"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	MaxSessions    int           `yaml:"max_sessions"`
}

type GroqConfig struct {
	Model        string `yaml:"model"`
	KeywordCount int    `yaml:"keyword_count"`
	PromptsPath  string `yaml:"prompts_path"`
}

type DownloadConfig struct {
	Dir                string `yaml:"dir"`
	GCSBucket          string `yaml:"gcs_bucket"`
	GCSPrefix          string `yaml:"gcs_prefix"`
	GCSCredentialsFile string `yaml:"gcs_credentials_file"`
}

func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, defaultConfigPath)
}

func LoadFrom(ctx context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}

	cfg.UnsplashAccessKey = os.Getenv("UNSPLASH_ACCESS_KEY")
	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.GCPProject = os.Getenv("GOOGLE_CLOUD_PROJECT")
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if bucket := os.Getenv("GCS_BUCKET"); bucket != "" {
		cfg.Download.GCSBucket = bucket
	}

	if err := loadSecrets(ctx, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No config file found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// loadSecrets fills credentials that are missing from the environment from
// Secret Manager when a project is configured.
func loadSecrets(ctx context.Context, cfg *Config) error {
	if cfg.GCPProject == "" || (cfg.UnsplashAccessKey != "" && cfg.GroqAPIKey != "") {
		return nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		slog.Warn("Secret Manager unavailable, relying on environment variables", "error", err)
		return nil
	}
	defer func() { _ = client.Close() }()

	if cfg.UnsplashAccessKey == "" {
		cfg.UnsplashAccessKey = accessSecret(ctx, client, cfg.GCPProject, "UNSPLASH_ACCESS_KEY")
	}
	if cfg.GroqAPIKey == "" {
		cfg.GroqAPIKey = accessSecret(ctx, client, cfg.GCPProject, "GROQ_API_KEY")
	}
	return nil
}

func accessSecret(ctx context.Context, client *secretmanager.Client, project, name string) string {
	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretVersionName(project, name),
	})
	if err != nil {
		slog.Debug("Secret not found", "name", name, "error", err)
		return ""
	}
	return strings.TrimSpace(string(resp.GetPayload().GetData()))
}

func secretVersionName(project, name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, name)
}

func applyDefaults(cfg *Config) {
	applyKeywordsDefaults(cfg)
	applyUnsplashDefaults(cfg)
	applyGeneratorDefaults(cfg)
	applyServerDefaults(cfg)
	applyGroqDefaults(cfg)
	applyDownloadDefaults(cfg)
}

func applyKeywordsDefaults(cfg *Config) {
	if cfg.Keywords.Endpoint == "" {
		cfg.Keywords.Endpoint = defaultKeywordsEndpoint
	}
}

func applyUnsplashDefaults(cfg *Config) {
	if cfg.Unsplash.BaseURL == "" {
		cfg.Unsplash.BaseURL = defaultUnsplashBaseURL
	}
	if cfg.Unsplash.PerPage <= 0 {
		cfg.Unsplash.PerPage = defaultPerPage
	}
}

func applyGeneratorDefaults(cfg *Config) {
	if cfg.Generator.Concurrency <= 0 {
		cfg.Generator.Concurrency = defaultConcurrency
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = defaultPort
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = defaultAllowedOrigins
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = defaultSessionTTL
	}
	if cfg.Server.MaxSessions <= 0 {
		cfg.Server.MaxSessions = defaultMaxSessions
	}
}

func applyGroqDefaults(cfg *Config) {
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
	if cfg.Groq.KeywordCount <= 0 {
		cfg.Groq.KeywordCount = defaultKeywordCount
	}
}

func applyDownloadDefaults(cfg *Config) {
	if cfg.Download.Dir == "" {
		cfg.Download.Dir = defaultDownloadDir
	}
}

// ValidateGenerate checks what a generation cycle needs.
func (c *Config) ValidateGenerate() error {
	if c.UnsplashAccessKey == "" {
		return ErrMissingUnsplashKey
	}
	if c.Keywords.Endpoint == "" {
		return errors.New("keywords endpoint cannot be empty")
	}
	return nil
}

// ValidateServe checks what the web server needs. The keyword API is only
// mounted with a Groq key, so that key is optional here.
func (c *Config) ValidateServe() error {
	if err := c.ValidateGenerate(); err != nil {
		return err
	}
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}
	return nil
}
