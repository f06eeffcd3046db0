package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for linkarchive.
type Config struct {
	Renderer RendererConfig `mapstructure:"renderer" yaml:"renderer"`
	YouTube  YouTubeConfig  `mapstructure:"youtube"  yaml:"youtube"`
	AI       AIConfig       `mapstructure:"ai"       yaml:"ai"`
	Extract  ExtractConfig  `mapstructure:"extract"  yaml:"extract"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// RendererConfig selects and configures the page rendering backend.
type RendererConfig struct {
	Type        string           `mapstructure:"type"          yaml:"type"` // browser, http, cloudflare
	Timeout     time.Duration    `mapstructure:"timeout"       yaml:"timeout"`
	UserAgent   string           `mapstructure:"user_agent"    yaml:"user_agent"`
	MaxBodySize int64            `mapstructure:"max_body_size" yaml:"max_body_size"`
	Stealth     bool             `mapstructure:"stealth"       yaml:"stealth"`
	WaitStable  time.Duration    `mapstructure:"wait_stable"   yaml:"wait_stable"`
	Cloudflare  CloudflareConfig `mapstructure:"cloudflare"    yaml:"cloudflare"`
}

// CloudflareConfig configures the hosted browser rendering API.
type CloudflareConfig struct {
	AccountID string `mapstructure:"account_id" yaml:"account_id"`
	APIToken  string `mapstructure:"api_token"  yaml:"api_token"`
	Endpoint  string `mapstructure:"endpoint"   yaml:"endpoint"`
}

// YouTubeConfig configures video metadata and transcript retrieval.
type YouTubeConfig struct {
	APIKey         string        `mapstructure:"api_key"          yaml:"api_key"`
	DataAPIBaseURL string        `mapstructure:"data_api_base_url" yaml:"data_api_base_url"`
	OEmbedURL      string        `mapstructure:"oembed_url"       yaml:"oembed_url"`
	WatchBaseURL   string        `mapstructure:"watch_base_url"   yaml:"watch_base_url"`
	Languages      []string      `mapstructure:"languages"        yaml:"languages"`
	Timeout        time.Duration `mapstructure:"timeout"          yaml:"timeout"`
}

// AIConfig controls the text generation backend.
type AIConfig struct {
	Provider      string        `mapstructure:"provider"        yaml:"provider"` // ollama, openai, anthropic
	Model         string        `mapstructure:"model"           yaml:"model"`
	Endpoint      string        `mapstructure:"endpoint"        yaml:"endpoint"`
	APIKey        string        `mapstructure:"api_key"         yaml:"api_key"`
	MaxTokens     int           `mapstructure:"max_tokens"      yaml:"max_tokens"`
	Temperature   float64       `mapstructure:"temperature"     yaml:"temperature"`
	Timeout       time.Duration `mapstructure:"timeout"         yaml:"timeout"`
	MaxInputChars int           `mapstructure:"max_input_chars" yaml:"max_input_chars"`
}

// ExtractConfig controls web content extraction.
type ExtractConfig struct {
	Readability bool `mapstructure:"readability" yaml:"readability"`
	MaxTags     int  `mapstructure:"max_tags"    yaml:"max_tags"`
}

// StorageConfig selects the persistence gateway.
type StorageConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"` // sqlite, mongodb, memory
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	MongoURI   string `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	MongoDB    string `mapstructure:"mongo_db"    yaml:"mongo_db"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the end-of-run Prometheus textfile.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// DefaultModels is the model used per AI provider when none is configured.
var DefaultModels = map[string]string{
	"ollama":    "granite3.2:8b",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-5",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Renderer: RendererConfig{
			Type:        "browser",
			Timeout:     45 * time.Second,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxBodySize: 10 * 1024 * 1024, // 10MB
			Stealth:     true,
			WaitStable:  500 * time.Millisecond,
		},
		YouTube: YouTubeConfig{
			DataAPIBaseURL: "https://www.googleapis.com/youtube/v3",
			OEmbedURL:      "https://www.youtube.com/oembed",
			WatchBaseURL:   "https://www.youtube.com",
			Languages:      []string{"en"},
			Timeout:        20 * time.Second,
		},
		AI: AIConfig{
			Provider:      "ollama",
			Model:         DefaultModels["ollama"],
			Endpoint:      "http://localhost:11434",
			MaxTokens:     1024,
			Temperature:   0.2,
			Timeout:       180 * time.Second,
			MaxInputChars: 100000,
		},
		Extract: ExtractConfig{
			Readability: true,
			MaxTags:     10,
		},
		Storage: StorageConfig{
			Type:       "sqlite",
			SQLitePath: "./linkarchive.db",
			MongoURI:   "mongodb://localhost:27017",
			MongoDB:    "linkarchive",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
