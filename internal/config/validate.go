package config

import (
	"fmt"
	"net/url"

	"github.com/IshaanNene/linkarchive/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	switch cfg.Renderer.Type {
	case "browser", "http":
	case "cloudflare":
		if cfg.Renderer.Cloudflare.Endpoint == "" && cfg.Renderer.Cloudflare.AccountID == "" {
			return fmt.Errorf("renderer.cloudflare requires account_id or endpoint")
		}
		if cfg.Renderer.Cloudflare.APIToken == "" {
			return fmt.Errorf("renderer.cloudflare.api_token is required")
		}
	default:
		return fmt.Errorf("renderer.type must be 'browser', 'http' or 'cloudflare', got %q", cfg.Renderer.Type)
	}
	if cfg.Renderer.Timeout <= 0 {
		return fmt.Errorf("renderer.timeout must be > 0")
	}
	if cfg.Renderer.MaxBodySize <= 0 {
		return fmt.Errorf("renderer.max_body_size must be > 0")
	}
	if cfg.Renderer.WaitStable < 0 {
		return fmt.Errorf("renderer.wait_stable must be >= 0")
	}

	if cfg.YouTube.Timeout <= 0 {
		return fmt.Errorf("youtube.timeout must be > 0")
	}
	for name, raw := range map[string]string{
		"youtube.data_api_base_url": cfg.YouTube.DataAPIBaseURL,
		"youtube.oembed_url":        cfg.YouTube.OEmbedURL,
		"youtube.watch_base_url":    cfg.YouTube.WatchBaseURL,
	} {
		if err := ValidateURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	switch cfg.AI.Provider {
	case "ollama":
		if err := ValidateURL(cfg.AI.Endpoint); err != nil {
			return fmt.Errorf("ai.endpoint: %w", err)
		}
	case "openai", "anthropic":
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required for provider %q", cfg.AI.Provider)
		}
	default:
		return fmt.Errorf("ai.provider must be 'ollama', 'openai' or 'anthropic', got %q", cfg.AI.Provider)
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if cfg.AI.MaxTokens < 1 {
		return fmt.Errorf("ai.max_tokens must be >= 1, got %d", cfg.AI.MaxTokens)
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be between 0 and 2, got %v", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout <= 0 {
		return fmt.Errorf("ai.timeout must be > 0")
	}
	if cfg.AI.MaxInputChars < 1 {
		return fmt.Errorf("ai.max_input_chars must be >= 1, got %d", cfg.AI.MaxInputChars)
	}

	if cfg.Extract.MaxTags < 1 {
		return fmt.Errorf("extract.max_tags must be >= 1, got %d", cfg.Extract.MaxTags)
	}

	switch cfg.Storage.Type {
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required")
		}
	case "mongodb":
		if cfg.Storage.MongoURI == "" || cfg.Storage.MongoDB == "" {
			return fmt.Errorf("storage.mongo_uri and storage.mongo_db are required")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: sqlite, mongodb, memory)", cfg.Storage.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &types.InvalidURLError{URL: rawURL, Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &types.InvalidURLError{URL: rawURL, Reason: fmt.Sprintf("scheme must be http or https, got %q", u.Scheme)}
	}
	if u.Host == "" {
		return &types.InvalidURLError{URL: rawURL, Reason: "missing host"}
	}
	return nil
}
