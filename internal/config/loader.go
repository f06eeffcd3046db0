package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// credentialEnv maps well-known credential variables onto config keys, so a plain
// .env file works without the LINKARCHIVE_ prefix.
var credentialEnv = map[string]string{
	"renderer.cloudflare.account_id": "CLOUDFLARE_ACCOUNT_ID",
	"renderer.cloudflare.api_token":  "CLOUDFLARE_API_TOKEN",
	"renderer.cloudflare.endpoint":   "CLOUDFLARE_BROWSER_RENDERING_API_URL",
	"youtube.api_key":                "YOUTUBE_API_KEY",
}

// providerKeyEnv names the conventional API key variable per AI provider.
var providerKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Load reads configuration from file, environment, and .env.
// Priority (highest to lowest): env vars > .env > config file > defaults.
// CLI flags are applied by the caller on top of the returned config.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(configPath); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("LINKARCHIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range credentialEnv {
		_ = v.BindEnv(key, "LINKARCHIVE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("linkarchive")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".linkarchive"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ResolveProvider(cfg)
	return cfg, nil
}

// ResolveProvider fills provider-dependent AI settings. An empty ai.api_key is
// read from the provider's conventional variable (OPENAI_API_KEY,
// ANTHROPIC_API_KEY). An empty model, or the Ollama default left in place for
// a hosted provider, becomes that provider's entry in DefaultModels.
func ResolveProvider(cfg *Config) {
	if cfg.AI.APIKey == "" {
		if env, ok := providerKeyEnv[cfg.AI.Provider]; ok {
			cfg.AI.APIKey = os.Getenv(env)
		}
	}

	model, ok := DefaultModels[cfg.AI.Provider]
	if !ok {
		return
	}
	if cfg.AI.Model == "" || (cfg.AI.Provider != "ollama" && cfg.AI.Model == DefaultModels["ollama"]) {
		cfg.AI.Model = model
	}
}

// loadDotEnv loads a .env file next to the config file, or from the working
// directory. Variables already set in the environment win.
func loadDotEnv(configPath string) error {
	path := ".env"
	if configPath != "" {
		path = filepath.Join(filepath.Dir(configPath), ".env")
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("renderer.type", cfg.Renderer.Type)
	v.SetDefault("renderer.timeout", cfg.Renderer.Timeout)
	v.SetDefault("renderer.user_agent", cfg.Renderer.UserAgent)
	v.SetDefault("renderer.max_body_size", cfg.Renderer.MaxBodySize)
	v.SetDefault("renderer.stealth", cfg.Renderer.Stealth)
	v.SetDefault("renderer.wait_stable", cfg.Renderer.WaitStable)
	v.SetDefault("renderer.cloudflare.account_id", "")
	v.SetDefault("renderer.cloudflare.api_token", "")
	v.SetDefault("renderer.cloudflare.endpoint", "")

	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.data_api_base_url", cfg.YouTube.DataAPIBaseURL)
	v.SetDefault("youtube.oembed_url", cfg.YouTube.OEmbedURL)
	v.SetDefault("youtube.watch_base_url", cfg.YouTube.WatchBaseURL)
	v.SetDefault("youtube.languages", cfg.YouTube.Languages)
	v.SetDefault("youtube.timeout", cfg.YouTube.Timeout)

	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.temperature", cfg.AI.Temperature)
	v.SetDefault("ai.timeout", cfg.AI.Timeout)
	v.SetDefault("ai.max_input_chars", cfg.AI.MaxInputChars)

	v.SetDefault("extract.readability", cfg.Extract.Readability)
	v.SetDefault("extract.max_tags", cfg.Extract.MaxTags)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_db", cfg.Storage.MongoDB)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.textfile", "")
}
