package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/linkarchive/internal/config"
)

var (
	cfgFile  string
	verbose  bool
	exitCode int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "linkarchive",
		Short: "Archive articles, blog posts and videos with AI summaries",
		Long: `linkarchive ingests a list of URLs into a content archive.

For every URL it:
  • classifies the link (article, blog post, video)
  • renders and extracts the page, or fetches video metadata and captions
  • generates a short and an extended summary plus tags
  • upserts the record by source URL with a stable, unique slug

Re-ingesting a URL refreshes its content and tags but keeps its slug.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("linkarchive %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cfg)
			fmt.Printf("Renderer:\n")
			fmt.Printf("  Type:             %s\n", cfg.Renderer.Type)
			fmt.Printf("  Timeout:          %s\n", cfg.Renderer.Timeout)
			fmt.Printf("  Stealth:          %v\n", cfg.Renderer.Stealth)
			fmt.Printf("  Cloudflare token: %s\n", secret(cfg.Renderer.Cloudflare.APIToken))
			fmt.Printf("\nYouTube:\n")
			fmt.Printf("  Data API key:     %s\n", secret(cfg.YouTube.APIKey))
			fmt.Printf("  Languages:        %s\n", strings.Join(cfg.YouTube.Languages, ", "))
			fmt.Printf("\nAI:\n")
			fmt.Printf("  Provider:         %s\n", cfg.AI.Provider)
			fmt.Printf("  Model:            %s\n", cfg.AI.Model)
			fmt.Printf("  Endpoint:         %s\n", cfg.AI.Endpoint)
			fmt.Printf("  API key:          %s\n", secret(cfg.AI.APIKey))
			fmt.Printf("  Max input chars:  %d\n", cfg.AI.MaxInputChars)
			fmt.Printf("\nExtract:\n")
			fmt.Printf("  Readability:      %v\n", cfg.Extract.Readability)
			fmt.Printf("  Max tags:         %d\n", cfg.Extract.MaxTags)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:             %s\n", cfg.Storage.Type)
			fmt.Printf("  SQLite path:      %s\n", cfg.Storage.SQLitePath)
			fmt.Printf("  MongoDB:          %s/%s\n", cfg.Storage.MongoURI, cfg.Storage.MongoDB)
			fmt.Printf("\nMetrics textfile:   %s\n", cfg.Metrics.Textfile)
			if err := config.Validate(cfg); err != nil {
				fmt.Printf("\n⚠️  %v\n", err)
			}
			return nil
		},
	}
}

func secret(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "(set)"
}

// setupLogger creates the root structured logger.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
