package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/linkarchive/internal/ai"
	"github.com/IshaanNene/linkarchive/internal/config"
	"github.com/IshaanNene/linkarchive/internal/extract"
	"github.com/IshaanNene/linkarchive/internal/fetcher"
	"github.com/IshaanNene/linkarchive/internal/ingest"
	"github.com/IshaanNene/linkarchive/internal/observability"
	"github.com/IshaanNene/linkarchive/internal/storage"
)

var (
	rendererType    string
	llmProvider     string
	llmModel        string
	llmEndpoint     string
	storeType       string
	dryRun          bool
	urlFile         string
	metricsTextfile string
)

// ingestCmd creates the "ingest" subcommand.
func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [urls...]",
		Short: "Ingest URLs into the archive",
		Long: `Ingest an ordered list of URLs, one at a time.

A failing URL is reported and skipped; the rest of the batch continues.
The exit status is non-zero if any URL failed.

Examples:
  linkarchive ingest https://example.com/post https://youtu.be/abc123
  linkarchive ingest --file links.txt --llm anthropic --model claude-sonnet-4-5
  linkarchive ingest --dry-run --store memory https://example.com/post`,
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&rendererType, "renderer", "", "page renderer: browser, http, cloudflare")
	cmd.Flags().StringVar(&llmProvider, "llm", "", "text generation backend: ollama, openai, anthropic")
	cmd.Flags().StringVar(&llmModel, "model", "", "model name for the text generation backend")
	cmd.Flags().StringVar(&llmEndpoint, "llm-endpoint", "", "text generation endpoint URL")
	cmd.Flags().StringVar(&storeType, "store", "", "storage backend: sqlite, mongodb, memory")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "extract and summarize without writing to storage")
	cmd.Flags().StringVarP(&urlFile, "file", "f", "", "read URLs from a file, one per line")
	cmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(&cfg.Logging)

	urls := args
	if urlFile != "" {
		fromFile, err := readURLFile(urlFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given; pass them as arguments or with --file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, stopping after the current URL fails", "signal", sig)
		cancel()
	}()

	// Setup storage
	gateway, err := storage.New(ctx, &cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = gateway.Close() }()

	// Setup renderer and extractors
	renderer, err := fetcher.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer func() { _ = renderer.Close() }()

	web := extract.NewWebExtractor(renderer, extract.NewMarkdownConverter(cfg.Extract.Readability), logger)
	video := extract.NewVideoExtractor(&cfg.YouTube, logger)

	// Setup text generation
	gen, err := ai.NewGenerator(&cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("create text generator: %w", err)
	}
	summarizer := ai.NewSummarizer(gen, cfg.AI.MaxInputChars, logger)

	orch := ingest.New(gateway, ingest.Options{
		DryRun:  dryRun,
		MaxTags: cfg.Extract.MaxTags,
	}, logger)
	orch.SetWebScraper(web)
	orch.SetVideoFetcher(video)
	orch.SetSummarizer(summarizer)

	var metrics *observability.Metrics
	if cfg.Metrics.Textfile != "" {
		metrics = observability.NewMetrics(logger)
		orch.SetMetrics(metrics)
	}

	logger.Info("starting ingestion",
		"urls", len(urls),
		"renderer", renderer.Type(),
		"llm", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"storage", gateway.Name(),
	)

	report, err := orch.Run(ctx, urls)
	if err != nil {
		return err
	}

	fmt.Println()
	report.Render(os.Stdout)

	if metrics != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics", "error", err)
		}
	}

	exitCode = report.ExitCode()
	return nil
}

// readURLFile reads one URL per line. Blank lines and lines starting with
// '#' are skipped.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if rendererType != "" {
		cfg.Renderer.Type = strings.ToLower(rendererType)
	}
	if llmProvider != "" {
		cfg.AI.Provider = strings.ToLower(llmProvider)
		config.ResolveProvider(cfg)
	}
	if llmModel != "" {
		cfg.AI.Model = llmModel
	}
	if llmEndpoint != "" {
		cfg.AI.Endpoint = llmEndpoint
	}
	if storeType != "" {
		cfg.Storage.Type = strings.ToLower(storeType)
	}
	if metricsTextfile != "" {
		cfg.Metrics.Textfile = metricsTextfile
	}
}
