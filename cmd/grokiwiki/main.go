// Package main is the grokiwiki CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AppleLamps/grokiwiki/internal/cli"
	"github.com/AppleLamps/grokiwiki/internal/config"
	"github.com/AppleLamps/grokiwiki/internal/fetcher"
	"github.com/AppleLamps/grokiwiki/internal/llm"
	"github.com/AppleLamps/grokiwiki/internal/models"
	"github.com/AppleLamps/grokiwiki/internal/server"
	"github.com/AppleLamps/grokiwiki/internal/sitemap"
	"github.com/AppleLamps/grokiwiki/internal/slugindex"
	"github.com/AppleLamps/grokiwiki/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/grokiwiki/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "grokiwiki server" from the project dir picks up the
// project's config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "build":
		runBuild()
	case "fetch-sitemaps":
		runFetchSitemaps()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("grokiwiki version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Bool("persisted_index", cfg.Index.Persisted),
		zap.String("backend", cfg.Index.Backend),
	)

	ctx := context.Background()
	index, err := slugindex.Open(ctx, &cfg.Index, logger)
	if err != nil {
		logger.Fatal("Failed to open slug index", zap.Error(err))
	}
	defer index.Close()

	fetchTimeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
	wiki := fetcher.NewWikipediaClient(cfg.Fetch.WikipediaAPIBase, cfg.Fetch.UserAgent, fetchTimeout)
	scraper := fetcher.NewFirecrawlClient(cfg.Fetch.FirecrawlAPIURL, cfg.Fetch.FirecrawlAPIKey, fetchTimeout)
	grok := fetcher.NewGrokipediaClient(cfg.Fetch.GrokipediaBase, scraper)
	llmClient := llm.NewClient(cfg.LLM.APIURL, cfg.LLM.APIKey, cfg.LLM.Model,
		cfg.LLM.Referer, cfg.LLM.AppTitle, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
	if !llmClient.Available() {
		logger.Warn("no LLM API key configured, compare responses will omit summaries")
	}

	srv := server.NewServer(index, wiki, grok, llmClient, cfg, logger, server.NewMetrics())
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	linksDir := fs.String("links-dir", "", "sitemap links directory (default from config)")
	backend := fs.String("backend", "", "index backend to build: sqlite, bleve, or all (default from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dir := cfg.Index.LinksDir
	if *linksDir != "" {
		dir = *linksDir
	}
	target := cfg.Index.Backend
	if *backend != "" {
		target = *backend
	}

	ctx := context.Background()
	builder := slugindex.NewBuilder(slugindex.WithLogger(logger))
	start := time.Now()
	records, err := builder.ReadLinksDir(ctx, dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Reading links failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Read %d slugs from %s in %s\n", len(records), dir, time.Since(start).Round(time.Millisecond))

	if target == slugindex.BackendSQLite || target == "all" {
		start = time.Now()
		if err := builder.BuildSQLite(ctx, records, cfg.Index.DatabasePath); err != nil {
			fmt.Fprintf(os.Stderr, "SQLite build failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Built SQLite index at %s in %s\n", cfg.Index.DatabasePath, time.Since(start).Round(time.Millisecond))
	}
	if target == slugindex.BackendBleve || target == "all" {
		start = time.Now()
		if err := builder.BuildBleve(ctx, records, cfg.Index.BleveIndexPath); err != nil {
			fmt.Fprintf(os.Stderr, "Bleve build failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Built Bleve index at %s in %s\n", cfg.Index.BleveIndexPath, time.Since(start).Round(time.Millisecond))
	}
}

func runFetchSitemaps() {
	fs := flag.NewFlagSet("fetch-sitemaps", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	destDir := fs.String("dest", "", "destination directory (default from config links_dir)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dest := cfg.Index.LinksDir
	if *destDir != "" {
		dest = *destDir
	}

	client := sitemap.NewClient(cfg.Fetch.SitemapIndexURL, cfg.Fetch.UserAgent,
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second, logger)
	start := time.Now()
	total, err := client.Download(context.Background(), dest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sitemap download failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Downloaded %d page entries to %s in %s\n", total, dest, time.Since(start).Round(time.Second))
}

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the index directly)")
	limit := fs.Int("limit", 0, "number of suggestions (default from config)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: grokiwiki search [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: grokiwiki search [flags] <query>")
		os.Exit(1)
	}

	format, ok := parseOutputFormat(*outputFormat)
	if !ok {
		fmt.Printf("Unknown output format %q; use text, compact, or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids SQLite/Bleve
		// lock conflicts with the server's open handle).
		response, err := suggestViaHTTP(*serverURL, queryStr, *limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSuggestions(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct index access (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	index, err := slugindex.Open(ctx, &cfg.Index, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open slug index: %v\n", err)
		os.Exit(1)
	}
	defer index.Close()

	n := *limit
	if n <= 0 {
		n = cfg.Search.DefaultLimit
	}
	start := time.Now()
	results, err := index.Search(ctx, queryStr, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	response := &models.SuggestResponse{
		Query:       queryStr,
		Suggestions: results,
		Total:       len(results),
		QueryTime:   time.Since(start).Milliseconds(),
	}
	if response.Suggestions == nil {
		response.Suggestions = []models.SlugRecord{}
	}
	if err := cli.WriteSuggestions(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func suggestViaHTTP(serverURL, query string, limit int) (*models.SuggestResponse, error) {
	u := serverURL + "/api/v1/suggest?q=" + url.QueryEscape(query)
	if limit > 0 {
		u += fmt.Sprintf("&limit=%d", limit)
	}
	resp, err := http.Get(u)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SuggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the index directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, ok := parseOutputFormat(*outputFormat)
	if !ok || format == cli.OutputCompact {
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	var status map[string]interface{}
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		ctx := context.Background()
		index, err := slugindex.Open(ctx, &cfg.Index, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open slug index: %v\n", err)
			os.Exit(1)
		}
		defer index.Close()

		count, err := index.Count(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
			os.Exit(1)
		}
		status = map[string]interface{}{
			"slugs":     count,
			"persisted": cfg.Index.Persisted,
			"backend":   cfg.Index.Backend,
		}
		if cfg.Index.Persisted {
			if diskBytes, err := slugindex.DiskUsageBytes(cfg.Index.DatabasePath, cfg.Index.BleveIndexPath); err == nil {
				status["disk_usage_bytes"] = diskBytes
			}
		}
	}

	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (map[string]interface{}, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return status, nil
}

func parseOutputFormat(s string) (cli.OutputFormat, bool) {
	switch s {
	case "text":
		return cli.OutputText, true
	case "json":
		return cli.OutputJSON, true
	case "compact":
		return cli.OutputCompact, true
	default:
		return cli.OutputText, false
	}
}

func printUsage() {
	fmt.Println(`grokiwiki - Grokipedia vs Wikipedia article comparator

Usage:
  grokiwiki server [flags]            Start the HTTP server
  grokiwiki build [flags]             Build the persisted slug index from sitemap links
  grokiwiki fetch-sitemaps [flags]    Download Grokipedia sitemaps into the links directory
  grokiwiki search [flags] <query>    Suggest article slugs for a query
  grokiwiki status [flags]            Show slug index status
  grokiwiki version                   Show version
  grokiwiki help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/grokiwiki/config.yaml)
  --debug            Enable debug logging

Build Flags:
  --config string    Config file path
  --links-dir string Sitemap links directory (default from config)
  --backend string   Index backend to build: sqlite, bleve, or all (default from config)

Fetch-sitemaps Flags:
  --config string    Config file path
  --dest string      Destination directory (default from config links_dir)

Search Flags:
  --config string    Config file path (for direct index mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to open the index directly.
  --limit int        Number of suggestions (default from config)
  --output string    Output format: text, compact, or json (default: text)

Status Flags:
  --config string    Config file path (for direct index mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to open the index directly.
  --output string    Output format: text or json (default: text)

Examples:
  grokiwiki fetch-sitemaps
  grokiwiki build --backend all
  grokiwiki server
  grokiwiki search albert einstein
  grokiwiki search --output json "quantum mechanics"
  grokiwiki status --output json`)
}
