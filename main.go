// wikiread MCP Server - A Model Context Protocol server for reading MediaWiki wikis.
// Provides tools for searching a wiki and reading parsed articles.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olgasafonova/wikiread-mcp-server/internal/wiki"
	"github.com/olgasafonova/wikiread-mcp-server/tools"
	"github.com/olgasafonova/wikiread-mcp-server/tracing"
)

const (
	ServerName    = "wikiread-mcp-server"
	ServerVersion = "1.0.0"
)

func main() {
	// Configure logging to stderr (stdout is used for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := run(logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := wiki.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	client, err := wiki.NewClient(*config, wiki.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create wiki client: %w", err)
	}
	defer client.Close()

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		metricsServer := startMetricsServer(addr, logger)
		defer func() { _ = metricsServer.Close() }()
	}

	server, count := newServer(client, logger)

	logger.Info("Starting wikiread MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"wiki_url", config.BaseURL,
		"parser", client.ParserName(),
		"tools", count,
	)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newServer creates the MCP server and registers every tool on it.
func newServer(client *wiki.Client, logger *slog.Logger) (*mcp.Server, int) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Instructions: serverInstructions(client.Config().BaseURL),
	})

	count := tools.NewHandlerRegistry(client, logger).RegisterAll(server)
	return server, count
}

func serverInstructions(baseURL string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "wikiread MCP Server reads articles from the MediaWiki site at %s.\n\nAvailable tools:\n", baseURL)
	for _, spec := range tools.AllTools {
		fmt.Fprintf(&sb, "- %s: %s\n", spec.Name, firstLine(spec.Description))
	}
	sb.WriteString(`
Typical flow: wiki_search, then wiki_get_article with a page_id from the hits,
then wiki_open_article with a target from the article's links.

Configure via environment variables:
- WIKI_BASE_URL: Wiki root URL (default https://en.wikipedia.org)
- WIKI_USER_AGENT: User-Agent header sent to the wiki
- WIKI_TIMEOUT: Request timeout (e.g. 30s)
- WIKI_PARSER: Article parser, "default" or "markdown"
- WIKI_CONFIG: Optional YAML config file
- METRICS_ADDR: Serve Prometheus metrics on this address`)
	return sb.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// metricsMux serves Prometheus metrics and a liveness check.
func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func startMetricsServer(addr string, logger *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	return srv
}
