// Command screenshotter captures Polymarket market pages as share images.
//
// Usage:
//
//	screenshotter -url https://polymarket.com/event/some-market   # one capture to a file
//	screenshotter -config screenshotter.yaml -mcp                 # serve capture tools over MCP stdio
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/parkermclaren/polymarket-screenshotter/capture"
	"github.com/parkermclaren/polymarket-screenshotter/observability"
)

func main() {
	configPath := flag.String("config", "", "path to screenshotter.yaml config file")
	url := flag.String("url", "", "Polymarket event or market URL to capture")
	aspect := flag.String("aspect", "twitter", "canvas aspect: twitter or square")
	timeRange := flag.String("time-range", "", "chart time range: 1h, 6h, 1d, 1w, 1m, max")
	watermark := flag.String("watermark", "none", "watermark mode: none, wordmark, icon")
	investment := flag.Float64("investment", 0, "annotate buy buttons with payout for this USD amount")
	out := flag.String("out", "", "output path (default: generated file name in cwd)")
	debugLayout := flag.Bool("debug-layout", false, "draw layout-region outlines on the capture")
	serveMCP := flag.Bool("mcp", false, "serve capture tools over MCP stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *url, *aspect, *timeRange, *watermark, *investment, *out, *debugLayout, *serveMCP); err != nil {
		logger.Error("screenshotter: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, url, aspect, timeRange, watermark string, investment float64, out string, debugLayout, serveMCP bool) error {
	cfg := capture.DefaultConfig()
	if configPath != "" {
		loaded, err := capture.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	var opts []capture.Option
	if cfg.Observability.DBPath != "" {
		db, err := sql.Open("sqlite", cfg.Observability.DBPath)
		if err != nil {
			return fmt.Errorf("open audit db: %w", err)
		}
		defer db.Close()
		if err := observability.Init(db); err != nil {
			return fmt.Errorf("init audit db: %w", err)
		}
		if err := observability.Cleanup(ctx, db, cfg.Observability.RetentionDays); err != nil {
			logger.Warn("screenshotter: audit retention cleanup failed", "error", err)
		}
		opts = append(opts, capture.WithEventLogger(observability.NewEventLogger(db)))
	}

	svc := capture.New(cfg, logger, opts...)
	defer svc.Close()

	if serveMCP {
		return runMCP(ctx, svc)
	}
	if url != "" {
		return runOnce(ctx, svc, capture.Request{
			SourceURL:   url,
			Aspect:      capture.Aspect(aspect),
			TimeRange:   timeRange,
			Watermark:   watermark,
			DebugLayout: debugLayout,
			Payout:      capture.PayoutOptions{InvestmentUSD: investment},
		}, out)
	}

	fmt.Fprintln(os.Stderr, "usage: screenshotter -url <url> [flags] | -mcp [-config <file>]")
	os.Exit(1)
	return nil
}

func runOnce(ctx context.Context, svc *capture.Service, req capture.Request, out string) error {
	res := svc.Capture(ctx, req)
	if !res.Success {
		return res.Err
	}

	path := out
	if path == "" {
		path = res.FileName
	}
	if err := os.WriteFile(path, res.ImageBytes, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	fmt.Println(path)
	return nil
}

func runMCP(ctx context.Context, svc *capture.Service) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "polymarket-screenshotter",
		Version: "1.0.0",
	}, nil)
	svc.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}
