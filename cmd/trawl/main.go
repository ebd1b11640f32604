package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/five82/trawl/internal/app"
	"github.com/five82/trawl/internal/config"
)

// Set by LDFLAGS
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "config file path (default ~/.config/trawl/config.toml)")
	prefsPath := flag.String("prefs", "", "preferences file path (default ~/.config/trawl/prefs.toml)")
	hubURL := flag.String("hub", "", "hub address, e.g. http://127.0.0.1:8898 (or set TRAWL_HUB_URL)")
	filter := flag.String("filter", "", "initial traffic filter (or set TRAWL_FILTER)")
	pageSize := flag.Int("page-size", 0, "entries per history page")
	fetchTimeout := flag.Duration("fetch-timeout", 0, "timeout for one history page request")
	bufferCapacity := flag.Int("buffer", 0, "maximum live entries kept before the oldest are evicted")
	logFile := flag.String("log-file", "", "log file path, empty disables logging")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error (or set TRAWL_LOG_LEVEL)")
	metricsAddr := flag.String("metrics-addr", "", "address to serve prometheus metrics on, e.g. 127.0.0.1:9464 (or set TRAWL_METRICS_ADDR)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("trawl", version)
		return 0
	}

	// Load .env file. godotenv does not override existing env vars, so
	// process env and explicit exports take precedence.
	_ = godotenv.Load()

	override := func(c *config.Config) {
		if flag.CommandLine.Changed("hub") {
			c.HubURL = *hubURL
		}
		if flag.CommandLine.Changed("filter") {
			c.Filter = *filter
		}
		if flag.CommandLine.Changed("page-size") {
			c.PageSize = *pageSize
		}
		if flag.CommandLine.Changed("fetch-timeout") {
			c.FetchTimeout = *fetchTimeout
		}
		if flag.CommandLine.Changed("buffer") {
			c.BufferCapacity = *bufferCapacity
		}
		if flag.CommandLine.Changed("log-file") {
			c.LogFile = *logFile
		}
		if flag.CommandLine.Changed("log-level") {
			c.LogLevel = *logLevel
		}
		if flag.CommandLine.Changed("metrics-addr") {
			c.MetricsAddr = *metricsAddr
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Override:   override,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "trawl: %v\n", err)
		return 1
	}
	return 0
}
