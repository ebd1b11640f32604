package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/five82/trawl/internal/config"
	"github.com/five82/trawl/internal/hub"
	"github.com/five82/trawl/internal/logging"
	"github.com/five82/trawl/internal/metrics"
	"github.com/five82/trawl/internal/prefs"
	"github.com/five82/trawl/internal/state"
	"github.com/five82/trawl/internal/tail"
	"github.com/five82/trawl/internal/ui"
)

// Options configure the trawl application.
type Options struct {
	ConfigPath string // empty uses ~/.config/trawl/config.toml
	PrefsPath  string // empty uses ~/.config/trawl/prefs.toml

	// Override runs after the config file and environment are applied, so
	// command-line flags win over both.
	Override func(*config.Config)
}

// Run boots the tail and the TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	log, closer, err := openLogger(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		log.Warn("loading preferences failed", "path", prefsPath, "error", err)
	}
	filter := initialFilter(cfg, userPrefs)

	client, err := hub.NewClient(cfg.HubURL)
	if err != nil {
		return fmt.Errorf("init hub client: %w", err)
	}
	dialer, err := hub.NewWSDialer(cfg.HubURL)
	if err != nil {
		return fmt.Errorf("init hub feed: %w", err)
	}

	clock := clockwork.NewRealClock()
	store := state.NewStore(clock)
	actor, err := tail.NewActor(tail.Config{
		Logger:         log.With("component", "tail"),
		Clock:          clock,
		Fetcher:        client,
		Dialer:         dialer,
		Publisher:      store,
		Notifier:       store,
		BufferCapacity: cfg.BufferCapacity,
		PageSize:       cfg.PageSize,
		FetchTimeout:   cfg.FetchTimeout,
	})
	if err != nil {
		return fmt.Errorf("init tail: %w", err)
	}

	log.Info("trawl starting",
		"hub", client.BaseURL().String(),
		"feed", dialer.URL(),
		"filter", filter,
		"page_size", cfg.PageSize,
		"buffer_capacity", cfg.BufferCapacity,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return actor.Run(gctx)
	})
	g.Go(func() error {
		return metrics.Serve(gctx, cfg.MetricsAddr, log.With("component", "metrics"))
	})
	g.Go(func() error {
		// Quitting the UI stops everything else.
		defer cancel()
		actor.Start(filter)
		return ui.Run(ui.Options{
			Context:       gctx,
			Controller:    actor,
			Store:         store,
			Logger:        log.With("component", "ui"),
			LogPath:       cfg.LogFile,
			ThemeName:     userPrefs.Theme,
			PrefsPath:     prefsPath,
			Filter:        filter,
			RecentFilters: userPrefs.Recent,
		})
	})

	err = g.Wait()
	log.Info("trawl stopped", "error", err)
	return err
}

// LoadConfig reads the config file and environment, then applies the
// command-line override and validates the result.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.Override == nil {
		return cfg, nil
	}
	opts.Override(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// openLogger writes to the configured log file. An empty log_file disables
// logging; the closer is nil then.
func openLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return logging.Discard(), nil, nil
	}
	log, closer, err := logging.OpenFile(cfg.LogFile, level)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return log, closer, nil
}

// initialFilter prefers a filter given by config, environment or flag over
// the one remembered from the last session.
func initialFilter(cfg config.Config, p prefs.Prefs) string {
	if cfg.Filter != "" {
		return cfg.Filter
	}
	return p.LastFilter
}
