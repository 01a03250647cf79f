// Wiring shared by cmd/server and cmd/scraper.

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-notice-crawler/internal/browser"
	"go-notice-crawler/internal/config"
	"go-notice-crawler/internal/database"
	"go-notice-crawler/internal/extractor"
	"go-notice-crawler/internal/metrics"
	"go-notice-crawler/internal/notice"
	"go-notice-crawler/internal/reporter"
	"go-notice-crawler/internal/source"

	"go.uber.org/zap"
)

// App holds the long-lived collaborators of one process.
type App struct {
	Config   *config.Config
	Store    database.Store
	Catalog  *source.Catalog
	Metrics  *metrics.Metrics
	Notifier *reporter.TelegramNotifier // nil when telegram is not configured
	Service  *notice.Service

	closers []func() error
	logger  *zap.Logger
}

// New opens storage, loads the source catalog and builds the crawl service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Metrics: metrics.New(), logger: logger}

	catalog, err := source.Load(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	a.Catalog = catalog
	logger.Info("📚 Sources loaded", zap.Strings("triggers", catalog.Triggers()))

	store, err := database.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	opener, closeOpener := NewOpener(cfg.Browser, logger)
	if closeOpener != nil {
		a.closers = append(a.closers, closeOpener)
	}

	opts := notice.Options{SourceTimeout: cfg.Browser.SourceTimeout, Metrics: a.Metrics}
	if cfg.Telegram.Enabled() {
		n, err := reporter.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("⚠️ Telegram disabled", zap.Error(err))
		} else {
			a.Notifier = n
			opts.Notifier = n
			logger.Info("🤖 Telegram notifier initialized")
		}
	}

	ext := extractor.New(cfg.Browser.SettleTimeout, logger)
	a.Service = notice.NewService(store, catalog, opener, ext, opts, logger)
	return a, nil
}

// NewOpener returns the session opener for the configured engine and, for
// playwright, the function that stops the browser.
func NewOpener(cfg config.Browser, logger *zap.Logger) (browser.Opener, func() error) {
	if cfg.Engine == "static" {
		logger.Info("🌐 Using static HTTP sessions")
		return browser.NewStaticOpener(30 * time.Second), nil
	}
	pm := browser.NewPlaywright(browser.Options{
		Headless:      cfg.Headless,
		ScreenshotDir: cfg.ScreenshotDir,
	}, logger)
	return pm, pm.Close
}

// Close releases everything in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
