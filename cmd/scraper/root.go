package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go-notice-crawler/internal/app"
	"go-notice-crawler/internal/config"
	"go-notice-crawler/internal/logging"
	"go-notice-crawler/internal/notice"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	source     string
	interval   time.Duration
	once       bool
	reportDir  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Crawl university CS boards for recruitment notices",
		Long: `Crawls every configured source once (or on an interval), stores new
notices and optionally reports them to Telegram.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "path to config.yaml")
	cmd.Flags().StringVar(&opts.source, "source", "", "crawl only this source key or group (e.g. skku)")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "repeat the crawl every interval (default: crawl_interval from config)")
	cmd.Flags().BoolVar(&opts.once, "once", false, "crawl once and exit")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", "logs", "directory for run report JSON files (empty disables)")

	cmd.AddCommand(newCheckDBCmd(opts), newProbeCmd(opts), newSourcesCmd(opts))
	return cmd
}

// setup loads config and logger; every subcommand starts here.
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runCrawl(ctx context.Context, opts *rootOptions) error {
	cfg, logger, err := setup(opts.configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("⚠️ Shutdown incomplete", zap.Error(err))
		}
	}()

	crawl := func() {
		var (
			report *notice.RunReport
			err    error
		)
		if opts.source != "" {
			report, err = a.Service.RunSource(ctx, opts.source)
		} else {
			report, err = a.Service.Run(ctx)
		}
		if err != nil {
			logger.Error("❌ Crawl failed", zap.Error(err))
			if a.Notifier != nil {
				if sendErr := a.Notifier.SendError(err); sendErr != nil {
					logger.Warn("⚠️ Failed to send error to Telegram", zap.Error(sendErr))
				}
			}
			return
		}
		saveReport(opts.reportDir, report, logger)
	}

	interval := opts.interval
	if interval == 0 {
		interval = cfg.CrawlInterval
	}
	if opts.once {
		crawl()
		return nil
	}

	logger.Info("⏰ Scheduler started", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// crawls only run on this goroutine, so they never overlap
	crawl()
	for {
		select {
		case <-ctx.Done():
			logger.Info("🏁 Scheduler stopped")
			return nil
		case <-ticker.C:
			crawl()
		}
	}
}

// saveReport writes logs/crawl-YYYY-MM-DD-<run>.json.
func saveReport(dir string, report *notice.RunReport, logger *zap.Logger) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("⚠️ Failed to create report directory", zap.Error(err))
		return
	}

	filename := fmt.Sprintf("crawl-%s-%s.json", report.StartedAt.Format("2006-01-02"), report.RunID[:8])
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(report, "", " ")
	if err != nil {
		logger.Warn("⚠️ Failed to marshal run report", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn("⚠️ Failed to write run report", zap.Error(err))
		return
	}
	logger.Info("📁 Run report saved", zap.String("path", path))
}
