package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// ScreenshotDebugger saves page screenshots of failed extractions.
type ScreenshotDebugger struct {
	outputDir string
	logger    *zap.Logger
}

// NewScreenshotDebugger returns nil when dir is empty, which disables capturing.
func NewScreenshotDebugger(dir string, logger *zap.Logger) *ScreenshotDebugger {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn("⚠️ Failed to create screenshot directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}
	return &ScreenshotDebugger{outputDir: dir, logger: logger}
}

func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, name string) error {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))

	_, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		s.logger.Warn("⚠️ Failed to capture screenshot", zap.String("name", name), zap.Error(err))
		return err
	}

	s.logger.Info("📸 Screenshot saved", zap.String("path", path))
	return nil
}
