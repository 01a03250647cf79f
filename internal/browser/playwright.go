package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Options configures the headless browser.
type Options struct {
	Headless          bool
	NavigationTimeout time.Duration
	UserAgent         string
	ScreenshotDir     string
}

// PlaywrightManager owns the playwright driver and one Chromium process. Sessions
// are cheap browser contexts on top of it. The browser is started on first use.
type PlaywrightManager struct {
	mu      sync.Mutex
	opts    Options
	logger  *zap.Logger
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewPlaywright(opts Options, logger *zap.Logger) *PlaywrightManager {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	return &PlaywrightManager{opts: opts, logger: logger}
}

func (pm *PlaywrightManager) start() error {
	if pm.browser != nil {
		return nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("could not start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(pm.opts.Headless),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage", "--disable-gpu"},
	})
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("could not launch chromium: %w", err)
	}

	pm.pw = pw
	pm.browser = browser
	pm.logger.Info("🌐 Chromium launched", zap.Bool("headless", pm.opts.Headless))
	return nil
}

// NewContext creates an isolated browser context.
func (pm *PlaywrightManager) NewContext() (playwright.BrowserContext, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if err := pm.start(); err != nil {
		return nil, err
	}

	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
	}
	if pm.opts.UserAgent != "" {
		opts.UserAgent = playwright.String(pm.opts.UserAgent)
	}
	return pm.browser.NewContext(opts)
}

// Open implements Opener.
func (pm *PlaywrightManager) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browserCtx, err := pm.NewContext()
	if err != nil {
		return nil, err
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	return &PlaywrightSession{
		ctx:        browserCtx,
		page:       page,
		navTimeout: pm.opts.NavigationTimeout,
		shots:      NewScreenshotDebugger(pm.opts.ScreenshotDir, pm.logger),
	}, nil
}

// Close shuts down Chromium and the driver.
func (pm *PlaywrightManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var errs []string
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		pm.browser = nil
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil {
			errs = append(errs, err.Error())
		}
		pm.pw = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close playwright: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PlaywrightSession drives one page inside its own browser context.
type PlaywrightSession struct {
	ctx        playwright.BrowserContext
	page       playwright.Page
	navTimeout time.Duration
	shots      *ScreenshotDebugger
	closed     bool
}

// NewPlaywrightSession wraps an existing page, e.g. one prepared by a test with
// routed fixtures.
func NewPlaywrightSession(page playwright.Page, navTimeout time.Duration) *PlaywrightSession {
	return &PlaywrightSession{page: page, navTimeout: navTimeout}
}

func (s *PlaywrightSession) Navigate(ctx context.Context, url string) error {
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := boundedTimeout(ctx, s.navTimeout)
	resp, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(timeout),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrNavigation, url, resp.Status())
	}
	return nil
}

func (s *PlaywrightSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout = boundedTimeout(ctx, timeout)
	err := s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: millis(timeout),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotPresent, selector, err)
	}
	return nil
}

func (s *PlaywrightSession) Query(ctx context.Context, selector string) ([]Element, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	locators, err := s.page.Locator(selector).All()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	elements := make([]Element, len(locators))
	for i, l := range locators {
		elements[i] = locatorElement{l}
	}
	return elements, nil
}

// Snapshot saves a full-page screenshot when a screenshot dir is configured.
func (s *PlaywrightSession) Snapshot(name string) {
	if s.closed || s.shots == nil {
		return
	}
	_ = s.shots.CaptureAndLog(s.page, name)
}

func (s *PlaywrightSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ctx != nil {
		return s.ctx.Close()
	}
	return s.page.Close()
}

// millis converts to playwright's timeout unit. Zero means "no timeout" to
// playwright, so the result is at least 1ms.
func millis(d time.Duration) *float64 {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return playwright.Float(float64(ms))
}

type locatorElement struct {
	loc playwright.Locator
}

func (e locatorElement) Text() (string, error) {
	return e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(2000)})
}

func (e locatorElement) Attribute(name string) (string, error) {
	return e.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: playwright.Float(2000)})
}
