// Generic notice extractor.
// Reads the newest entry of one board described by a source.Definition and, when it
// has a detail link, the body of that entry.

package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go-notice-crawler/internal/browser"
	"go-notice-crawler/internal/models"
	"go-notice-crawler/internal/source"

	"go.uber.org/zap"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrNavigation      = errors.New("navigation failure")
)

// Error carries the source key and the failure class.
type Error struct {
	Source string
	Kind   error // ErrElementNotFound or ErrNavigation
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %v: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Extractor is stateless apart from its settings; the session is passed per call.
type Extractor struct {
	// SettleTimeout bounds the wait for selectors after each navigation.
	SettleTimeout time.Duration
	// SkipKnown, when set, reports links already stored so the detail page fetch
	// can be skipped.
	SkipKnown func(ctx context.Context, link string) bool

	logger *zap.Logger
}

func New(settle time.Duration, logger *zap.Logger) *Extractor {
	if settle <= 0 {
		settle = 10 * time.Second
	}
	return &Extractor{SettleTimeout: settle, logger: logger}
}

// Extract returns a candidate for the first listing entry of def.
func (e *Extractor) Extract(ctx context.Context, session browser.Session, def source.Definition) (*models.Candidate, error) {
	log := e.logger.With(zap.String("source", def.Key))
	log.Info("🔍 Crawling board", zap.String("url", def.BaseURL))

	if err := session.Navigate(ctx, def.BaseURL); err != nil {
		return nil, e.fail(def, ErrNavigation, err)
	}

	titleEl, title, titleIdx, err := e.first(ctx, session, def.TitleSelectors, def.MinTitleLength)
	if err != nil {
		snapshot(session, def.Key+"-title")
		return nil, e.fail(def, ErrElementNotFound, fmt.Errorf("title: %w", err))
	}
	title = collapseSpaces(title)
	log.Info("📌 Found title", zap.String("title", title))

	rawLink, err := titleEl.Attribute("href")
	if err != nil {
		return nil, e.fail(def, ErrElementNotFound, fmt.Errorf("title href: %w", err))
	}
	resolver := def.Resolver
	if resolver == nil {
		resolver = source.HrefLink{}
	}
	link, err := resolver.Resolve(def.BaseURL, rawLink)
	if err != nil {
		return nil, e.fail(def, ErrElementNotFound, fmt.Errorf("detail link: %w", err))
	}

	var dateRaw string
	if dateSels := datesFor(def, titleIdx); len(dateSels) > 0 {
		if _, text, _, err := e.first(ctx, session, dateSels, 1); err != nil {
			log.Warn("⚠️ Date not found, storing without date", zap.Error(err))
		} else {
			dateRaw = strings.TrimSpace(text)
		}
	}

	candidate := &models.Candidate{
		Title:        title,
		OriginalLink: link,
		DateRaw:      dateRaw,
		SourceSchool: def.School,
		Content:      models.ContentNotFound,
	}

	if e.SkipKnown != nil && e.SkipKnown(ctx, link) {
		log.Info("⏭️ Already stored, skipping detail page", zap.String("link", link))
		return candidate, nil
	}
	candidate.Content = e.content(ctx, session, def, link, log)
	return candidate, nil
}

// content fetches the detail body; every failure degrades to ContentNotFound.
func (e *Extractor) content(ctx context.Context, session browser.Session, def source.Definition, link string, log *zap.Logger) string {
	if len(def.ContentSelectors) == 0 {
		return models.ContentNotFound
	}
	if err := session.Navigate(ctx, link); err != nil {
		log.Warn("⚠️ Could not open detail page", zap.String("link", link), zap.Error(err))
		return models.ContentNotFound
	}
	_, text, _, err := e.first(ctx, session, def.ContentSelectors, 1)
	if err != nil {
		log.Warn("⚠️ Content not found", zap.String("link", link), zap.Error(err))
		snapshot(session, def.Key+"-content")
		return models.ContentNotFound
	}
	return cleanContent(text)
}

// datesFor returns the date selectors to try for a title matched by
// TitleSelectors[titleIdx]. When a source lists as many date selectors as
// title selectors they are paired by position, so the date comes from the
// same row as the title.
func datesFor(def source.Definition, titleIdx int) []string {
	if len(def.DateSelectors) != len(def.TitleSelectors) {
		return def.DateSelectors
	}
	return def.DateSelectors[titleIdx : titleIdx+1]
}

// first tries selectors in order and returns the first element whose trimmed text
// has at least minLen runes, along with the index of the selector that matched.
func (e *Extractor) first(ctx context.Context, session browser.Session, selectors []string, minLen int) (browser.Element, string, int, error) {
	if minLen < 1 {
		minLen = 1
	}

	var lastErr error = ErrElementNotFound
	for i, sel := range selectors {
		if err := session.WaitFor(ctx, sel, e.SettleTimeout); err != nil {
			if ctx.Err() != nil {
				return nil, "", -1, ctx.Err()
			}
			lastErr = err
			continue
		}

		elements, err := session.Query(ctx, sel)
		if err != nil {
			lastErr = err
			continue
		}
		for _, el := range elements {
			text, err := el.Text()
			if err != nil {
				lastErr = err
				continue
			}
			text = strings.TrimSpace(text)
			if utf8.RuneCountInString(text) >= minLen {
				return el, text, i, nil
			}
		}
		lastErr = fmt.Errorf("%w: %s matched no element with text", ErrElementNotFound, sel)
	}
	return nil, "", -1, lastErr
}

func (e *Extractor) fail(def source.Definition, kind, err error) error {
	e.logger.Error("❌ Extraction failed", zap.String("source", def.Key), zap.Error(err))
	return &Error{Source: def.Key, Kind: kind, Err: err}
}

func snapshot(session browser.Session, name string) {
	if s, ok := session.(browser.Snapshotter); ok {
		s.Snapshot(name)
	}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanContent trims every line and drops runs of blank lines.
func cleanContent(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = collapseSpaces(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	text := strings.TrimSpace(strings.Join(out, "\n"))
	if text == "" {
		return models.ContentNotFound
	}
	return text
}
