// Crawl orchestration and the read/ingest paths shared by the server and the
// scheduled scraper.

package notice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-notice-crawler/internal/browser"
	"go-notice-crawler/internal/database"
	"go-notice-crawler/internal/dates"
	"go-notice-crawler/internal/extractor"
	"go-notice-crawler/internal/metrics"
	"go-notice-crawler/internal/models"
	"go-notice-crawler/internal/source"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemsPerPage is the page size of every listing view.
const ItemsPerPage = 9

const defaultSourceTimeout = 2 * time.Minute

// Notifier receives newly stored notices and the summary of each run.
type Notifier interface {
	SendNotice(n models.Notice) error
	SendRunSummary(r *RunReport) error
}

// Options holds the optional collaborators of a Service.
type Options struct {
	// SourceTimeout bounds one source (listing + detail page). Default 2m.
	SourceTimeout time.Duration
	Notifier      Notifier
	Metrics       *metrics.Metrics
	// Now is the clock used to decide which new notices are worth announcing.
	Now           func() time.Time
}

type Service struct {
	store     database.Store
	catalog   *source.Catalog
	opener    browser.Opener
	extractor *extractor.Extractor

	sourceTimeout time.Duration
	notifier      Notifier
	metrics       *metrics.Metrics
	validate      *validator.Validate
	now           func() time.Time
	logger        *zap.Logger

	// runs never overlap
	runMu sync.Mutex
}

// NewService wires the crawl pipeline. When ext has no SkipKnown hook the
// service installs one backed by the store.
func NewService(store database.Store, catalog *source.Catalog, opener browser.Opener, ext *extractor.Extractor, opts Options, logger *zap.Logger) *Service {
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = defaultSourceTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Service{
		store:         store,
		catalog:       catalog,
		opener:        opener,
		extractor:     ext,
		sourceTimeout: opts.SourceTimeout,
		notifier:      opts.Notifier,
		metrics:       opts.Metrics,
		validate:      newValidator(),
		now:           opts.Now,
		logger:        logger,
	}
	if ext.SkipKnown == nil {
		ext.SkipKnown = s.known
	}
	return s
}

func (s *Service) known(ctx context.Context, link string) bool {
	_, err := s.store.FindByLink(ctx, link)
	return err == nil
}

// Catalog exposes the configured sources (trigger routes, school filter).
func (s *Service) Catalog() *source.Catalog {
	return s.catalog
}

// Run crawls every configured source once. Only a failure to open the browser
// session is returned as an error; per-source failures land in the report.
func (s *Service) Run(ctx context.Context) (*RunReport, error) {
	return s.run(ctx, s.catalog.All())
}

// RunSource crawls the sources whose key or group equals name with a session
// of their own.
func (s *Service) RunSource(ctx context.Context, name string) (*RunReport, error) {
	defs, err := s.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, defs)
}

func (s *Service) run(ctx context.Context, defs []source.Definition) (*RunReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	report := &RunReport{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := s.logger.With(zap.String("run_id", report.RunID))
	log.Info("🚀 Starting crawl", zap.Int("sources", len(defs)))

	session, err := s.opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("⚠️ Failed to close browser session", zap.Error(err))
		}
	}()

	for _, def := range defs {
		res := s.runOne(ctx, session, def, log)
		s.metrics.SourceResult(def.Key, string(res.Status))
		report.add(res)
	}

	report.Duration = time.Since(report.StartedAt)
	s.metrics.RunFinished(report.Duration)
	log.Info("✅ Crawl finished",
		zap.Int("created", report.Created),
		zap.Int("existing", report.Existing),
		zap.Int("failed", report.Failed),
		zap.Duration("took", report.Duration))

	s.notify(report, log)
	return report, nil
}

// runOne is the per-source unit of isolation: whatever happens here is turned
// into a SourceResult.
func (s *Service) runOne(ctx context.Context, session browser.Session, def source.Definition, log *zap.Logger) (res SourceResult) {
	res = SourceResult{Key: def.Key, School: def.School}
	log = log.With(zap.String("source", def.Key))

	defer func() {
		if r := recover(); r != nil {
			log.Error("❌ Source panicked", zap.Any("panic", r))
			res.Status = StatusExtractFailed
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()

	candidate, err := s.extractor.Extract(ctx, session, def)
	if err != nil {
		log.Warn("⚠️ Extraction failed, skipping source", zap.Error(err))
		res.Status = StatusExtractFailed
		res.Err = err
		return res
	}

	nn := fromCandidate(*candidate)
	if candidate.DateRaw != "" && nn.DatePosted == "" {
		log.Warn("⚠️ Unrecognized date, storing without date", zap.String("raw", candidate.DateRaw))
	}

	up, err := s.store.Upsert(ctx, nn)
	if err != nil {
		log.Error("❌ Failed to store notice", zap.Error(err))
		res.Status = StatusStoreFailed
		res.Err = err
		return res
	}

	res.Notice = &up.Notice
	if up.Created {
		res.Status = StatusCreated
		log.Info("💾 Stored new notice", zap.Int64("id", up.Notice.ID), zap.String("title", up.Notice.Title))
	} else {
		res.Status = StatusAlreadyExists
		log.Info("⏭️ Notice already stored", zap.String("link", up.Notice.OriginalLink))
	}
	return res
}

// fromCandidate applies the crawl-side normalization: an unparseable date is
// kept as unknown instead of dropping the notice.
func fromCandidate(c models.Candidate) models.NewNotice {
	date, err := dates.Normalize(c.DateRaw)
	if err != nil {
		date = ""
	}
	content := strings.TrimSpace(c.Content)
	if content == "" {
		content = models.ContentNotFound
	}
	return models.NewNotice{
		Title:        strings.TrimSpace(c.Title),
		Content:      content,
		OriginalLink: c.OriginalLink,
		DatePosted:   date,
		SourceSchool: c.SourceSchool,
	}
}

func (s *Service) notify(report *RunReport, log *zap.Logger) {
	if s.notifier == nil {
		return
	}
	for _, n := range report.NewNotices() {
		if !dates.IsRecent(n.DatePosted, s.now()) {
			log.Info("⏭️ Old notice, not announcing", zap.String("date", n.DatePosted), zap.String("title", n.Title))
			continue
		}
		if err := s.notifier.SendNotice(n); err != nil {
			log.Warn("⚠️ Failed to send notice notification", zap.Int64("id", n.ID), zap.Error(err))
		}
	}
	if err := s.notifier.SendRunSummary(report); err != nil {
		log.Warn("⚠️ Failed to send run summary", zap.Error(err))
	}
}

// ListQuery is the read-path filter. Page < 1 means the first page.
type ListQuery struct {
	Page   int
	School string
	Search string
}

func (s *Service) List(ctx context.Context, q ListQuery) (database.Page, error) {
	return s.store.List(ctx, database.Filter{
		School: strings.TrimSpace(q.School),
		Search: strings.TrimSpace(q.Search),
	}, q.Page, ItemsPerPage)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Notice, error) {
	return s.store.Get(ctx, id)
}

// Schools returns the configured school labels followed by any other label
// found in storage (ingested from elsewhere).
func (s *Service) Schools(ctx context.Context) ([]string, error) {
	schools := s.catalog.Schools()
	stored, err := s.store.Schools(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(schools))
	for _, sc := range schools {
		seen[sc] = true
	}
	for _, sc := range stored {
		if !seen[sc] {
			seen[sc] = true
			schools = append(schools, sc)
		}
	}
	return schools, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
