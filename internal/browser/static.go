package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultUserAgent = "go-notice-crawler/1.0 (+university recruitment notices)"

// StaticOpener opens sessions that fetch pages over plain HTTP and query them with
// goquery. Suitable for boards rendered server-side; no scripts run.
type StaticOpener struct {
	Client    *http.Client
	UserAgent string
}

func NewStaticOpener(timeout time.Duration) *StaticOpener {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StaticOpener{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: defaultUserAgent,
	}
}

func (o *StaticOpener) Open(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ua := o.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &StaticSession{client: client, userAgent: ua}, nil
}

// StaticSession keeps the last fetched document.
type StaticSession struct {
	client    *http.Client
	userAgent string
	doc       *goquery.Document
	closed    bool
}

func (s *StaticSession) Navigate(ctx context.Context, url string) error {
	if s.closed {
		return ErrClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrNavigation, url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrNavigation, url, err)
	}
	s.doc = doc
	return nil
}

// WaitFor checks the fetched document once; a static page never changes.
func (s *StaticSession) WaitFor(ctx context.Context, selector string, _ time.Duration) error {
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.doc == nil || s.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", ErrNotPresent, selector)
	}
	return nil
}

func (s *StaticSession) Query(ctx context.Context, selector string) ([]Element, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.doc == nil {
		return nil, nil
	}

	var elements []Element
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		elements = append(elements, selectionElement{sel})
	})
	return elements, nil
}

func (s *StaticSession) Close() error {
	s.closed = true
	s.doc = nil
	return nil
}

type selectionElement struct {
	sel *goquery.Selection
}

func (e selectionElement) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e selectionElement) Attribute(name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}
