package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-notice-crawler/internal/browser"
	"go-notice-crawler/internal/models"
	"go-notice-crawler/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeElement struct {
	text  string
	attrs map[string]string
}

func (e fakeElement) Text() (string, error) { return e.text, nil }

func (e fakeElement) Attribute(name string) (string, error) { return e.attrs[name], nil }

// fakeSession serves canned pages keyed by URL then selector.
type fakeSession struct {
	pages    map[string]map[string][]fakeElement
	failNav  map[string]bool
	current  string
	visited  []string
	snapshot []string
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.visited = append(s.visited, url)
	if s.failNav[url] {
		return fmt.Errorf("%w: boom", browser.ErrNavigation)
	}
	s.current = url
	return nil
}

func (s *fakeSession) WaitFor(_ context.Context, selector string, _ time.Duration) error {
	if len(s.pages[s.current][selector]) == 0 {
		return fmt.Errorf("%w: %s", browser.ErrNotPresent, selector)
	}
	return nil
}

func (s *fakeSession) Query(_ context.Context, selector string) ([]browser.Element, error) {
	var out []browser.Element
	for _, el := range s.pages[s.current][selector] {
		out = append(out, el)
	}
	return out, nil
}

func (s *fakeSession) Snapshot(name string) { s.snapshot = append(s.snapshot, name) }

func (s *fakeSession) Close() error { return nil }

func testDefinition() source.Definition {
	def := source.Definition{
		Key:              "test",
		School:           "Test University",
		BaseURL:          "https://cs.test.ac.kr/board/list",
		TitleSelectors:   source.Selectors{"td.title a", "li a.subject"},
		DateSelectors:    source.Selectors{"td.date"},
		ContentSelectors: source.Selectors{"div.view"},
		MinTitleLength:   3,
	}
	if err := def.Prepare(); err != nil {
		panic(err)
	}
	return def
}

func newExtractor() *Extractor {
	return New(time.Second, zap.NewNop())
}

func TestExtract_HappyPath(t *testing.T) {
	def := testDefinition()
	session := &fakeSession{pages: map[string]map[string][]fakeElement{
		def.BaseURL: {
			"td.title a": {{text: "  2025   Hiring \n", attrs: map[string]string{"href": "view?id=10"}}},
			"td.date":    {{text: " 2025/04/10 "}},
		},
		"https://cs.test.ac.kr/board/view?id=10": {
			"div.view": {{text: "  We are   hiring.  \n\n\n  Apply now. "}},
		},
	}}

	c, err := newExtractor().Extract(context.Background(), session, def)
	require.NoError(t, err)

	assert.Equal(t, "2025 Hiring", c.Title)
	assert.Equal(t, "https://cs.test.ac.kr/board/view?id=10", c.OriginalLink)
	assert.Equal(t, "2025/04/10", c.DateRaw)
	assert.Equal(t, "We are hiring.\n\nApply now.", c.Content)
	assert.Equal(t, "Test University", c.SourceSchool)
}

func TestExtract_FallbackSelectorAndMinLength(t *testing.T) {
	def := testDefinition()
	session := &fakeSession{pages: map[string]map[string][]fakeElement{
		def.BaseURL: {
			// first selector only hits a decorative badge
			"td.title a": {{text: "N", attrs: map[string]string{"href": "/badge"}}},
			"li a.subject": {
				{text: "", attrs: map[string]string{"href": "/empty"}},
				{text: "Teaching assistant wanted", attrs: map[string]string{"href": "/view/2"}},
			},
		},
	}}

	c, err := newExtractor().Extract(context.Background(), session, def)
	require.NoError(t, err)
	assert.Equal(t, "Teaching assistant wanted", c.Title)
	assert.Equal(t, "https://cs.test.ac.kr/view/2", c.OriginalLink)
	assert.Empty(t, c.DateRaw, "missing date is not fatal")
	assert.Equal(t, models.ContentNotFound, c.Content, "detail page has no content element")
}

func TestExtract_DatePairedWithTitleSelector(t *testing.T) {
	def := testDefinition()
	def.DateSelectors = source.Selectors{"tr.row8 td.date", "li:has(a.subject) span.date"}
	page := map[string][]fakeElement{
		"li a.subject": {{text: "Lab opening", attrs: map[string]string{"href": "/view/3"}}},
		// the row-pinned date still matches, but belongs to another row
		"tr.row8 td.date":             {{text: "2024.01.02"}},
		"li:has(a.subject) span.date": {{text: "2025.04.10"}},
	}
	session := &fakeSession{pages: map[string]map[string][]fakeElement{def.BaseURL: page}}

	c, err := newExtractor().Extract(context.Background(), session, def)
	require.NoError(t, err)
	assert.Equal(t, "Lab opening", c.Title)
	assert.Equal(t, "2025.04.10", c.DateRaw)

	// primary title pairs with the primary date only
	page["td.title a"] = []fakeElement{{text: "2025 Hiring", attrs: map[string]string{"href": "view?id=10"}}}
	delete(page, "tr.row8 td.date")
	c, err = newExtractor().Extract(context.Background(), session, def)
	require.NoError(t, err)
	assert.Equal(t, "2025 Hiring", c.Title)
	assert.Empty(t, c.DateRaw, "fallback date is not used for the primary title")
}

func TestDatesFor(t *testing.T) {
	def := testDefinition()
	assert.Equal(t, []string{"td.date"}, datesFor(def, 1), "unpaired lists are alternatives")

	def.DateSelectors = source.Selectors{"d0", "d1"}
	assert.Equal(t, []string{"d0"}, datesFor(def, 0))
	assert.Equal(t, []string{"d1"}, datesFor(def, 1))
}

func TestExtract_TitleMissing(t *testing.T) {
	def := testDefinition()
	session := &fakeSession{pages: map[string]map[string][]fakeElement{def.BaseURL: {}}}

	c, err := newExtractor().Extract(context.Background(), session, def)
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, ErrElementNotFound), "got %v", err)

	var extractErr *Error
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, "test", extractErr.Source)
	assert.Equal(t, []string{"test-title"}, session.snapshot)
}

func TestExtract_NavigationFailure(t *testing.T) {
	def := testDefinition()
	session := &fakeSession{failNav: map[string]bool{def.BaseURL: true}}

	_, err := newExtractor().Extract(context.Background(), session, def)
	assert.True(t, errors.Is(err, ErrNavigation), "got %v", err)
	assert.True(t, errors.Is(err, browser.ErrNavigation), "underlying cause is kept")
}

func TestExtract_DetailNavigationFailureKeepsCandidate(t *testing.T) {
	def := testDefinition()
	detail := "https://cs.test.ac.kr/board/view?id=3"
	session := &fakeSession{
		pages: map[string]map[string][]fakeElement{
			def.BaseURL: {"td.title a": {{text: "Postdoc opening", attrs: map[string]string{"href": "view?id=3"}}}},
		},
		failNav: map[string]bool{detail: true},
	}

	c, err := newExtractor().Extract(context.Background(), session, def)
	require.NoError(t, err)
	assert.Equal(t, models.ContentNotFound, c.Content)
	assert.Equal(t, detail, c.OriginalLink)
}

func TestExtract_ScriptLink(t *testing.T) {
	def := testDefinition()
	def.Resolver = nil
	def.Link = source.LinkSpec{
		Kind:     "script",
		Pattern:  `readArticle\('([^']+)',\s*'([^']+)'\)`,
		Params:   []string{"board", "no"},
		Template: "/board/view?bbs_id={board}&bbs_sn={no}",
	}
	require.NoError(t, def.Prepare())

	session := &fakeSession{pages: map[string]map[string][]fakeElement{
		def.BaseURL: {"td.title a": {{text: "Research engineer", attrs: map[string]string{"href": "javascript:readArticle('recruit', '991')"}}}},
		"https://cs.test.ac.kr/board/view?bbs_id=recruit&bbs_sn=991": {"div.view": {{text: "Details"}}},
	}}

	c, err := newExtractor().Extract(context.Background(), session, def)
	require.NoError(t, err)
	assert.Equal(t, "https://cs.test.ac.kr/board/view?bbs_id=recruit&bbs_sn=991", c.OriginalLink)
	assert.Equal(t, "Details", c.Content)
}

func TestExtract_UnparseableLink(t *testing.T) {
	def := testDefinition()
	session := &fakeSession{pages: map[string]map[string][]fakeElement{
		def.BaseURL: {"td.title a": {{text: "Hidden link", attrs: map[string]string{"href": "javascript:void(0)"}}}},
	}}

	_, err := newExtractor().Extract(context.Background(), session, def)
	assert.True(t, errors.Is(err, ErrElementNotFound))
	assert.True(t, errors.Is(err, source.ErrNoLink))
}

func TestExtract_SkipKnown(t *testing.T) {
	def := testDefinition()
	session := &fakeSession{pages: map[string]map[string][]fakeElement{
		def.BaseURL: {"td.title a": {{text: "Known notice", attrs: map[string]string{"href": "/known"}}}},
	}}

	ex := newExtractor()
	ex.SkipKnown = func(_ context.Context, link string) bool { return link == "https://cs.test.ac.kr/known" }

	c, err := ex.Extract(context.Background(), session, def)
	require.NoError(t, err)
	assert.Equal(t, models.ContentNotFound, c.Content)
	assert.Equal(t, []string{def.BaseURL}, session.visited, "detail page not visited")
}

func TestExtract_StaticSessionFixtureSite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/board", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<table><tbody>
			<tr><td class="title"><a href="/board/7">2025 Hiring</a></td><td class="date">2025/04/10</td></tr>
			<tr><td class="title"><a href="/board/6">Older</a></td><td class="date">2025/03/01</td></tr>
		</tbody></table>`))
	})
	mux.HandleFunc("/board/7", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="view"><p>We are hiring.</p></div>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	def := source.Definition{
		Key:              "fixture",
		School:           "Fixture University",
		BaseURL:          srv.URL + "/board",
		TitleSelectors:   source.Selectors{"td.title a"},
		DateSelectors:    source.Selectors{"td.date"},
		ContentSelectors: source.Selectors{"div.view"},
	}
	require.NoError(t, def.Prepare())

	ctx := context.Background()
	session, err := browser.NewStaticOpener(5 * time.Second).Open(ctx)
	require.NoError(t, err)
	defer session.Close()

	c, err := newExtractor().Extract(ctx, session, def)
	require.NoError(t, err)
	assert.Equal(t, "2025 Hiring", c.Title)
	assert.Equal(t, srv.URL+"/board/7", c.OriginalLink)
	assert.Equal(t, "2025/04/10", c.DateRaw)
	assert.Equal(t, "We are hiring.", c.Content)
}

func TestCleanContent(t *testing.T) {
	assert.Equal(t, models.ContentNotFound, cleanContent(" \n\t\n "))
	assert.Equal(t, "a b\n\nc", cleanContent("\n a   b \r\n\r\n\r\n c \n"))
}
