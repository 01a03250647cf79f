package extractor

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-notice-crawler/internal/browser"
	"go-notice-crawler/internal/source"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupPlaywright starts a headless browser, skipping when it is unavailable.
func setupPlaywright(t *testing.T) playwright.Page {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	pw, err := playwright.Run()
	if err != nil {
		t.Skipf("playwright not installed: %v", err)
	}
	t.Cleanup(func() { pw.Stop() })

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Skipf("could not launch chromium: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	page, err := b.NewPage()
	require.NoError(t, err)
	return page
}

func TestExtract_PlaywrightRenderedBoard(t *testing.T) {
	page := setupPlaywright(t)

	// listing rows are injected by script after load, like the real boards
	listHTML := `<html><body><table><tbody id="rows"></tbody></table>
<script>
setTimeout(function () {
  document.getElementById('rows').innerHTML =
    '<tr><td class="title"><a href="javascript:readArticle(\'recruit\', \'42\')">Lab hiring 2025</a></td><td class="date">2025.04.10</td></tr>';
}, 300);
</script></body></html>`
	detailHTML := `<html><body><div class="viewDetail">Research assistant position.</div></body></html>`

	page.Route("**/*", func(route playwright.Route) {
		body := listHTML
		if strings.Contains(route.Request().URL(), "/board/view") {
			body = detailHTML
		}
		route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        body,
		})
	})

	def := source.Definition{
		Key:              "rendered",
		School:           "Rendered University",
		BaseURL:          "https://cs.rendered.test/bbs/recruit",
		TitleSelectors:   source.Selectors{"td.title a"},
		DateSelectors:    source.Selectors{"td.date"},
		ContentSelectors: source.Selectors{"div.viewDetail"},
		Link: source.LinkSpec{
			Kind:     "script",
			Pattern:  `readArticle\('([^']+)',\s*'([^']+)'\)`,
			Params:   []string{"bbs_id", "bbs_sn"},
			Template: "/board/view?bbs_id={bbs_id}&bbs_sn={bbs_sn}",
		},
	}
	require.NoError(t, def.Prepare())

	session := browser.NewPlaywrightSession(page, 10*time.Second)
	c, err := newExtractor().Extract(context.Background(), session, def)
	require.NoError(t, err)

	assert.Equal(t, "Lab hiring 2025", c.Title)
	assert.Equal(t, "https://cs.rendered.test/board/view?bbs_id=recruit&bbs_sn=42", c.OriginalLink)
	assert.Equal(t, "2025.04.10", c.DateRaw)
	assert.Equal(t, "Research assistant position.", c.Content)
}
