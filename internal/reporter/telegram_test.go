package reporter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go-notice-crawler/internal/models"
	"go-notice-crawler/internal/notice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `2025\-04\-10`, escapeMarkdown("2025-04-10"))
	assert.Equal(t, `\[TA\] hiring\!`, escapeMarkdown("[TA] hiring!"))
}

func TestFormatNotice(t *testing.T) {
	text := formatNotice(models.Notice{
		Title:        "2025 Hiring",
		Content:      models.ContentNotFound,
		OriginalLink: "https://cs.kaist.ac.kr/view?idx=1",
		DatePosted:   "2025-04-10",
		SourceSchool: "KAIST",
	})
	assert.Contains(t, text, "*2025 Hiring*")
	assert.Contains(t, text, `2025\-04\-10`)
	assert.NotContains(t, text, "Content not found")
	assert.Contains(t, text, "(https://cs.kaist.ac.kr/view?idx=1)")

	long := formatNotice(models.Notice{Title: "t", Content: strings.Repeat("가", 400), OriginalLink: "https://x"})
	assert.Contains(t, long, "…")
	assert.NotContains(t, long, "📅")
}

func TestFormatSummary(t *testing.T) {
	r := &notice.RunReport{RunID: "abc", Duration: 90 * time.Second, Created: 1, Failed: 1}
	r.Results = []notice.SourceResult{
		{Key: "kaist", Status: notice.StatusCreated},
		{Key: "snu", Status: notice.StatusExtractFailed, Err: assert.AnError},
	}
	text := formatSummary(r)
	assert.Contains(t, text, "Crawl abc finished in 1m30s")
	assert.Contains(t, text, "new: 1, already stored: 0, failed: 1")
	assert.Contains(t, text, "snu: extract_failed ("+assert.AnError.Error()+")")
	assert.NotContains(t, text, "kaist")

	r.Results[1].Err = errors.New(strings.Repeat("x", 500))
	text = formatSummary(r)
	assert.Contains(t, text, strings.Repeat("x", reasonRunes)+"…)")
	assert.NotContains(t, text, strings.Repeat("x", reasonRunes+1))
}

// fakeTelegram answers getMe and records sendMessage forms.
func fakeTelegram(t *testing.T) (*httptest.Server, *[]map[string]string) {
	t.Helper()
	var mu sync.Mutex
	sent := []map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"crawler","username":"crawler_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			_ = r.ParseForm()
			mu.Lock()
			sent = append(sent, map[string]string{
				"chat_id":    r.PostForm.Get("chat_id"),
				"text":       r.PostForm.Get("text"),
				"parse_mode": r.PostForm.Get("parse_mode"),
			})
			mu.Unlock()
			w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &sent
}

func TestTelegramNotifier_Send(t *testing.T) {
	srv, sent := fakeTelegram(t)
	n, err := NewTelegramNotifierWithClient("token", 42, srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	require.NoError(t, n.SendNotice(models.Notice{Title: "2025 Hiring", OriginalLink: "https://a.example/1", SourceSchool: "SNU"}))
	require.NoError(t, n.SendRunSummary(&notice.RunReport{RunID: "r1"}))

	require.Len(t, *sent, 2)
	assert.Equal(t, "42", (*sent)[0]["chat_id"])
	assert.Equal(t, "MarkdownV2", (*sent)[0]["parse_mode"])
	assert.Contains(t, (*sent)[0]["text"], "2025 Hiring")
	assert.Empty(t, (*sent)[1]["parse_mode"])
	assert.Contains(t, (*sent)[1]["text"], "Crawl r1")
}

func TestNewTelegramNotifier_RequiresCredentials(t *testing.T) {
	_, err := NewTelegramNotifier("", 42)
	assert.Error(t, err)
	_, err = NewTelegramNotifier("token", 0)
	assert.Error(t, err)
}
