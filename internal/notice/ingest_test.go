package notice

import (
	"context"
	"strings"
	"sync"
	"testing"

	"go-notice-crawler/internal/models"
	"go-notice-crawler/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() IngestRequest {
	return IngestRequest{
		Title:        "Recruiting TA",
		Content:      "Apply by Friday",
		OriginalLink: "https://cs.kaist.ac.kr/board/view?idx=77",
		DatePosted:   "24.03.01",
		SourceSchool: "KAIST",
	}
}

func newIngestService(t *testing.T) *Service {
	t.Helper()
	svc, _ := newTestService(t, []source.Definition{boardDef("kaist", "KAIST", "https://cs.kaist.ac.kr/board")}, &trackingOpener{}, Options{})
	return svc
}

func TestIngest_CreatedThenExisting(t *testing.T) {
	svc := newIngestService(t)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)
	assert.Equal(t, "2024-03-01", res.Notice.DatePosted)
	assert.NotZero(t, res.Notice.ID)

	retry := validRequest()
	retry.DatePosted = "2024/03/01"
	again, err := svc.Ingest(ctx, retry)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyExists, again.Status)
	assert.Equal(t, res.Notice.ID, again.Notice.ID)
}

func TestIngest_LongTitleAndLink(t *testing.T) {
	svc := newIngestService(t)

	req := validRequest()
	req.Title = strings.Repeat("연구실 학생 모집 ", 40)
	req.OriginalLink = "https://cs.kaist.ac.kr/board/view?" + strings.Repeat("menu=1&", 200)

	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)
	assert.Equal(t, strings.TrimSpace(req.Title), res.Notice.Title)
}

func TestIngest_Validation(t *testing.T) {
	svc := newIngestService(t)

	tests := []struct {
		name    string
		mutate  func(r *IngestRequest)
		wantErr error
		msg     string
	}{
		{"missing title", func(r *IngestRequest) { r.Title = "   " }, ErrValidation, "title is required"},
		{"missing school", func(r *IngestRequest) { r.SourceSchool = "" }, ErrValidation, "source_school is required"},
		{"missing date", func(r *IngestRequest) { r.DatePosted = "" }, ErrValidation, "date_posted is required"},
		{"relative link", func(r *IngestRequest) { r.OriginalLink = "/board/view?idx=1" }, ErrValidation, "original_link"},
		{"ftp link", func(r *IngestRequest) { r.OriginalLink = "ftp://files.example/notice" }, ErrValidation, "original_link"},
		{"bad date", func(r *IngestRequest) { r.DatePosted = "not-a-date" }, ErrInvalidDate, "not-a-date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Ingest(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestIngest_EmptyContentGetsPlaceholder(t *testing.T) {
	svc := newIngestService(t)
	req := validRequest()
	req.Content = ""

	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.ContentNotFound, res.Notice.Content)
}

func TestIngest_ConcurrentRetries(t *testing.T) {
	svc := newIngestService(t)

	var wg sync.WaitGroup
	statuses := make([]Status, 6)
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Ingest(context.Background(), validRequest())
			if assert.NoError(t, err) {
				statuses[i] = res.Status
			}
		}(i)
	}
	wg.Wait()

	created := 0
	for _, s := range statuses {
		if s == StatusCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)
}
