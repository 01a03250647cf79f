package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-notice-crawler/internal/notice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--source", "skku", "--interval", "30m", "--once"}))

	src, _ := cmd.Flags().GetString("source")
	interval, _ := cmd.Flags().GetDuration("interval")
	once, _ := cmd.Flags().GetBool("once")
	assert.Equal(t, "skku", src)
	assert.Equal(t, 30*time.Minute, interval)
	assert.True(t, once)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"check-db", "probe", "sources"}, names)
}

func TestSaveReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	report := &notice.RunReport{
		RunID:     "0123456789abcdef",
		StartedAt: time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC),
		Created:   1,
		Failed:    1,
		Results: []notice.SourceResult{
			{Key: "snu", Status: notice.StatusExtractFailed, Err: errors.New("navigation failure: HTTP 503")},
		},
	}

	saveReport(dir, report, zap.NewNop())

	data, err := os.ReadFile(filepath.Join(dir, "crawl-2025-04-10-01234567.json"))
	require.NoError(t, err)
	var got notice.RunReport
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 1, got.Created)
	assert.Contains(t, string(data), `"error": "navigation failure: HTTP 503"`)

	saveReport("", report, zap.NewNop())
}
