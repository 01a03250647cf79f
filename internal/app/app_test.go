package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-notice-crawler/internal/browser"
	"go-notice-crawler/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_StaticEngine(t *testing.T) {
	cfg := &config.Config{
		DatabaseURL: "sqlite://" + filepath.Join(t.TempDir(), "notices.db"),
		SourcesFile: filepath.Join("..", "..", "configs", "sources.yaml"),
		Browser: config.Browser{
			Engine:        "static",
			SettleTimeout: time.Second,
			SourceTimeout: time.Minute,
		},
	}

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Notifier)
	assert.Contains(t, a.Catalog.Triggers(), "skku")
	assert.NoError(t, a.Service.Ping(context.Background()))
}

func TestNew_BadDatabaseURL(t *testing.T) {
	cfg := &config.Config{DatabaseURL: "mysql://nope", Browser: config.Browser{Engine: "static"}}
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewOpener(t *testing.T) {
	opener, closer := NewOpener(config.Browser{Engine: "static"}, zap.NewNop())
	assert.IsType(t, &browser.StaticOpener{}, opener)
	assert.Nil(t, closer)

	opener, closer = NewOpener(config.Browser{Engine: "playwright", Headless: true}, zap.NewNop())
	assert.IsType(t, &browser.PlaywrightManager{}, opener)
	require.NotNil(t, closer)
	assert.NoError(t, closer(), "closing a browser that never started is a no-op")
}
