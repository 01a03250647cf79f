package server

import (
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go-notice-crawler/internal/metrics"
	"go-notice-crawler/internal/notice"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// reserved paths a source trigger may not shadow
var reserved = map[string]bool{"search": true, "healthz": true, "metrics": true, "api": true}

// Server exposes the notice list, the ingestion API and the crawl triggers.
type Server struct {
	svc     *notice.Service
	metrics *metrics.Metrics
	logger  *zap.Logger
	tmpl    *template.Template
}

func New(svc *notice.Service, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{svc: svc, metrics: m, logger: logger, tmpl: tmpl}, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.SetHTMLTemplate(s.tmpl)

	r.GET("/", s.HandleIndex)
	r.GET("/search", s.HandleSearch)
	r.GET("/healthz", s.HandleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/notices", s.HandleListNotices)
	api.GET("/notices/:id", s.HandleGetNotice)
	api.POST("/insert_notice", s.HandleInsertNotice)

	for _, name := range s.svc.Catalog().Triggers() {
		if reserved[name] {
			s.logger.Warn("⚠️ Source trigger shadows a built-in route, not registered", zap.String("trigger", name))
			continue
		}
		r.GET("/"+name, s.HandleTrigger(name))
	}

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics" {
			return
		}
		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// HandleHealth pings the store.
func (s *Server) HandleHealth(c *gin.Context) {
	if err := s.svc.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

var templateFuncs = template.FuncMap{
	"preview": func(s string, n int) string {
		runes := []rune(strings.TrimSpace(s))
		if len(runes) <= n {
			return string(runes)
		}
		return string(runes[:n]) + "…"
	},
}
