package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleTrigger crawls the sources behind name synchronously and shows what
// was found. ?format=json returns the run report instead of HTML.
func (s *Server) HandleTrigger(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := s.svc.RunSource(c.Request.Context(), name)
		if err != nil {
			s.logger.Error("❌ Triggered crawl failed", zap.String("trigger", name), zap.Error(err))
			if c.Query("format") == "json" {
				errorJSON(c, http.StatusBadGateway, "crawl_failed", err.Error())
				return
			}
			c.HTML(http.StatusBadGateway, "error.html", gin.H{"Message": "Crawl failed: " + err.Error()})
			return
		}

		if c.Query("format") == "json" {
			c.JSON(http.StatusOK, report)
			return
		}
		c.HTML(http.StatusOK, "result.html", gin.H{
			"Trigger": name,
			"Report":  report,
		})
	}
}
