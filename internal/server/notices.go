package server

import (
	"errors"
	"net/http"
	"strconv"

	"go-notice-crawler/internal/database"
	"go-notice-crawler/internal/notice"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// pageParam reads ?page=; anything unparseable means the first page.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// pagination is the view model for the pager.
type pagination struct {
	Page       int
	TotalPages int
	Total      int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
	Pages      []int
}

func newPagination(p database.Page) pagination {
	pg := pagination{
		Page:       p.Page,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < p.TotalPages,
		PrevPage:   p.Page - 1,
		NextPage:   p.Page + 1,
	}
	for i := 1; i <= p.TotalPages; i++ {
		pg.Pages = append(pg.Pages, i)
	}
	return pg
}

// HandleIndex renders GET /?page=&school=.
func (s *Server) HandleIndex(c *gin.Context) {
	s.renderList(c, notice.ListQuery{Page: pageParam(c), School: c.Query("school")})
}

// HandleSearch renders GET /search?q=&page=.
func (s *Server) HandleSearch(c *gin.Context) {
	s.renderList(c, notice.ListQuery{Page: pageParam(c), School: c.Query("school"), Search: c.Query("q")})
}

func (s *Server) renderList(c *gin.Context, q notice.ListQuery) {
	ctx := c.Request.Context()
	page, err := s.svc.List(ctx, q)
	if err != nil {
		s.logger.Error("❌ Failed to list notices", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "Could not load notices."})
		return
	}
	schools, err := s.svc.Schools(ctx)
	if err != nil {
		s.logger.Warn("⚠️ Failed to load school list", zap.Error(err))
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Notices":    page.Items,
		"Pagination": newPagination(page),
		"Schools":    schools,
		"School":     q.School,
		"Query":      q.Search,
		"Triggers":   s.svc.Catalog().Triggers(),
	})
}

// HandleListNotices handles GET /api/notices?page=&school=&q=.
func (s *Server) HandleListNotices(c *gin.Context) {
	page, err := s.svc.List(c.Request.Context(), notice.ListQuery{
		Page:   pageParam(c),
		School: c.Query("school"),
		Search: c.Query("q"),
	})
	if err != nil {
		s.logger.Error("❌ Failed to list notices", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to list notices")
		return
	}
	c.JSON(http.StatusOK, page)
}

// HandleGetNotice handles GET /api/notices/:id.
func (s *Server) HandleGetNotice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		errorJSON(c, http.StatusBadRequest, "invalid_parameter", "id must be a positive integer")
		return
	}
	n, err := s.svc.Get(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		errorJSON(c, http.StatusNotFound, "not_found", "Notice not found")
		return
	}
	if err != nil {
		s.logger.Error("❌ Failed to load notice", zap.Int64("id", id), zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to load notice")
		return
	}
	c.JSON(http.StatusOK, n)
}

// HandleInsertNotice handles POST /api/insert_notice. Re-submitting a stored
// original_link answers 200 already_exists.
func (s *Server) HandleInsertNotice(c *gin.Context) {
	var req notice.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "validation_error", "Invalid JSON body: "+err.Error())
		return
	}

	res, err := s.svc.Ingest(c.Request.Context(), req)
	switch {
	case errors.Is(err, notice.ErrValidation), errors.Is(err, notice.ErrInvalidDate):
		errorJSON(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	case err != nil:
		errorJSON(c, http.StatusInternalServerError, "internal_error", "Failed to store notice: "+err.Error())
		return
	}

	status := http.StatusOK
	if res.Status == notice.StatusCreated {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}
