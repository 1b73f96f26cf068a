package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/filtering"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/pipeline"
	"github.com/spigell/job-matcher/internal/posting"
	"github.com/spigell/job-matcher/internal/resume"
	"github.com/spigell/job-matcher/internal/store"
)

type resumeSummary struct {
	Name     string   `json:"name"`
	Skills   []string `json:"skills"`
	Keywords []string `json:"keywords"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "resume_loaded": !s.deps.Resume.Get().IsEmpty()})
}

func (s *Server) putResume(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxResumeBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(c.Query("filename"))
	parsed, err := s.deps.Parser.Parse(name, data)
	switch {
	case errors.Is(err, resume.ErrUnsupportedFormat):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	case parsed.IsEmpty():
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "résumé contains no text"})
		return
	}

	s.deps.Resume.Set(parsed)
	s.logger.Info("résumé replaced",
		zap.String("name", parsed.Name),
		zap.Int("skills", len(parsed.Skills)),
		zap.Int("keywords", len(parsed.Keywords)),
	)

	c.JSON(http.StatusOK, summarize(parsed))
}

func (s *Server) getResume(c *gin.Context) {
	current := s.deps.Resume.Get()
	if current.IsEmpty() {
		c.JSON(http.StatusNotFound, gin.H{"error": pipeline.ErrNoResume.Error()})
		return
	}
	c.JSON(http.StatusOK, summarize(current))
}

func (s *Server) matches(c *gin.Context) {
	opts, ok := matchOptions(c)
	if !ok {
		return
	}

	rows, err := s.deps.Ranker.Rank(c.Request.Context(), s.deps.Resume.Get(), opts)
	switch {
	case errors.Is(err, pipeline.ErrNoResume):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, posting.ErrInvalidStatus), errors.Is(err, filtering.ErrUnknownFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": rows.Len(), "matches": rows})
}

func (s *Server) filters(c *gin.Context) {
	opts, ok := matchOptions(c)
	if !ok {
		return
	}

	statuses, err := s.deps.Ranker.DescribeFilters(opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"filters": statuses})
}

// matchOptions reads the ranking query parameters. It writes a 400 response
// and returns false when one of them is malformed.
func matchOptions(c *gin.Context) (pipeline.Options, bool) {
	opts := pipeline.Options{
		Statuses: queryList(c, "status"),
		Disabled: queryList(c, "disable"),
	}

	if raw := c.Query("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a number"})
			return opts, false
		}
		opts.MinimumScore = &v
	}

	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return opts, false
		}
		opts.Limit = v
	}

	return opts, true
}

// queryList accepts both repeated and comma separated values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func (s *Server) getPosting(c *gin.Context) {
	p, err := s.deps.Store.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) putStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := posting.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	ok, err := s.deps.Store.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": store.ErrNotFound.Error()})
		return
	}

	s.logger.Info("status updated", zap.String(logger.FieldPostingID, id), zap.String("status", status.String()))

	p, err := s.deps.Store.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func summarize(p *resume.Parsed) resumeSummary {
	return resumeSummary{Name: p.Name, Skills: p.Skills, Keywords: p.Keywords}
}
