package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quizentia/quizentia-web/internal/middleware"
	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/quizentia/quizentia-web/internal/response"
	"github.com/quizentia/quizentia-web/internal/service"
	"github.com/quizentia/quizentia-web/internal/validator"
	"github.com/rs/zerolog"
)

// CatalogHandler serves the public quiz list.
type CatalogHandler struct {
	catalog  *service.CatalogService
	sessions *service.SessionService
	log      zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService, sessions *service.SessionService, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:  catalog,
		sessions: sessions,
		log:      log.With().Str("component", "catalog_handler").Logger(),
	}
}

// ListWeeks godoc
// GET /api/v1/quizzes/weekly
func (h *CatalogHandler) ListWeeks(c *gin.Context) {
	weeks, err := h.catalog.ListWeeks(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"weeks": weeks})
}

// SelectWeek godoc
// POST /api/v1/quizzes/weekly/:week_id/select
// Picks the week's quiz set for this client and opens a session on it.
func (h *CatalogHandler) SelectWeek(c *gin.Context) {
	weekID := strings.TrimSpace(c.Param("week_id"))
	if weekID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	ctx := c.Request.Context()
	store := middleware.GetStore(c)

	sel, err := h.catalog.SelectWeek(ctx, store, weekID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	sess, err := h.sessions.Start(ctx, middleware.GetClientID(c), store, service.Selection{QuizIDs: sel.QuizIDs})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"selection": sel, "session": sess.View()})
}

// Generate godoc
// POST /api/v1/quizzes/generate
// Builds a quiz from a source article URL.
func (h *CatalogHandler) Generate(c *gin.Context) {
	var req model.GenerateQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	quiz, err := h.catalog.Generate(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}
