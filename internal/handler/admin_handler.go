package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quizentia/quizentia-web/internal/middleware"
	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/quizentia/quizentia-web/internal/response"
	"github.com/quizentia/quizentia-web/internal/service"
	"github.com/quizentia/quizentia-web/internal/validator"
	"github.com/rs/zerolog"
)

// AdminHandler handles the admin login and quiz management endpoints.
// The backend token never leaves the server; the browser only holds its client cookie.
type AdminHandler struct {
	adminService *service.AdminService
	log          zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *service.AdminService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		log:          log.With().Str("component", "admin_handler").Logger(),
	}
}

// Login godoc
// POST /api/v1/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	cred, err := h.adminService.Login(c.Request.Context(), middleware.GetStore(c), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"authenticated": true,
		"expires_at":    cred.ExpiresAt,
	})
}

// Logout godoc
// POST /api/v1/admin/logout
func (h *AdminHandler) Logout(c *gin.Context) {
	if err := h.adminService.Logout(c.Request.Context(), middleware.GetStore(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"authenticated": false})
}

// Session godoc
// GET /api/v1/admin/session
// Reports whether this client holds a live admin credential.
func (h *AdminHandler) Session(c *gin.Context) {
	ok, err := h.adminService.IsAuthenticated(c.Request.Context(), middleware.GetStore(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"authenticated": ok})
}

// ListWeeks godoc
// GET /api/v1/admin/weeks
func (h *AdminHandler) ListWeeks(c *gin.Context) {
	weeks, err := h.adminService.Weeks(c.Request.Context(), middleware.GetStore(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"weeks": weeks})
}

// WeekQuizzes godoc
// GET /api/v1/admin/weeks/:week_id/quizzes
func (h *AdminHandler) WeekQuizzes(c *gin.Context) {
	weekID, ok := weekParam(c)
	if !ok {
		return
	}

	resp, err := h.adminService.WeekQuizzes(c.Request.Context(), middleware.GetStore(c), weekID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// WeekQuestions godoc
// GET /api/v1/admin/weeks/:week_id/questions?search=
func (h *AdminHandler) WeekQuestions(c *gin.Context) {
	weekID, ok := weekParam(c)
	if !ok {
		return
	}

	listing, err := h.adminService.WeekQuestions(c.Request.Context(), middleware.GetStore(c), weekID, c.Query("search"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// QuizQuestions godoc
// GET /api/v1/admin/quizzes/:quiz_id/questions?search=
func (h *AdminHandler) QuizQuestions(c *gin.Context) {
	quizID, ok := intParam(c, "quiz_id", 1)
	if !ok {
		return
	}

	listing, err := h.adminService.QuizQuestions(c.Request.Context(), middleware.GetStore(c), quizID, c.Query("search"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// UpdateQuestion godoc
// PUT /api/v1/admin/quizzes/:quiz_id/questions/:index
// Validated locally; nothing is sent upstream when the edit is invalid.
func (h *AdminHandler) UpdateQuestion(c *gin.Context) {
	quizID, ok := intParam(c, "quiz_id", 1)
	if !ok {
		return
	}
	index, ok := intParam(c, "index", 0)
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, validator.TranslateErrors(err))
		return
	}

	if err := h.adminService.UpdateQuestion(c.Request.Context(), middleware.GetStore(c), quizID, index, req); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "question updated successfully"})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/quizzes/:quiz_id/questions/:index
func (h *AdminHandler) DeleteQuestion(c *gin.Context) {
	quizID, ok := intParam(c, "quiz_id", 1)
	if !ok {
		return
	}
	index, ok := intParam(c, "index", 0)
	if !ok {
		return
	}

	if err := h.adminService.DeleteQuestion(c.Request.Context(), middleware.GetStore(c), quizID, index); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "question deleted successfully"})
}

// DeleteQuiz godoc
// DELETE /api/v1/admin/quizzes/:quiz_id
func (h *AdminHandler) DeleteQuiz(c *gin.Context) {
	quizID, ok := intParam(c, "quiz_id", 1)
	if !ok {
		return
	}

	if err := h.adminService.DeleteQuiz(c.Request.Context(), middleware.GetStore(c), quizID); err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "quiz deleted successfully"})
}

func weekParam(c *gin.Context) (string, bool) {
	weekID := strings.TrimSpace(c.Param("week_id"))
	if weekID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return weekID, true
}

// intParam parses a numeric path parameter no smaller than minValue.
func intParam(c *gin.Context, name string, minValue int) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < minValue {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return n, true
}
