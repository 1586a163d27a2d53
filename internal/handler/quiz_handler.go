package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizentia/quizentia-web/internal/middleware"
	"github.com/quizentia/quizentia-web/internal/model"
	"github.com/quizentia/quizentia-web/internal/response"
	"github.com/quizentia/quizentia-web/internal/service"
	"github.com/quizentia/quizentia-web/internal/validator"
	"github.com/rs/zerolog"
)

// QuizHandler drives a client's quiz session.
type QuizHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(sessions *service.SessionService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		sessions: sessions,
		log:      log.With().Str("component", "quiz_handler").Logger(),
	}
}

// GetSession godoc
// GET /api/v1/quiz/session
// Returns the live session, resuming the last-used quiz set if needed.
func (h *QuizHandler) GetSession(c *gin.Context) {
	sess, err := h.sessions.Current(c.Request.Context(), middleware.GetClientID(c), middleware.GetStore(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess.View()})
}

// StartSession godoc
// POST /api/v1/quiz/session
// Opens a session for the given quiz IDs, the default quiz, or (empty body)
// the last-used quiz set.
func (h *QuizHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.BindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sel := service.Selection{QuizIDs: req.QuizIDs, Default: req.Default}
	sess, err := h.sessions.Start(c.Request.Context(), middleware.GetClientID(c), middleware.GetStore(c), sel)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess.View()})
}

// Answer godoc
// POST /api/v1/quiz/session/answer
// Answers the current question.
func (h *QuizHandler) Answer(c *gin.Context) {
	var req model.SelectOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	h.withSession(c, func(sess *service.Session) (service.SessionView, error) {
		return sess.SelectOption(c.Request.Context(), req.Option)
	})
}

// Next godoc
// POST /api/v1/quiz/session/next
// Moves to the next question, or completes the quiz after the last one.
func (h *QuizHandler) Next(c *gin.Context) {
	h.withSession(c, func(sess *service.Session) (service.SessionView, error) {
		return sess.Advance(c.Request.Context())
	})
}

// ToggleHint godoc
// POST /api/v1/quiz/session/hint
// Shows or hides the current question's hint.
func (h *QuizHandler) ToggleHint(c *gin.Context) {
	h.withSession(c, func(sess *service.Session) (service.SessionView, error) {
		return sess.ToggleHint()
	})
}

// Restart godoc
// POST /api/v1/quiz/session/restart
// Discards progress and starts the same quiz from the first question.
func (h *QuizHandler) Restart(c *gin.Context) {
	h.withSession(c, func(sess *service.Session) (service.SessionView, error) {
		return sess.Restart(c.Request.Context())
	})
}

func (h *QuizHandler) withSession(c *gin.Context, action func(*service.Session) (service.SessionView, error)) {
	sess, err := h.sessions.Current(c.Request.Context(), middleware.GetClientID(c), middleware.GetStore(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	view, err := action(sess)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}
