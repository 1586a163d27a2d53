package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizentia/quizentia-web/internal/quizapi"
	"github.com/quizentia/quizentia-web/internal/response"
	"github.com/quizentia/quizentia-web/internal/service"
	"github.com/rs/zerolog"
)

// respondError maps a service error onto the response envelope.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var (
		authErr       *service.AuthError
		validationErr *service.ValidationError
	)

	switch {
	case errors.As(err, &validationErr):
		response.FailWithMessages(c, http.StatusUnprocessableEntity, response.ErrValidation, validationErr.Messages)
	case errors.As(err, &authErr):
		response.FailWithMessage(c, http.StatusUnauthorized, response.ErrInvalidCredentials, authErr.Detail)
	case errors.Is(err, service.ErrSessionExpired):
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionExpired)
	case errors.Is(err, service.ErrNoQuizSelected):
		response.Fail(c, http.StatusConflict, response.ErrQuizNotSelected)
	case errors.Is(err, service.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
	case errors.Is(err, service.ErrInvalidOption):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidOption)
	case errors.Is(err, service.ErrSessionClosed):
		response.Fail(c, http.StatusRequestTimeout, response.ErrSessionClosed)
	case errors.Is(err, service.ErrWeekNotFound), errors.Is(err, service.ErrNotFound):
		response.FailWithFields(c, http.StatusNotFound, response.ErrNotFound, detailFields(err))
	case errors.Is(err, service.ErrBackendUnavailable), errors.Is(err, service.ErrAdminUnavailable):
		response.FailWithFields(c, http.StatusBadGateway, response.ErrBackendUnavailable, detailFields(err))
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// detailFields carries the backend's own detail message, when it sent one.
func detailFields(err error) map[string]string {
	if detail := quizapi.DetailOf(err); detail != "" {
		return map[string]string{"detail": detail}
	}
	return nil
}
