package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizentia/quizentia-web/internal/response"
	"github.com/quizentia/quizentia-web/internal/service"
	"github.com/rs/zerolog"
)

// RequireAdminSession rejects requests from clients without a live admin credential.
// Handlers still go through AdminService, which attaches the token to each call.
// Must run after ClientIdentity.
func RequireAdminSession(adminService *service.AdminService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := GetStore(c)
		if store == nil {
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		if _, err := adminService.Credential(c.Request.Context(), store); err != nil {
			if errors.Is(err, service.ErrSessionExpired) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionExpired)
				return
			}
			log.Error().Err(err).Msg("Failed to load admin credential")
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Next()
	}
}
