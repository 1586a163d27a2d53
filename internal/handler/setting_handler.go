package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/response"
)

// SettingHandler serves the UI configuration shared by every screen.
type SettingHandler struct {
	cfg *config.Config
}

func NewSettingHandler(cfg *config.Config) *SettingHandler {
	return &SettingHandler{cfg: cfg}
}

// GetPublicSettings godoc
// GET /api/v1/public/settings
func (h *SettingHandler) GetPublicSettings(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"settings": gin.H{
			"app_title": h.cfg.AppTitle,
			"app_theme": h.cfg.AppTheme,
		},
	})
}
