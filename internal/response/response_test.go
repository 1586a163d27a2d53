package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, reqID string, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestFailUsesDefaultMessage(t *testing.T) {
	w, body := serve(t, "req-1", func(c *gin.Context) {
		Fail(c, http.StatusBadGateway, ErrBackendUnavailable)
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrBackendUnavailable, body.Error.Code)
	assert.Equal(t, GetMessage(ErrBackendUnavailable), body.Error.Message)
	assert.Equal(t, "req-1", body.Metadata.RequestID)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}

func TestFailWithMessageOverrides(t *testing.T) {
	_, body := serve(t, "", func(c *gin.Context) {
		FailWithMessage(c, http.StatusUnauthorized, ErrInvalidCredentials, "Incorrect username or password")
	})
	assert.Equal(t, "Incorrect username or password", body.Error.Message)
	assert.NotEmpty(t, body.Metadata.RequestID)

	_, body = serve(t, "", func(c *gin.Context) {
		FailWithMessage(c, http.StatusUnauthorized, ErrInvalidCredentials, "")
	})
	assert.Equal(t, "Invalid credentials", body.Error.Message)
}

func TestFailWithMessages(t *testing.T) {
	_, body := serve(t, "", func(c *gin.Context) {
		FailWithMessages(c, http.StatusUnprocessableEntity, ErrValidation, []string{"a", "b"})
	})
	assert.Equal(t, []string{"a", "b"}, body.Error.Messages)
}

func TestRequestIDTooLongIsReplaced(t *testing.T) {
	w, body := serve(t, strings.Repeat("x", 200), func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"ok": true})
	})
	assert.Len(t, body.Metadata.RequestID, 36)
	assert.Equal(t, body.Metadata.RequestID, w.Header().Get("X-Request-ID"))
	assert.Nil(t, body.Error)
}
