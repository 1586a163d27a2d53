package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/storage"
)

const (
	// ContextKeyClientID is the Gin context key for the browser client ID.
	ContextKeyClientID = "client_id"
	// ContextKeyStore is the Gin context key for the client's scoped store.
	ContextKeyStore = "client_store"

	// ClientCookieName carries the client ID between requests.
	ClientCookieName = "quiz_client_id"
	// ClientIDHeader lets non-browser callers such as quizctl pin a client ID.
	ClientIDHeader = "X-Client-ID"

	clientCookieMaxAge = 365 * 24 * 60 * 60
)

// ClientIdentity resolves the caller's client ID from the header or cookie,
// issuing a fresh one when absent or malformed, and scopes the store to it.
func ClientIdentity(store storage.Store, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := parseClientID(c.GetHeader(ClientIDHeader))
		if clientID == "" {
			if raw, err := c.Cookie(ClientCookieName); err == nil {
				clientID = parseClientID(raw)
			}
		}
		if clientID == "" {
			clientID = uuid.New().String()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(ClientCookieName, clientID, clientCookieMaxAge, "/", "", secureCookie, true)

		c.Set(ContextKeyClientID, clientID)
		c.Set(ContextKeyStore, storage.Scope(store, config.CacheKey.ClientNamespace(clientID)))
		c.Next()
	}
}

func parseClientID(raw string) string {
	id, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	return id.String()
}

// GetClientID returns the client ID set by ClientIdentity.
func GetClientID(c *gin.Context) string {
	return c.GetString(ContextKeyClientID)
}

// GetStore returns the client's scoped store set by ClientIdentity.
func GetStore(c *gin.Context) storage.Store {
	val, exists := c.Get(ContextKeyStore)
	if !exists {
		return nil
	}
	store, ok := val.(storage.Store)
	if !ok {
		return nil
	}
	return store
}
