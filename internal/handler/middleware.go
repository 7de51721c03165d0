// Package handler provides HTTP handlers for the chat gateway.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/buddhai/hyundai-chat/internal/ui"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextKeySession is the gin context key holding the session token.
	ContextKeySession = "session_token"

	// sessionCookieMaxAge keeps the cookie for 30 days. Conversations live
	// in process memory only, so an old cookie simply recreates fresh state.
	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

// SessionMiddleware returns a middleware that issues and propagates the
// opaque session token. A first-time visitor gets a fresh random token in an
// HTTP-only cookie; every handler downstream reads it from the context.
func SessionMiddleware(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			token = uuid.NewString()
			c.SetCookie(cookieName, token, sessionCookieMaxAge, "/", "", false, true)
		}
		c.Set(ContextKeySession, token)
		c.Next()
	}
}

// LoggingMiddleware returns a middleware that logs request details in JSON
// format and prints the styled console line.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)
		token := c.GetString(ContextKeySession)

		logger.Info("request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", latency),
			slog.String("client_ip", c.ClientIP()),
			slog.String("session", maskToken(token)),
		)

		ui.PrintRequest(c.Request.Method, path, c.Writer.Status(), latency, maskToken(token))
	}
}

// RecoveryMiddleware returns a middleware that recovers from panics.
// It logs the error and returns a 500 response.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("path", c.Request.URL.Path),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()

		c.Next()
	}
}

// maskToken returns a masked version of the session token for logging.
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:8] + "..."
}
