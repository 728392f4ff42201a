package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

const operatorContextKey = "operator"

// RequestLogger logs one line per request with the parsed client agent.
func RequestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		ua := user_agent.New(c.Request.UserAgent())
		browser, _ := ua.Browser()
		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"browser":    browser,
			"os":         ua.OS(),
			"bot":        ua.Bot(),
		}
		if operator, ok := c.Get(operatorContextKey); ok {
			fields["operator"] = operator
		}

		entry := logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.WithField("errors", c.Errors.String()).Error("request failed")
		case status >= http.StatusBadRequest:
			entry.WithField("errors", c.Errors.String()).Warn("request rejected")
		default:
			entry.Info("request completed")
		}
	}
}

// RequireOperator accepts only requests carrying a valid operator bearer token.
func RequireOperator(tokens *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"kind":    "unauthorized",
				"message": "bearer token required",
			}})
			return
		}

		claims, err := tokens.ValidateOperator(strings.TrimSpace(token))
		if err != nil {
			_ = c.Error(err)
			status, kind := http.StatusUnauthorized, "invalid_token"
			if errors.Is(err, auth.ErrForbidden) {
				status, kind = http.StatusForbidden, "forbidden"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"kind": kind, "message": err.Error()}})
			return
		}

		c.Set(operatorContextKey, claims.Subject)
		c.Next()
	}
}
