package middleware

import (
	"errors"
	"net/http"
	"strings"

	"admetrics/internal/pkg/jwt"
	"admetrics/internal/pkg/logger"
	"admetrics/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

const loginRequiredMessage = "Please Login First...!"

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// OptionalAuth establishes an identity when a bearer token is present.
// Requests without a token pass through as guests; a present but bad token
// is rejected.
func OptionalAuth(tokens TokenValidator) gin.HandlerFunc {
	log := logger.WithComponent("auth")

	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if h == "" {
			c.Next()
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Invalid Authorization header")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Empty token")
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, jwt.ErrTokenExpired) {
				reason = "expired"
			}
			log.Debug().Str("reason", reason).Str("path", c.Request.URL.Path).Msg("token rejected")

			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", err.Error())
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// RequireAuth aborts when no identity was established upstream.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(UserIDKey) == "" {
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", loginRequiredMessage)
			return
		}
		c.Next()
	}
}
