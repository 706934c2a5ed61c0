package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stock-trader/session"
	"stock-trader/utils"
)

const UserIDKey = "user_id"

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (uint, error)
}

// SessionToken reads the session token from the cookie, falling back to a bearer header.
func SessionToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireSession rejects requests without a live session and stores the user id under UserIDKey.
func RequireSession(sessions SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			abortUnauthorized(c)
			return
		}

		ctx := c.Request.Context()
		userID, err := sessions.Resolve(ctx, token)
		if err != nil {
			if !errors.Is(err, session.ErrInvalid) {
				slog.Error("session lookup failed", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
			}
			abortUnauthorized(c)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required", "code": http.StatusUnauthorized})
}
