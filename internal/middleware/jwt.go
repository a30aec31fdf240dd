package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/distal/internal/apperr"
)

const userIDKey = "user_id"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTMiddleware requires a valid bearer token and stores the user id on the context.
// Websocket upgrades may pass the token as the "token" query parameter instead.
func JWTMiddleware(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := bearerToken(c)
			if tokenStr == "" {
				return apperr.New(apperr.CodeUnauthorized, "Access token required")
			}
			userID, err := v.Verify(tokenStr)
			if err != nil {
				return apperr.Wrap(err, apperr.CodeUnauthorized, "Invalid or expired token")
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	req := c.Request()
	ah := req.Header.Get(echo.HeaderAuthorization)
	if len(ah) > len("bearer ") && strings.EqualFold(ah[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(ah[len("bearer "):])
	}
	if strings.EqualFold(req.Header.Get(echo.HeaderUpgrade), "websocket") {
		return c.QueryParam("token")
	}
	return ""
}

// UserID returns the authenticated user id set by JWTMiddleware.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
