package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shoply/catalog-api/internal/utils"
)

// Context keys populated by JWTAuth for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject and email claims into the request
// context.  The provided secret must match the one used when issuing
// tokens.  Verification is purely stateless: it never consults the session
// store, so a bearer token keeps working after the session it was issued
// alongside has been logged out.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			payload, err := utils.VerifyBearerToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(CtxUserID, payload.UserID)
			c.Set(CtxEmail, payload.Email)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user id set by JWTAuth.  It returns 0
// when the request did not pass through the middleware.
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxUserID).(uint64); ok {
		return v
	}
	return 0
}
