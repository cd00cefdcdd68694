package middleware

// session.go loads the server-side session context named by the signed
// "sid" cookie into the Echo context.  It never rejects a request: the
// session is an optional second credential used only by the session-aware
// auth endpoints, so an absent, tampered or expired session simply leaves
// the request anonymous.

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/shoply/catalog-api/internal/session"
)

// Context keys populated by LoadSession.
const (
	CtxSessionID = "session_id"
	CtxSession   = "session"
)

// LoadSession returns an Echo middleware that resolves the session cookie
// against the Redis-backed store.  A cookie with a bad signature is
// indistinguishable from no cookie at all.  Store lookup failures are
// logged and treated as "no session" rather than failing the request; the
// session-aware handlers decide what an absent session means for them.
func LoadSession(store *session.Store, secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			id, ok := session.VerifyCookie(cookie.Value, secret)
			if !ok {
				return next(c)
			}
			if !store.Ready() {
				return next(c)
			}
			sc, err := store.Get(c.Request().Context(), id)
			if err != nil {
				log.Printf("session: load %.12s failed: %v", id, err)
				return next(c)
			}
			if sc == nil {
				return next(c)
			}
			c.Set(CtxSessionID, id)
			c.Set(CtxSession, sc)
			return next(c)
		}
	}
}

// SessionFromContext returns the loaded session identifier and context, or
// ("", nil) for anonymous requests.
func SessionFromContext(c echo.Context) (string, *session.Context) {
	id, _ := c.Get(CtxSessionID).(string)
	sc, _ := c.Get(CtxSession).(*session.Context)
	return id, sc
}
