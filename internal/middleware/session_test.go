package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/shoply/catalog-api/internal/model"
	"github.com/shoply/catalog-api/internal/session"
)

const cookieSecret = "cookie-test-secret"

func newSessionStore(t *testing.T) *session.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return session.NewStore(rdb, 30*time.Minute)
}

func loadSessionRequest(t *testing.T, store *session.Store, cookieValue string) (string, *session.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	if cookieValue != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookieValue})
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var gotID string
	var gotSC *session.Context
	h := LoadSession(store, cookieSecret)(func(c echo.Context) error {
		gotID, gotSC = SessionFromContext(c)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("LoadSession chain: %v", err)
	}
	return gotID, gotSC
}

func TestLoadSessionResolvesSignedCookie(t *testing.T) {
	store := newSessionStore(t)
	id, err := session.NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID: %v", err)
	}
	want := &session.Context{UserID: 3, Email: "c@d.e", Status: model.SessionLoggedIn}
	if err := store.Save(context.Background(), id, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gotID, gotSC := loadSessionRequest(t, store, session.SignCookie(id, cookieSecret))
	if gotID != id {
		t.Fatalf("session id = %q, want %q", gotID, id)
	}
	if gotSC == nil || *gotSC != *want {
		t.Fatalf("session context = %+v, want %+v", gotSC, want)
	}
}

func TestLoadSessionAnonymousPaths(t *testing.T) {
	store := newSessionStore(t)
	id, _ := session.NewSessionID()

	cases := map[string]string{
		"no cookie":       "",
		"tampered cookie": session.SignCookie(id, "wrong-secret"),
		"unsigned cookie": id,
		"unknown session": session.SignCookie(id, cookieSecret), // never saved
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			gotID, gotSC := loadSessionRequest(t, store, value)
			if gotID != "" || gotSC != nil {
				t.Fatalf("expected anonymous request, got (%q, %+v)", gotID, gotSC)
			}
		})
	}
}

func TestLoadSessionWithoutStoreStaysAnonymous(t *testing.T) {
	store := session.NewStore(nil, 0)
	id, _ := session.NewSessionID()
	gotID, gotSC := loadSessionRequest(t, store, session.SignCookie(id, cookieSecret))
	if gotID != "" || gotSC != nil {
		t.Fatalf("expected anonymous request, got (%q, %+v)", gotID, gotSC)
	}
}
