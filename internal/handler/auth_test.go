package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/shoply/catalog-api/internal/config"
	"github.com/shoply/catalog-api/internal/handler"
	"github.com/shoply/catalog-api/internal/model"
	"github.com/shoply/catalog-api/internal/repository"
	"github.com/shoply/catalog-api/internal/router"
	"github.com/shoply/catalog-api/internal/session"
	"github.com/shoply/catalog-api/internal/utils"
)

// ----- in-memory collaborators -----

type fakeUsers struct {
	mu        sync.Mutex
	byEmail   map[string]uint64
	byID      map[uint64]model.User
	passwords map[uint64]string
	nextID    uint64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byEmail:   map[string]uint64{},
		byID:      map[uint64]model.User{},
		passwords: map[uint64]string{},
	}
}

func (f *fakeUsers) Create(_ context.Context, p repository.CreateUserParams, _ int) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[p.Email]; ok {
		return model.User{}, repository.ErrEmailExists
	}
	f.nextID++
	u := model.User{
		ID:        f.nextID,
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		UserName:  p.UserName,
		Gender:    p.Gender,
		DOB:       p.DOB,
		Phone:     p.Phone,
		IsActive:  true,
	}
	f.byEmail[p.Email] = u.ID
	f.byID[u.ID] = u
	f.passwords[u.ID] = p.Password
	return u, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, email, password string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok || f.passwords[id] != password {
		return model.User{}, repository.ErrInvalidCredentials
	}
	return f.byID[id], nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return f.byID[id], nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) setPassword(id uint64, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[id] = password
}

type resetEntry struct {
	userID    uint64
	expiresAt time.Time
	consumed  bool
}

// fakeResets mirrors the compare-and-set consumption contract of the SQL
// implementation: exactly one Consume per token can succeed.
type fakeResets struct {
	mu     sync.Mutex
	users  *fakeUsers
	tokens map[string]*resetEntry
}

func newFakeResets(users *fakeUsers) *fakeResets {
	return &fakeResets{users: users, tokens: map[string]*resetEntry{}}
}

func (f *fakeResets) Issue(_ context.Context, userID uint64, ttl time.Duration) (string, error) {
	raw, err := utils.RandomToken(16)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[raw] = &resetEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	return raw, nil
}

func (f *fakeResets) Consume(_ context.Context, rawToken, newPassword string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.tokens[rawToken]
	if !ok || e.consumed || time.Now().After(e.expiresAt) {
		return repository.ErrResetTokenInvalid
	}
	e.consumed = true
	f.users.setPassword(e.userID, newPassword)
	return nil
}

type recorderStub struct{}

func (recorderStub) UpsertLogin(_ context.Context, sessionID string, userID uint64, email string) (model.SessionRecord, error) {
	return model.SessionRecord{SessionID: sessionID, UserID: userID, Email: email, Status: model.SessionLoggedIn}, nil
}

func (recorderStub) MarkLogout(_ context.Context, sessionID string) (*model.SessionRecord, error) {
	return &model.SessionRecord{SessionID: sessionID, Status: model.SessionLoggedOut}, nil
}

// ----- fixture -----

type fixture struct {
	e      *echo.Echo
	users  *fakeUsers
	resets *fakeResets
	store  *session.Store
	cfg    config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.Config{
		Env:              "test",
		JWTSecret:        "jwt-secret",
		SessionSecret:    "session-secret",
		AccessTTLMin:     15,
		SessionTTLMin:    60,
		ResetTokenTTLMin: 30,
		BcryptCost:       4,
	}

	users := newFakeUsers()
	resets := newFakeResets(users)
	store := session.NewStore(rdb, time.Hour)
	orch := &session.Orchestrator{Store: store, Records: recorderStub{}}

	e := echo.New()
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, resets, orch), store, rdb, cfg)

	return &fixture{e: e, users: users, resets: resets, store: store, cfg: cfg}
}

func (f *fixture) do(t *testing.T, method, path string, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func registerBody(email, password string) map[string]string {
	return map[string]string{
		"email":           email,
		"password":        password,
		"confirmPassword": password,
		"firstName":       "Alice",
		"lastName":        "Doe",
	}
}

func (f *fixture) register(t *testing.T, email, password string) map[string]any {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/auth/register", registerBody(email, password), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)
}

func (f *fixture) login(t *testing.T, email, password string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, mutate)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

// ----- register -----

func TestRegisterIssuesBearerToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/auth/register", registerBody("alice@example.com", "hunter2hunter2"), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)

	tok, _ := body["token"].(string)
	if tok == "" {
		t.Fatal("expected a bearer token in the response")
	}
	payload, err := utils.VerifyBearerToken(f.cfg.JWTSecret, tok)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if payload.Email != "alice@example.com" {
		t.Fatalf("token email = %q", payload.Email)
	}

	user, _ := body["user"].(map[string]any)
	if user["email"] != "alice@example.com" {
		t.Fatalf("user part = %+v", user)
	}

	// Registering hands out a token but no session; only login sets the cookie.
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			t.Fatal("register must not establish a session")
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]map[string]string{
		"missing email": {"password": "hunter2hunter2", "confirmPassword": "hunter2hunter2"},
		"mismatch":      {"email": "a@b.c", "password": "hunter2hunter2", "confirmPassword": "different-pass"},
		"too short":     {"email": "a@b.c", "password": "short", "confirmPassword": "short"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/auth/register", body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "hunter2hunter2")

	rec := f.do(t, http.MethodPost, "/api/auth/register", registerBody("alice@example.com", "hunter2hunter2"), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

// ----- login -----

func TestLoginEstablishesSignedSession(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "hunter2hunter2")

	rec := f.login(t, "alice@example.com", "hunter2hunter2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	id, ok := session.VerifyCookie(cookie.Value, f.cfg.SessionSecret)
	if !ok {
		t.Fatal("session cookie is not signed with the session secret")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}

	sc, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if !sc.LoggedIn() || sc.Email != "alice@example.com" {
		t.Fatalf("stored session = %+v, want logged_in for alice", sc)
	}
}

func TestLoginInvalidCredentialsAreUniform(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "hunter2hunter2")

	wrongPass := f.login(t, "alice@example.com", "bad-password-1", nil)
	unknown := f.login(t, "nobody@example.com", "bad-password-1", nil)

	if wrongPass.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d; want 401, 401", wrongPass.Code, unknown.Code)
	}
	if wrongPass.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ, which leaks account existence: %q vs %q",
			wrongPass.Body.String(), unknown.Body.String())
	}
}

func TestLoginRegeneratesFixatedSession(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "hunter2hunter2")

	first := f.login(t, "alice@example.com", "hunter2hunter2", nil)
	firstCookie := sessionCookie(t, first)
	firstID, _ := session.VerifyCookie(firstCookie.Value, f.cfg.SessionSecret)

	second := f.login(t, "alice@example.com", "hunter2hunter2", func(r *http.Request) {
		r.AddCookie(firstCookie)
	})
	secondID, _ := session.VerifyCookie(sessionCookie(t, second).Value, f.cfg.SessionSecret)

	if firstID == secondID {
		t.Fatal("login reused the presented session identifier")
	}
	old, err := f.store.Get(context.Background(), firstID)
	if err != nil || old != nil {
		t.Fatalf("prior session survived the second login: (%+v, %v)", old, err)
	}
}

// ----- logout -----

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	body := f.register(t, "alice@example.com", "hunter2hunter2")
	token, _ := body["token"].(string)

	login := f.login(t, "alice@example.com", "hunter2hunter2", nil)
	cookie := sessionCookie(t, login)
	id, _ := session.VerifyCookie(cookie.Value, f.cfg.SessionSecret)

	withAuth := func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
		r.AddCookie(cookie)
	}

	first := f.do(t, http.MethodPost, "/api/auth/logout", nil, withAuth)
	if first.Code != http.StatusOK {
		t.Fatalf("first logout: status = %d, body = %s", first.Code, first.Body.String())
	}
	cleared := sessionCookie(t, first)
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("logout must clear the cookie, got value=%q maxage=%d", cleared.Value, cleared.MaxAge)
	}

	sc, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if sc == nil || sc.LoggedIn() {
		t.Fatalf("session after logout = %+v, want logged_out", sc)
	}

	// Same request again, and once more with no session at all.
	second := f.do(t, http.MethodPost, "/api/auth/logout", nil, withAuth)
	if second.Code != http.StatusOK {
		t.Fatalf("repeated logout: status = %d", second.Code)
	}
	bare := f.do(t, http.MethodPost, "/api/auth/logout", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if bare.Code != http.StatusOK {
		t.Fatalf("logout without session: status = %d", bare.Code)
	}
}

func TestLogoutRequiresBearerToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBearerTokenSurvivesLogout(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "hunter2hunter2")

	login := f.login(t, "alice@example.com", "hunter2hunter2", nil)
	token, _ := decodeBody(t, login)["token"].(string)
	cookie := sessionCookie(t, login)

	logout := f.do(t, http.MethodPost, "/api/auth/logout", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
		r.AddCookie(cookie)
	})
	if logout.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", logout.Code)
	}

	// The token is stateless; tearing down the session does not revoke it.
	profile := f.do(t, http.MethodGet, "/api/auth/profile", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if profile.Code != http.StatusOK {
		t.Fatalf("profile after logout: status = %d, body = %s", profile.Code, profile.Body.String())
	}
	user, _ := decodeBody(t, profile)["user"].(map[string]any)
	if user["email"] != "alice@example.com" {
		t.Fatalf("profile user = %+v", user)
	}
}

// ----- password reset -----

func TestForgotPasswordUnknownEmailIsUniform(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{
		"email": "nobody@example.com",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if _, ok := body["resetToken"]; ok {
		t.Fatal("unknown email must not receive a reset token")
	}
	if body["message"] == "" {
		t.Fatal("expected a neutral message")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "old-password-1")

	forgot := f.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{
		"email": "alice@example.com",
	}, nil)
	if forgot.Code != http.StatusOK {
		t.Fatalf("forgot: status = %d", forgot.Code)
	}
	token, _ := decodeBody(t, forgot)["resetToken"].(string)
	if token == "" {
		t.Fatal("expected a reset token for a known email")
	}

	reset := f.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token":           token,
		"password":        "new-password-1",
		"confirmPassword": "new-password-1",
	}, nil)
	if reset.Code != http.StatusOK {
		t.Fatalf("reset: status = %d, body = %s", reset.Code, reset.Body.String())
	}

	if rec := f.login(t, "alice@example.com", "old-password-1", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("old password still works: status = %d", rec.Code)
	}
	if rec := f.login(t, "alice@example.com", "new-password-1", nil); rec.Code != http.StatusOK {
		t.Fatalf("new password rejected: status = %d", rec.Code)
	}

	// The token was consumed; replaying it must fail like an unknown token.
	replay := f.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token":           token,
		"password":        "another-pass-1",
		"confirmPassword": "another-pass-1",
	}, nil)
	if replay.Code != http.StatusNotFound {
		t.Fatalf("replayed token: status = %d, want 404", replay.Code)
	}
}

func TestResetPasswordValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]map[string]string{
		"missing token": {"password": "new-password-1", "confirmPassword": "new-password-1"},
		"mismatch":      {"token": "x", "password": "new-password-1", "confirmPassword": "other-pass-99"},
		"too short":     {"token": "x", "password": "short", "confirmPassword": "short"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/auth/reset-password", body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "old-password-1")

	u, err := f.users.GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	token, err := f.resets.Issue(context.Background(), u.ID, -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token":           token,
		"password":        "new-password-1",
		"confirmPassword": "new-password-1",
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expired token: status = %d, want 404", rec.Code)
	}

	// The password must be untouched by the failed reset.
	if rec := f.login(t, "alice@example.com", "old-password-1", nil); rec.Code != http.StatusOK {
		t.Fatalf("old password stopped working: status = %d", rec.Code)
	}
}

func TestResetPasswordUnknownToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
		"token":           "never-issued",
		"password":        "new-password-1",
		"confirmPassword": "new-password-1",
	}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestResetTokenSingleUseUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com", "old-password-1")

	forgot := f.do(t, http.MethodPost, "/api/auth/forgot-password", map[string]string{
		"email": "alice@example.com",
	}, nil)
	token, _ := decodeBody(t, forgot)["resetToken"].(string)

	const attempts = 8
	codes := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := f.do(t, http.MethodPost, "/api/auth/reset-password", map[string]string{
				"token":           token,
				"password":        "new-password-1",
				"confirmPassword": "new-password-1",
			}, nil)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	ok, notFound := 0, 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusNotFound:
			notFound++
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if ok != 1 || notFound != attempts-1 {
		t.Fatalf("consumption counts: 200=%d 404=%d, want exactly one success", ok, notFound)
	}
}
