package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/user-service/authenticator"
	"github.com/stackmesh/user-service/models"
	"github.com/stackmesh/user-service/repositories"
	"github.com/stackmesh/user-service/token"
)

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.New(token.Config{
		Secret:    "test-secret",
		Algorithm: "HS256",
		TTL:       60 * time.Minute,
		Issuer:    "user-service",
	})
	require.NoError(t, err)
	return codec
}

// newAuthRouter mounts the auth controller behind the session middleware, the
// way main wires it.
func newAuthRouter(t *testing.T, ac *AuthController, provider authenticator.Provider) http.Handler {
	t.Helper()

	sessioner, err := session.Sessioner(session.Options{
		Provider:    "memory",
		CookieName:  "test_session",
		Gclifetime:  600,
		Maxlifetime: 600,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Use(sessioner)
		r.Get("/login", ac.Login(provider))
		r.Get("/callback", ac.Callback(provider))
	})
	return r
}

// login performs GET /auth/login and returns the state parameter from the
// redirect plus the session cookies a browser would replay on the callback.
func login(t *testing.T, router http.Handler) (string, []*http.Cookie) {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	return state, rec.Result().Cookies()
}

// callback performs GET /auth/callback with the given query string and cookies.
func callback(t *testing.T, router http.Handler, query string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/auth/callback"+query, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// fakeProvider is an in-memory authenticator.Provider. It accepts the code
// "good-code" and records every exchange attempt.
type fakeProvider struct {
	identity    *authenticator.Identity
	authURLErr  error
	exchangeErr error
	exchanged   []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		identity: &authenticator.Identity{
			Subject: "google-user-123",
			Email:   "jane@example.com",
			RawClaims: map[string]any{
				"sub":   "google-user-123",
				"email": "jane@example.com",
				"name":  "Jane Doe",
			},
		},
	}
}

func (f *fakeProvider) Name() string {
	return "google"
}

func (f *fakeProvider) AuthURL(_ context.Context, state string) (string, error) {
	if f.authURLErr != nil {
		return "", f.authURLErr
	}
	return "https://accounts.example.com/authorize?state=" + url.QueryEscape(state), nil
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (*authenticator.Identity, error) {
	f.exchanged = append(f.exchanged, code)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if code != "good-code" {
		return nil, fmt.Errorf("%w: invalid_grant", authenticator.ErrCodeExchangeFailed)
	}
	return f.identity, nil
}

// recordedLogin captures one RecordLogin call made against the fake service.
type recordedLogin struct {
	identity  *authenticator.Identity
	provider  string
	ipAddress string
	userAgent string
}

// fakeUserService is an in-memory services.UserService backed by a single
// user row.
type fakeUserService struct {
	user   *models.User
	events []models.SignInEvent

	recordErr error

	logins     []recordedLogin
	lastLimit  int
	lastOffset int
}

func (f *fakeUserService) RecordLogin(_ context.Context, identity *authenticator.Identity, provider, ipAddress, userAgent string) (*models.User, error) {
	f.logins = append(f.logins, recordedLogin{identity, provider, ipAddress, userAgent})
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	if f.user == nil {
		f.user = &models.User{
			ID:          "11111111-2222-3333-4444-555555555555",
			Subject:     identity.Subject,
			Email:       identity.Email,
			Provider:    provider,
			DisplayName: "Jane Doe",
		}
	}
	return f.user, nil
}

func (f *fakeUserService) GetBySubject(_ context.Context, subject string) (*models.User, error) {
	if f.user == nil || f.user.Subject != subject {
		return nil, repositories.ErrNotFound
	}
	clone := *f.user
	return &clone, nil
}

func (f *fakeUserService) UpdateProfile(_ context.Context, subject string, form *models.UserProfileForm) (*models.User, error) {
	if f.user == nil || f.user.Subject != subject {
		return nil, repositories.ErrNotFound
	}
	f.user.DisplayName = strings.TrimSpace(form.DisplayName)
	clone := *f.user
	return &clone, nil
}

func (f *fakeUserService) RecentSignIns(_ context.Context, subject string, limit int) ([]models.SignInEvent, error) {
	f.lastLimit = limit
	if f.user == nil || f.user.Subject != subject {
		return nil, repositories.ErrNotFound
	}
	if f.events == nil {
		return []models.SignInEvent{}, nil
	}
	return f.events, nil
}

func (f *fakeUserService) ListUsers(_ context.Context, limit, offset int) ([]models.User, int, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	if f.user == nil {
		return []models.User{}, 0, nil
	}
	return []models.User{*f.user}, 1, nil
}
