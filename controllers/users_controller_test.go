package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/user-service/models"
	"github.com/stackmesh/user-service/userctx"
)

func storedUser() *models.User {
	return &models.User{
		ID:          "11111111-2222-3333-4444-555555555555",
		Subject:     "google-user-123",
		Email:       "jane@example.com",
		Provider:    "google",
		DisplayName: "Jane Doe",
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		LastLoginAt: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
	}
}

func principalRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	principal := userctx.Principal{
		Subject:  "google-user-123",
		Email:    "jane@example.com",
		Provider: "google",
	}
	return req.WithContext(userctx.WithPrincipal(req.Context(), principal))
}

func TestMeReturnsStoredUser(t *testing.T) {
	uc := NewUserController(&fakeUserService{user: storedUser()})

	rec := httptest.NewRecorder()
	uc.Me(rec, principalRequest(http.MethodGet, "/users/me", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "google-user-123", user.Subject)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, "Jane Doe", user.DisplayName)
}

func TestMeWithoutPrincipal(t *testing.T) {
	uc := NewUserController(&fakeUserService{user: storedUser()})

	rec := httptest.NewRecorder()
	uc.Me(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeUnknownSubject(t *testing.T) {
	uc := NewUserController(&fakeUserService{})

	rec := httptest.NewRecorder()
	uc.Me(rec, principalRequest(http.MethodGet, "/users/me", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail": "No account exists for this token"}`, rec.Body.String())
}

func TestUpdateMe(t *testing.T) {
	svc := &fakeUserService{user: storedUser()}
	uc := NewUserController(svc)

	body := strings.NewReader(`{"display_name": "  Jane D.  "}`)
	rec := httptest.NewRecorder()
	uc.UpdateMe(rec, principalRequest(http.MethodPatch, "/users/me", body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "Jane D.", user.DisplayName)
	assert.Equal(t, "Jane D.", svc.user.DisplayName)
}

func TestUpdateMeInvalidJSON(t *testing.T) {
	uc := NewUserController(&fakeUserService{user: storedUser()})

	rec := httptest.NewRecorder()
	uc.UpdateMe(rec, principalRequest(http.MethodPatch, "/users/me", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail": "Invalid JSON body"}`, rec.Body.String())
}

func TestUpdateMeValidationFailure(t *testing.T) {
	svc := &fakeUserService{user: storedUser()}
	uc := NewUserController(svc)

	rec := httptest.NewRecorder()
	uc.UpdateMe(rec, principalRequest(http.MethodPatch, "/users/me", strings.NewReader(`{"display_name": "   "}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Display name is required")
	assert.Equal(t, "Jane Doe", svc.user.DisplayName, "a rejected form must not change the stored user")
}

func TestUpdateMeUnknownSubject(t *testing.T) {
	uc := NewUserController(&fakeUserService{})

	rec := httptest.NewRecorder()
	uc.UpdateMe(rec, principalRequest(http.MethodPatch, "/users/me", strings.NewReader(`{"display_name": "Jane"}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMyLogins(t *testing.T) {
	svc := &fakeUserService{
		user: storedUser(),
		events: []models.SignInEvent{
			{ID: 2, UserID: "11111111-2222-3333-4444-555555555555", Provider: "google", IPAddress: "203.0.113.7"},
			{ID: 1, UserID: "11111111-2222-3333-4444-555555555555", Provider: "google", IPAddress: "203.0.113.7"},
		},
	}
	uc := NewUserController(svc)

	rec := httptest.NewRecorder()
	uc.MyLogins(rec, principalRequest(http.MethodGet, "/users/me/logins?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.lastLimit)

	var resp struct {
		Events []models.SignInEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 2)
	assert.Equal(t, int64(2), resp.Events[0].ID)
}

func TestMyLoginsInvalidLimit(t *testing.T) {
	uc := NewUserController(&fakeUserService{user: storedUser()})

	rec := httptest.NewRecorder()
	uc.MyLogins(rec, principalRequest(http.MethodGet, "/users/me/logins?limit=soon", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail": "Invalid limit parameter"}`, rec.Body.String())
}

func TestMyLoginsEmptyHistory(t *testing.T) {
	uc := NewUserController(&fakeUserService{user: storedUser()})

	rec := httptest.NewRecorder()
	uc.MyLogins(rec, principalRequest(http.MethodGet, "/users/me/logins", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"events": []}`, rec.Body.String())
}

func TestListUsers(t *testing.T) {
	svc := &fakeUserService{user: storedUser()}
	uc := NewUserController(svc)

	rec := httptest.NewRecorder()
	uc.List(rec, principalRequest(http.MethodGet, "/users?limit=10&offset=0", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, svc.lastLimit)
	assert.Equal(t, 0, svc.lastOffset)

	var resp struct {
		Users []models.User `json:"users"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "google-user-123", resp.Users[0].Subject)
}

func TestListUsersInvalidPaging(t *testing.T) {
	uc := NewUserController(&fakeUserService{})

	rec := httptest.NewRecorder()
	uc.List(rec, principalRequest(http.MethodGet, "/users?limit=many", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	uc.List(rec, principalRequest(http.MethodGet, "/users?offset=far", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
