package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/stackmesh/user-service/models"
	"github.com/stackmesh/user-service/repositories"
	"github.com/stackmesh/user-service/services"
	"github.com/stackmesh/user-service/userctx"
)

// UserController handles user resource requests
type UserController struct {
	users services.UserService
}

// NewUserController creates a new user controller
func NewUserController(users services.UserService) *UserController {
	return &UserController{
		users: users,
	}
}

// userListResponse is the JSON body for the user listing
type userListResponse struct {
	Users []models.User `json:"users"`
	Total int           `json:"total"`
}

// signInListResponse is the JSON body for a user's recent sign-ins
type signInListResponse struct {
	Events []models.SignInEvent `json:"events"`
}

// Me handles GET /users/me
func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := userctx.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing Authorization: Bearer token")
		return
	}

	user, err := c.users.GetBySubject(r.Context(), principal.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No account exists for this token")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("subject", principal.Subject).Msg("failed to load user")
		writeError(w, http.StatusInternalServerError, "Failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /users/me
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := userctx.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing Authorization: Bearer token")
		return
	}

	var form models.UserProfileForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := form.Validate(); len(errs) > 0 {
		writeError(w, http.StatusBadRequest, strings.Join(errs, ", "))
		return
	}

	user, err := c.users.UpdateProfile(r.Context(), principal.Subject, &form)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No account exists for this token")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("subject", principal.Subject).Msg("failed to update profile")
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// MyLogins handles GET /users/me/logins
func (c *UserController) MyLogins(w http.ResponseWriter, r *http.Request) {
	principal, ok := userctx.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing Authorization: Bearer token")
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit parameter")
		return
	}

	events, err := c.users.RecentSignIns(r.Context(), principal.Subject, limit)
	if errors.Is(err, repositories.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No account exists for this token")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("subject", principal.Subject).Msg("failed to load sign-in events")
		writeError(w, http.StatusInternalServerError, "Failed to load sign-in events")
		return
	}

	writeJSON(w, http.StatusOK, signInListResponse{Events: events})
}

// List handles GET /users
func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid offset parameter")
		return
	}

	users, total, err := c.users.ListUsers(r.Context(), limit, offset)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to list users")
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, userListResponse{Users: users, Total: total})
}

// queryInt parses an optional integer query parameter, returning fallback
// when the parameter is absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
