package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"gitea.com/go-chi/session"
	"github.com/rs/zerolog/hlog"

	"github.com/stackmesh/user-service/authenticator"
	"github.com/stackmesh/user-service/middleware"
	"github.com/stackmesh/user-service/services"
	"github.com/stackmesh/user-service/token"
)

// sessionStateKey is the session key holding the pending login state.
const sessionStateKey = "state"

// AuthController handles the OAuth2 login flow: it redirects the browser to
// the identity provider and turns the provider's callback into a service
// token.
type AuthController struct {
	users services.UserService
	codec *token.Codec
}

// NewAuthController creates a new auth controller
func NewAuthController(users services.UserService, codec *token.Codec) *AuthController {
	return &AuthController{
		users: users,
		codec: codec,
	}
}

// tokenResponse is the JSON body returned by a successful callback
type tokenResponse struct {
	AccessToken      string       `json:"access_token"`
	TokenType        string       `json:"token_type"`
	ExpiresInMinutes int          `json:"expires_in_minutes"`
	ProviderUser     providerUser `json:"provider_user"`
}

// providerUser is the identity echoed back to the caller alongside the token
type providerUser struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

// Login handles GET /auth/login: it stores a fresh anti-CSRF state in the
// caller's session and redirects to the provider's authorization endpoint.
func (ac *AuthController) Login(provider authenticator.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := generateRandomState()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to generate login state")
			return
		}

		authURL, err := provider.AuthURL(r.Context(), state)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("provider", provider.Name()).Msg("provider discovery failed")
			writeError(w, http.StatusBadGateway, "Identity provider is unavailable")
			return
		}

		// Save the state in the session to validate in callback
		sess := session.GetSession(r)
		sess.Set(sessionStateKey, state)

		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	}
}

// Callback handles GET /auth/callback: it checks the returned state against
// the session, exchanges the code for the user's identity, records the login
// and responds with a freshly issued service token.
func (ac *AuthController) Callback(provider authenticator.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Take the pending state out of the session before anything else:
		// a state is valid for exactly one callback, whatever its outcome.
		sess := session.GetSession(r)
		pending := sess.Get(sessionStateKey)
		sess.Delete(sessionStateKey)

		state, ok := pending.(string)
		if !ok || state == "" {
			writeError(w, http.StatusBadRequest, "No login attempt pending for this session")
			return
		}
		if r.URL.Query().Get("state") != state {
			writeError(w, http.StatusBadRequest, "Invalid state parameter")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, "Missing code parameter")
			return
		}

		identity, err := provider.Exchange(r.Context(), code)
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("provider", provider.Name()).Msg("identity exchange failed")
			writeExchangeError(w, err)
			return
		}

		user, err := ac.users.RecordLogin(r.Context(), identity, provider.Name(), middleware.ClientIP(r), r.UserAgent())
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("subject", identity.Subject).Msg("failed to record login")
			writeError(w, http.StatusInternalServerError, "Failed to record login")
			return
		}

		accessToken, err := ac.codec.Issue(map[string]any{
			"sub":      identity.Subject,
			"email":    identity.Email,
			"provider": provider.Name(),
		})
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("failed to issue service token")
			writeError(w, http.StatusInternalServerError, "Failed to issue access token")
			return
		}

		hlog.FromRequest(r).Info().
			Str("subject", identity.Subject).
			Str("user_id", user.ID).
			Str("provider", provider.Name()).
			Msg("user signed in")

		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken:      accessToken,
			TokenType:        "bearer",
			ExpiresInMinutes: int(ac.codec.TTL().Minutes()),
			ProviderUser: providerUser{
				Sub:   identity.Subject,
				Email: identity.Email,
			},
		})
	}
}

// writeExchangeError maps identity exchange failures to a response that lets
// the caller restart the flow without echoing provider internals.
func writeExchangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authenticator.ErrDiscoveryUnavailable):
		writeError(w, http.StatusBadGateway, "Identity provider is unavailable")
	case errors.Is(err, authenticator.ErrClaimsUnavailable):
		writeError(w, http.StatusBadGateway, "Failed to retrieve user information from the identity provider")
	default:
		writeError(w, http.StatusBadGateway, "Failed to exchange authorization code")
	}
}

// generateRandomState generates a random state value for CSRF protection
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
