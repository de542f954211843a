// Package authenticator talks to the upstream OpenID Connect identity
// provider: it builds the authorization redirect and exchanges callback codes
// for a verified user identity.
package authenticator

import (
	"context"
	"errors"
)

var (
	// ErrDiscoveryUnavailable means the provider's discovery document could
	// not be fetched.
	ErrDiscoveryUnavailable = errors.New("provider discovery unavailable")
	// ErrCodeExchangeFailed means the authorization code could not be
	// exchanged for tokens.
	ErrCodeExchangeFailed = errors.New("authorization code exchange failed")
	// ErrClaimsUnavailable means the provider returned no usable identity.
	ErrClaimsUnavailable = errors.New("identity claims unavailable")
)

// Identity is the provider-asserted identity of a signed-in end user. Email
// may be empty: not every provider account carries one, and login still
// succeeds without it.
type Identity struct {
	Subject   string
	Email     string
	RawClaims map[string]any
}

// Provider interface abstracts the identity provider operations
type Provider interface {
	// Name identifies the provider in issued tokens and stored users.
	Name() string
	// AuthURL returns the provider's authorization endpoint URL carrying
	// the given anti-CSRF state.
	AuthURL(ctx context.Context, state string) (string, error)
	// Exchange trades the callback's authorization code for the user's
	// identity.
	Exchange(ctx context.Context, code string) (*Identity, error)
}
