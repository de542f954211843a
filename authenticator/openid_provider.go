package authenticator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const defaultHTTPTimeout = 10 * time.Second

// Config holds OpenID Connect provider configuration
type Config struct {
	Name         string
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	HTTPTimeout  time.Duration
}

// OpenIDProvider implements the Provider interface for OpenID Connect.
//
// Discovery is lazy: the first call that needs provider metadata fetches the
// discovery document and caches it for the process lifetime. A failed fetch
// is retried on the next call, so the service starts fine while the provider
// is briefly unreachable.
type OpenIDProvider struct {
	cfg    Config
	client *http.Client

	mu       sync.Mutex
	provider *oidc.Provider
	oauth    *oauth2.Config
}

// NewOpenIDProvider creates a new OpenID Connect provider with the given
// configuration. No network calls happen here.
func NewOpenIDProvider(cfg Config) (Provider, error) {
	if cfg.Name == "" {
		return nil, errors.New("provider name is required")
	}
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &OpenIDProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the configured provider name.
func (p *OpenIDProvider) Name() string {
	return p.cfg.Name
}

// AuthURL returns the authorization URL carrying the given state.
func (p *OpenIDProvider) AuthURL(ctx context.Context, state string) (string, error) {
	_, oauthCfg, err := p.discover(ctx)
	if err != nil {
		return "", err
	}
	return oauthCfg.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for the user's identity. The identity
// is read from the verified ID token when the provider returns one, otherwise
// from the UserInfo endpoint.
func (p *OpenIDProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	provider, oauthCfg, err := p.discover(ctx)
	if err != nil {
		return nil, err
	}

	ctx = oidc.ClientContext(ctx, p.client)
	oauth2Token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodeExchangeFailed, err)
	}

	claims, err := p.identityClaims(ctx, provider, oauth2Token)
	if err != nil {
		return nil, err
	}

	identity := &Identity{RawClaims: claims}
	identity.Subject, _ = claims["sub"].(string)
	identity.Email, _ = claims["email"].(string)
	if identity.Subject == "" {
		return nil, fmt.Errorf("%w: provider response carries no subject", ErrClaimsUnavailable)
	}
	return identity, nil
}

// discover returns the cached provider metadata, fetching it on first use.
func (p *OpenIDProvider) discover(ctx context.Context) (*oidc.Provider, *oauth2.Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.provider != nil {
		return p.provider, p.oauth, nil
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, p.client), p.cfg.IssuerURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDiscoveryUnavailable, err)
	}

	p.provider = provider
	p.oauth = &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		RedirectURL:  p.cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       p.cfg.Scopes,
	}
	return p.provider, p.oauth, nil
}

// identityClaims extracts the user's claims from the token response.
func (p *OpenIDProvider) identityClaims(ctx context.Context, provider *oidc.Provider, oauth2Token *oauth2.Token) (map[string]any, error) {
	if rawIDToken, ok := oauth2Token.Extra("id_token").(string); ok && rawIDToken != "" {
		verifier := provider.Verifier(&oidc.Config{ClientID: p.cfg.ClientID})
		idToken, err := verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClaimsUnavailable, err)
		}

		var claims map[string]any
		if err := idToken.Claims(&claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClaimsUnavailable, err)
		}
		return claims, nil
	}

	// No ID token in the response: ask the UserInfo endpoint instead.
	info, err := provider.UserInfo(ctx, oauth2.StaticTokenSource(oauth2Token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsUnavailable, err)
	}

	var claims map[string]any
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsUnavailable, err)
	}
	return claims, nil
}
