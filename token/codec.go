// Package token issues and verifies the service's own access tokens. The
// provider identity obtained during login is re-signed into a symmetric JWT
// that downstream endpoints can check without calling the provider again.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrEncodingFailure means the claims could not be signed.
	ErrEncodingFailure = errors.New("token encoding failed")
	// ErrMalformed means the string is not a decodable token.
	ErrMalformed = errors.New("token is malformed")
	// ErrInvalidSignature means the signature check failed.
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrExpired means the token's expiry has passed.
	ErrExpired = errors.New("token is expired")
)

// Config holds the codec's signing parameters.
type Config struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
	Issuer    string
}

// Claims is the decoded payload of a service token.
type Claims map[string]any

// Subject returns the provider subject, or "" if absent.
func (c Claims) Subject() string {
	s, _ := c["sub"].(string)
	return s
}

// Email returns the email claim, or "" if absent.
func (c Claims) Email() string {
	s, _ := c["email"].(string)
	return s
}

// Provider returns the identity provider claim, or "" if absent.
func (c Claims) Provider() string {
	s, _ := c["provider"].(string)
	return s
}

// Codec signs and verifies service tokens. Immutable after construction and
// safe for concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// New validates the configuration and builds a Codec. Only the symmetric
// HS256/HS384/HS512 algorithms are accepted.
func New(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("signing secret is required")
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %s", cfg.TTL)
	}
	return &Codec{
		secret: []byte(cfg.Secret),
		method: method,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs the given claims into a token, stamping iat, exp and iss.
// Caller-provided values for those three claims are overwritten.
func (c *Codec) Issue(claims map[string]any) (string, error) {
	now := c.now().UTC()

	merged := jwt.MapClaims{}
	for k, v := range claims {
		merged[k] = v
	}
	merged["iat"] = now.Unix()
	merged["exp"] = now.Add(c.ttl).Unix()
	merged["iss"] = c.issuer

	signed, err := jwt.NewWithClaims(c.method, merged).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	return signed, nil
}

// Verify parses the token and checks its signature and expiry. Issuer and
// audience are deliberately not validated: any token signed with the
// service's key is accepted until it expires.
func (c *Codec) Verify(raw string) (Claims, error) {
	parsed, err := jwt.Parse(raw, c.keyFunc,
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}
	return Claims(claims), nil
}

func (c *Codec) keyFunc(*jwt.Token) (any, error) {
	return c.secret, nil
}
