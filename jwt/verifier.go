package jwt

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// Expectations carries the optional issuer and audience constraints of one verification.
//
// An empty field is not checked. Which constraints are available depends on what the host
// passes to its validator callback, so they are parameters rather than verifier settings.
type Expectations struct {
	Issuer   string
	Audience string
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// Verifier decodes and verifies HS256 tokens.
//
// Verifier holds no per-call state and can be used concurrently.
type Verifier struct {
	now func() time.Time
}

// NewVerifier returns a verifier using the wall clock unless overridden.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify decodes token, checks its HS256 signature against key, enforces exp and the supplied
// expectations, and returns the claims.
//
// Errors wrap exactly one of ErrEncoding, ErrMalformed, ErrBadSignature, ErrExpired or
// ErrClaimMismatch together with the underlying cause. No claims are returned on error.
func (v *Verifier) Verify(token string, key []byte, want Expectations) (*Claims, error) {
	if !utf8.ValidString(token) {
		return nil, fmt.Errorf("%w: token", ErrEncoding)
	}
	if !utf8.ValidString(want.Issuer) {
		return nil, fmt.Errorf("%w: expected issuer", ErrEncoding)
	}
	if !utf8.ValidString(want.Audience) {
		return nil, fmt.Errorf("%w: expected audience", ErrEncoding)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty verification key", ErrBadSignature)
	}

	options := []gjwt.ParserOption{
		gjwt.WithValidMethods([]string{gjwt.SigningMethodHS256.Alg()}),
		gjwt.WithExpirationRequired(),
		gjwt.WithTimeFunc(v.now),
	}
	if want.Issuer != "" {
		options = append(options, gjwt.WithIssuer(want.Issuer))
	}
	if want.Audience != "" {
		options = append(options, gjwt.WithAudience(want.Audience))
	}

	parser := gjwt.NewParser(options...)
	claims := &Claims{}
	tok, err := parser.ParseWithClaims(token, claims, func(t *gjwt.Token) (interface{}, error) {
		if t.Method.Alg() != gjwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("%w: token not marked valid", ErrMalformed)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, gjwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, gjwt.ErrTokenSignatureInvalid), errors.Is(err, gjwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, gjwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, gjwt.ErrTokenInvalidIssuer), errors.Is(err, gjwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %w", ErrClaimMismatch, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
