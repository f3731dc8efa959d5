package jwt

import (
	"bytes"
	"encoding/json"
	"fmt"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// requiredClaims lists the payload members every token must carry.
var requiredClaims = [...]string{"sub", "email", "role", "exp", "iss", "aud"}

// Claims is the decoded payload of a verified token.
//
// All of Subject, Email, Role, ExpiresAt, Issuer and Audience must be present in the token.
// IssuedAt and ID are optional and never enforced.
type Claims struct {
	Subject   string            `json:"sub"`
	Email     string            `json:"email"`
	Role      string            `json:"role"`
	ExpiresAt *gjwt.NumericDate `json:"exp"`
	Issuer    string            `json:"iss"`
	Audience  gjwt.ClaimStrings `json:"aud"`
	IssuedAt  *gjwt.NumericDate `json:"iat,omitempty"`
	ID        string            `json:"jti,omitempty"`
}

var _ gjwt.Claims = (*Claims)(nil)

// UnmarshalJSON rejects payloads that omit a required claim or set it to null.
func (c *Claims) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	for _, name := range requiredClaims {
		raw, ok := members[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("missing required claim %q", name)
		}
	}

	type plain Claims
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	if len(out.Audience) == 0 {
		return fmt.Errorf("missing required claim %q", "aud")
	}
	*c = Claims(out)
	return nil
}

func (c *Claims) validateForSigning() error {
	if c.ExpiresAt == nil {
		return fmt.Errorf("missing required claim %q", "exp")
	}
	if len(c.Audience) == 0 {
		return fmt.Errorf("missing required claim %q", "aud")
	}
	return nil
}

func (c *Claims) GetExpirationTime() (*gjwt.NumericDate, error) {
	return c.ExpiresAt, nil
}

func (c *Claims) GetIssuedAt() (*gjwt.NumericDate, error) {
	return c.IssuedAt, nil
}

// GetNotBefore always reports no nbf: not-before is deliberately not enforced, so a present
// nbf claim is ignored.
func (c *Claims) GetNotBefore() (*gjwt.NumericDate, error) {
	return nil, nil
}

func (c *Claims) GetIssuer() (string, error) {
	return c.Issuer, nil
}

func (c *Claims) GetSubject() (string, error) {
	return c.Subject, nil
}

func (c *Claims) GetAudience() (gjwt.ClaimStrings, error) {
	return c.Audience, nil
}
