package jwt

import (
	"errors"
	"fmt"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// Signer mints HS256 tokens. It exists for operator tooling and tests; the validator module
// never issues tokens.
type Signer struct {
	key []byte
}

// NewSigner copies key and returns a signer for it.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		return nil, errors.New("hs256 requires a non-empty key")
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Signer{key: k}, nil
}

// Sign serializes claims and signs them. Claims without exp or aud are rejected because the
// verifier would never accept them.
func (s *Signer) Sign(claims Claims) (string, error) {
	if err := claims.validateForSigning(); err != nil {
		return "", err
	}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, &claims)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
