package jwt

import "errors"

var (
	// ErrEncoding is returned when the token or an expected claim value is not valid UTF-8.
	ErrEncoding = errors.New("input is not valid utf-8")
	// ErrMalformed is returned when the token structure, header or payload cannot be decoded,
	// including payloads that omit a required claim.
	ErrMalformed = errors.New("malformed token")
	// ErrBadSignature is returned when the HS256 signature does not match the secret or the
	// token names a different algorithm.
	ErrBadSignature = errors.New("bad token signature")
	// ErrExpired is returned when the verification time is not strictly before exp.
	ErrExpired = errors.New("token expired")
	// ErrClaimMismatch is returned when a supplied issuer or audience constraint is not met.
	ErrClaimMismatch = errors.New("token claim mismatch")
)
