package pgjwt

import (
	"errors"

	"github.com/MrEthical07/pgjwt/jwt"
)

var (
	// ErrUnconfigured is an exported constant or variable used by the validator module.
	ErrUnconfigured = errors.New("validator not configured: secret not set at startup")
	// ErrUnknownState is an exported constant or variable used by the validator module.
	ErrUnknownState = errors.New("unknown or released module state")
	// ErrHostAllocation is an exported constant or variable used by the validator module.
	ErrHostAllocation = errors.New("host allocation failed")
	// ErrInvalidConfig is an exported constant or variable used by the validator module.
	ErrInvalidConfig = errors.New("invalid validator configuration")
)

// FailureKind classifies why a validation was denied.
//
// Kinds are reported to operators only; the connecting client never learns which one applied.
type FailureKind int

const (
	// FailureNone means the token was accepted.
	FailureNone FailureKind = iota
	// FailureEncoding means the token, role, issuer or audience was not valid UTF-8.
	FailureEncoding
	// FailureUnconfigured means no secret was available when the state was created.
	FailureUnconfigured
	// FailureMalformed means the token could not be decoded or lacked a required claim.
	FailureMalformed
	// FailureBadSignature means the HS256 signature did not verify.
	FailureBadSignature
	// FailureExpired means exp was not in the future.
	FailureExpired
	// FailureClaimMismatch means a supplied issuer or audience constraint failed.
	FailureClaimMismatch
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureEncoding:
		return "encoding"
	case FailureUnconfigured:
		return "unconfigured"
	case FailureMalformed:
		return "malformed"
	case FailureBadSignature:
		return "bad_signature"
	case FailureExpired:
		return "expired"
	case FailureClaimMismatch:
		return "claim_mismatch"
	default:
		return "unknown"
	}
}

// ClassifyFailure maps a verification or lifecycle error to its FailureKind.
//
// Unrecognized non-nil errors classify as FailureMalformed so they still deny.
func ClassifyFailure(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, jwt.ErrEncoding):
		return FailureEncoding
	case errors.Is(err, ErrUnconfigured), errors.Is(err, ErrUnknownState):
		return FailureUnconfigured
	case errors.Is(err, jwt.ErrBadSignature):
		return FailureBadSignature
	case errors.Is(err, jwt.ErrExpired):
		return FailureExpired
	case errors.Is(err, jwt.ErrClaimMismatch):
		return FailureClaimMismatch
	default:
		return FailureMalformed
	}
}
