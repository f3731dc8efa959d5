package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func validMapClaims() gjwt.MapClaims {
	return gjwt.MapClaims{
		"sub":   "u1",
		"email": "u1@x.com",
		"role":  "analyst",
		"iss":   "issuer-a",
		"aud":   "scope-a",
		"exp":   testNow.Add(time.Hour).Unix(),
	}
}

func signMap(t *testing.T, method gjwt.SigningMethod, claims gjwt.MapClaims, key interface{}) string {
	t.Helper()
	tok := gjwt.NewWithClaims(method, claims)
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	token := signMap(t, gjwt.SigningMethodHS256, validMapClaims(), []byte("s3cr3t"))

	claims, err := v.Verify(token, []byte("s3cr3t"), Expectations{})
	if err != nil {
		t.Fatalf("expected valid token: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "u1@x.com" || claims.Role != "analyst" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Issuer != "issuer-a" || len(claims.Audience) != 1 || claims.Audience[0] != "scope-a" {
		t.Fatalf("unexpected registered claims %+v", claims)
	}
}

func TestVerifySignerRoundTrip(t *testing.T) {
	s, err := NewSigner([]byte("s3cr3t"))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	token, err := s.Sign(Claims{
		Subject:   "u1",
		Email:     "u1@x.com",
		Role:      "analyst",
		Issuer:    "issuer-a",
		Audience:  gjwt.ClaimStrings{"scope-a"},
		ExpiresAt: gjwt.NewNumericDate(testNow.Add(time.Hour)),
		ID:        "jti-1",
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := NewVerifier(WithClock(fixedClock)).Verify(token, []byte("s3cr3t"), Expectations{Issuer: "issuer-a", Audience: "scope-a"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.ID != "jti-1" {
		t.Fatalf("expected jti to round trip, got %q", claims.ID)
	}
}

func TestSignerRejectsIncompleteClaims(t *testing.T) {
	s, _ := NewSigner([]byte("k"))
	if _, err := s.Sign(Claims{Subject: "u1", Audience: gjwt.ClaimStrings{"a"}}); err == nil {
		t.Fatal("expected missing exp to be rejected")
	}
	if _, err := s.Sign(Claims{Subject: "u1", ExpiresAt: gjwt.NewNumericDate(testNow)}); err == nil {
		t.Fatal("expected missing aud to be rejected")
	}
	if _, err := NewSigner(nil); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	token := signMap(t, gjwt.SigningMethodHS256, validMapClaims(), []byte("other"))
	if _, err := v.Verify(token, []byte("s3cr3t"), Expectations{}); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	hs384 := signMap(t, gjwt.SigningMethodHS384, validMapClaims(), []byte("s3cr3t"))
	if _, err := v.Verify(hs384, []byte("s3cr3t"), Expectations{}); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected HS384 to be rejected as bad signature, got %v", err)
	}

	none := signMap(t, gjwt.SigningMethodNone, validMapClaims(), gjwt.UnsafeAllowNoneSignatureType)
	if _, err := v.Verify(none, []byte("s3cr3t"), Expectations{}); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected alg none to be rejected, got %v", err)
	}
}

func TestVerifyExpiry(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	key := []byte("s3cr3t")

	past := validMapClaims()
	past["exp"] = testNow.Add(-time.Second).Unix()
	if _, err := v.Verify(signMap(t, gjwt.SigningMethodHS256, past, key), key, Expectations{}); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	// exp equal to now is already expired.
	edge := validMapClaims()
	edge["exp"] = testNow.Unix()
	if _, err := v.Verify(signMap(t, gjwt.SigningMethodHS256, edge, key), key, Expectations{}); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected exp == now to be expired, got %v", err)
	}

	future := validMapClaims()
	future["exp"] = testNow.Add(time.Second).Unix()
	if _, err := v.Verify(signMap(t, gjwt.SigningMethodHS256, future, key), key, Expectations{}); err != nil {
		t.Fatalf("expected exp in the future to pass: %v", err)
	}
}

func TestVerifyIgnoresNotBefore(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	key := []byte("s3cr3t")
	claims := validMapClaims()
	claims["nbf"] = testNow.Add(30 * time.Minute).Unix()
	if _, err := v.Verify(signMap(t, gjwt.SigningMethodHS256, claims, key), key, Expectations{}); err != nil {
		t.Fatalf("nbf must not be enforced: %v", err)
	}
}

func TestVerifyMissingRequiredClaims(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	key := []byte("s3cr3t")
	for _, name := range requiredClaims {
		claims := validMapClaims()
		delete(claims, name)
		token := signMap(t, gjwt.SigningMethodHS256, claims, key)
		if _, err := v.Verify(token, key, Expectations{}); !errors.Is(err, ErrMalformed) {
			t.Fatalf("missing %s: expected ErrMalformed, got %v", name, err)
		}

		claims = validMapClaims()
		claims[name] = nil
		token = signMap(t, gjwt.SigningMethodHS256, claims, key)
		if _, err := v.Verify(token, key, Expectations{}); !errors.Is(err, ErrMalformed) {
			t.Fatalf("null %s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestVerifyWrongClaimType(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	key := []byte("s3cr3t")
	claims := validMapClaims()
	claims["sub"] = 42
	if _, err := v.Verify(signMap(t, gjwt.SigningMethodHS256, claims, key), key, Expectations{}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestVerifyIssuerAudienceOnlyWhenSupplied(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	key := []byte("s3cr3t")
	token := signMap(t, gjwt.SigningMethodHS256, validMapClaims(), key)

	if _, err := v.Verify(token, key, Expectations{Issuer: "issuer-a", Audience: "scope-a"}); err != nil {
		t.Fatalf("expected matching constraints to pass: %v", err)
	}
	if _, err := v.Verify(token, key, Expectations{Issuer: "issuer-b"}); !errors.Is(err, ErrClaimMismatch) {
		t.Fatalf("expected issuer mismatch, got %v", err)
	}
	if _, err := v.Verify(token, key, Expectations{Audience: "scope-b"}); !errors.Is(err, ErrClaimMismatch) {
		t.Fatalf("expected audience mismatch, got %v", err)
	}

	other := validMapClaims()
	other["iss"] = "somebody-else"
	other["aud"] = []string{"x", "y"}
	if _, err := v.Verify(signMap(t, gjwt.SigningMethodHS256, other, key), key, Expectations{}); err != nil {
		t.Fatalf("unchecked issuer/audience must not fail: %v", err)
	}
	if _, err := v.Verify(signMap(t, gjwt.SigningMethodHS256, other, key), key, Expectations{Audience: "y"}); err != nil {
		t.Fatalf("audience containment should pass: %v", err)
	}
}

func TestVerifyMalformedInputs(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	inputs := []string{
		"",
		"not-a-jwt",
		"a.b",
		"a.b.c.d",
		"eyJhbGciOiJIUzI1NiJ9.!!!.sig",
	}
	for _, in := range inputs {
		if _, err := v.Verify(in, []byte("s3cr3t"), Expectations{}); !errors.Is(err, ErrMalformed) {
			t.Fatalf("input %q: expected ErrMalformed, got %v", in, err)
		}
	}
}

func TestVerifyEncoding(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	key := []byte("s3cr3t")
	if _, err := v.Verify("abc\xff.def.ghi", key, Expectations{}); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	token := signMap(t, gjwt.SigningMethodHS256, validMapClaims(), key)
	if _, err := v.Verify(token, key, Expectations{Issuer: "\xc3\x28"}); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding for issuer, got %v", err)
	}
	if _, err := v.Verify(token, key, Expectations{Audience: "\xc3\x28"}); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding for audience, got %v", err)
	}
}

func TestVerifyEmptyKey(t *testing.T) {
	v := NewVerifier(WithClock(fixedClock))
	token := signMap(t, gjwt.SigningMethodHS256, validMapClaims(), []byte("s3cr3t"))
	if _, err := v.Verify(token, nil, Expectations{}); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}
