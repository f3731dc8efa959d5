// Package jwt verifies HS256 bearer tokens against a shared secret and classifies failures
// into a small, stable set of sentinel errors suitable for operator diagnostics.
package jwt
