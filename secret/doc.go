// Package secret holds the shared HS256 secret for the lifetime of a backend process.
//
// The secret is initialized once, before the first validation, and is read-only afterwards.
// Values never render through fmt or loggers; use [Secret.Bytes] to obtain key material.
package secret
