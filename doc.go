// Package pgjwt implements a PostgreSQL OAuth validator module that accepts HS256 bearer
// tokens signed with a shared secret.
//
// The database server loads the module into each backend process, calls startup once, then
// calls validate for every OAuth authentication attempt, and finally calls shutdown. [Validator]
// implements those three callbacks in Go; cmd/pg_jwt_validator binds them to the C ABI.
//
// # Architecture boundaries
//
// pgjwt is the callback adapter. It owns the module-state lifecycle (internal/handle), reads
// the process secret (package secret), and delegates token checks to package jwt. Everything
// that touches C memory or the server's logging lives in cmd/pg_jwt_validator.
//
// # What this package must NOT do
//
//   - Report why a token was rejected to the caller; reasons go to logs and audit only.
//   - Hand Go memory to the host. Identities are copied with the host's [Allocator].
//   - Perform network I/O or cache decoded tokens between calls.
//   - Return the token's role claim as the identity. The identity is the requested role; the
//     server maps it through its own identity map.
package pgjwt
