// Package internal groups the helpers private to pgjwt.
//
// # Sub-packages
//
//   - audit: event model and Sink implementations
//   - handle: owner-checked table mapping opaque handles to module states
//   - host: process-wide glue called from the server's C callbacks
//   - logging: zap construction, including the core that writes through the server's log
//
// # What this package must NOT do
//
//   - Export types that appear in the public pgjwt API.
//   - Be imported by any package outside the pgjwt module.
package internal
