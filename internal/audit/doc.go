// Package audit delivers lifecycle and validation events to a caller-chosen sink.
//
// # Components
//
//   - [Sink] — interface for event consumers (channel, JSON writer, no-op).
//   - [Event] — structured record with timestamp, type, state id, role, reason.
//
// # What this package must NOT do
//
//   - Decide which events to emit; the validator does that.
//   - Block the caller. Sinks run inline on the authentication path, so the channel sink
//     drops when full instead of waiting.
//   - Carry token contents or secret material.
package audit
