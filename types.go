package pgjwt

import (
	"io"
	"unsafe"

	internalaudit "github.com/MrEthical07/pgjwt/internal/audit"
)

// StateHandle is the opaque reference the host stores in its private-data slot between
// startup and shutdown. The zero handle never refers to a live state.
type StateHandle uintptr

// Request carries the inputs of one validate callback.
//
// Issuer and Audience are constraints supplied by the host's per-connection policy. An empty
// value is not checked; hosts whose callback does not pass them leave both empty.
type Request struct {
	Token    string
	Role     string
	Issuer   string
	Audience string
}

// Result is the outcome of one validate callback.
//
// Identity is non-nil exactly when Authorized is true. It points at a copy of the requested
// role made by the host's [Allocator], and the host owns and frees it.
type Result struct {
	Authorized bool
	Identity   unsafe.Pointer
}

// Allocator copies strings into memory owned by the host.
//
// Anything the host will later free must come from here and never from Go memory.
type Allocator interface {
	Strdup(s string) (unsafe.Pointer, error)
}

// AuditEvent is an alias of the internal audit event model.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events synchronously on the validation path.
type AuditSink = internalaudit.Sink

// NoOpSink discards audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events and drops them when full.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink describes the newchannelsink operation and its observable behavior.
//
// NewChannelSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
//
// NewJSONWriterSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
