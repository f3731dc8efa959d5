package pgjwt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/pgjwt/jwt"
	"github.com/MrEthical07/pgjwt/secret"
)

// Builder defines a public type used by pgjwt APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config    Config
	logger    *zap.Logger
	store     *secret.Store
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the default configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithLogger sets the diagnostics logger. Without one, diagnostics are discarded.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithSecretStore sets the store read at startup. Defaults to [secret.Process].
func (b *Builder) WithSecretStore(store *secret.Store) *Builder {
	b.store = store
	return b
}

// WithAuditSink sets the audit sink, taking precedence over Config.Audit.Path.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source for expiry checks and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build can be called once per Builder.
func (b *Builder) Build() (*Validator, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := b.store
	if store == nil {
		store = secret.Process
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	v := &Validator{
		config:   cfg,
		logger:   logger,
		store:    store,
		verifier: jwt.NewVerifier(jwt.WithClock(now)),
		metrics:  NewMetrics(cfg.Metrics),
		now:      now,
	}

	switch {
	case b.auditSink != nil:
		v.audit = b.auditSink
	case cfg.Audit.Enabled:
		f, err := os.OpenFile(cfg.Audit.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		var sink AuditSink = NewJSONWriterSink(f)
		if cfg.Audit.BufferSize > 0 {
			d := newAuditDispatcher(cfg.Audit, sink)
			sink = d
			// Drain the dispatcher before the file goes away.
			v.closers = append(v.closers, d)
		}
		v.audit = sink
		v.closers = append(v.closers, f)
	default:
		v.audit = NoOpSink{}
	}

	for _, w := range cfg.Lint() {
		logger.Debug("configuration lint", zap.String("code", w.Code), zap.String("detail", w.Message))
	}

	b.built = true
	return v, nil
}

// Close releases resources opened by Build, such as the audit log file.
func (v *Validator) Close() error {
	var errs []error
	for _, c := range v.closers {
		errs = append(errs, c.Close())
	}
	v.closers = nil
	return errors.Join(errs...)
}

var _ io.Closer = (*Validator)(nil)
