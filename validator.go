package pgjwt

import (
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/pgjwt/internal/handle"
	"github.com/MrEthical07/pgjwt/jwt"
	"github.com/MrEthical07/pgjwt/secret"
)

// Validator implements the startup, shutdown and validate callbacks of the host's OAuth
// validator contract.
//
// A Validator is process-scoped. Module states it creates are owned by its handle table from
// Startup until Shutdown; the host only ever holds the opaque StateHandle.
type Validator struct {
	config   Config
	logger   *zap.Logger
	store    *secret.Store
	verifier *jwt.Verifier
	states   handle.Table[moduleState]
	metrics  *Metrics
	audit    AuditSink
	now      func() time.Time
	closers  []io.Closer
}

// moduleState is the per-backend configuration behind a StateHandle. It is written once in
// Startup and only read afterwards.
type moduleState struct {
	id         uuid.UUID
	secret     secret.Secret
	configured bool
}

// Startup describes the startup operation and its observable behavior.
//
// Startup reads the process secret and returns a handle to a new module state. It never fails:
// without a secret the state is marked unconfigured and every validation against it denies.
func (v *Validator) Startup() StateHandle {
	st := &moduleState{}
	if id, err := uuid.NewRandom(); err == nil {
		st.id = id
	}

	sec, ok := v.store.Get()
	if ok && !sec.IsZero() {
		st.secret = sec
		st.configured = true
		if sec.Len() < v.config.Secret.MinLength {
			v.logger.Warn("configured secret is shorter than recommended",
				zap.Stringer("state_id", st.id),
				zap.Int("length", sec.Len()),
				zap.Int("min_length", v.config.Secret.MinLength),
			)
		}
	} else {
		v.logger.Warn("pg_jwt_validator.secret is not set at startup; all validations will be denied",
			zap.Stringer("state_id", st.id),
		)
		v.metrics.Inc(MetricStartupUnconfigured)
	}

	h := v.states.Open(st)
	v.metrics.Inc(MetricStartup)
	v.emitAudit(auditEventModuleStartup, st, "", st.configured, "")
	v.logger.Debug("module state created",
		zap.Stringer("state_id", st.id),
		zap.Bool("configured", st.configured),
	)
	return StateHandle(h)
}

// Shutdown describes the shutdown operation and its observable behavior.
//
// Shutdown releases the state behind h. A zero, unknown or already released handle is ignored.
func (v *Validator) Shutdown(h StateHandle) {
	st, ok := v.states.Close(handle.Handle(h))
	if !ok {
		v.logger.Debug("shutdown ignored for unknown module state")
		return
	}
	v.metrics.Inc(MetricShutdown)
	v.emitAudit(auditEventModuleShutdown, st, "", true, "")
	v.logger.Info("module state released",
		zap.Stringer("state_id", st.id),
		zap.Uint64("authorized", v.metrics.Value(MetricValidateAuthorized)),
		zap.Uint64("denied", v.metrics.Value(MetricValidateDenied)),
	)
}

// Validate describes the validate operation and its observable behavior.
//
// Validate decides whether req.Token authorizes a connection as req.Role. Every denial is
// reported through Result.Authorized with a nil error; the returned error is non-nil only when
// the host allocator fails, and the Result is then denied as well. On success Identity is a
// host-owned copy of req.Role, not of the token's role claim.
//
// Validate does not modify the module state and gives identical results for identical inputs.
func (v *Validator) Validate(h StateHandle, req Request, alloc Allocator) (Result, error) {
	res := Result{}
	start := time.Now()
	defer func() {
		v.metrics.Observe(MetricValidateLatency, time.Since(start))
	}()

	st, ok := v.states.Get(handle.Handle(h))
	if !ok {
		v.deny(nil, req.Role, ErrUnknownState)
		return res, nil
	}
	if !st.configured {
		v.deny(st, req.Role, ErrUnconfigured)
		return res, nil
	}
	if !utf8.ValidString(req.Token) {
		v.deny(st, req.Role, fmt.Errorf("%w: invalid UTF-8 in token", jwt.ErrEncoding))
		return res, nil
	}
	if !utf8.ValidString(req.Role) {
		v.deny(st, req.Role, fmt.Errorf("%w: invalid UTF-8 in role", jwt.ErrEncoding))
		return res, nil
	}

	claims, err := v.verifier.Verify(req.Token, st.secret.Bytes(), jwt.Expectations{
		Issuer:   req.Issuer,
		Audience: req.Audience,
	})
	if err != nil {
		v.deny(st, req.Role, err)
		return res, nil
	}

	if alloc == nil {
		v.metrics.Inc(MetricHostAllocationFailure)
		return Result{}, fmt.Errorf("%w: no allocator", ErrHostAllocation)
	}
	identity, err := alloc.Strdup(req.Role)
	if err != nil || identity == nil {
		v.metrics.Inc(MetricHostAllocationFailure)
		v.logger.Error("could not copy identity into host memory",
			zap.Stringer("state_id", st.id),
			zap.Int("length", len(req.Role)),
			zap.Error(err),
		)
		if err == nil {
			err = errors.New("allocator returned nil")
		}
		return Result{}, fmt.Errorf("%w: %w", ErrHostAllocation, err)
	}

	res.Authorized = true
	res.Identity = identity
	v.metrics.Inc(MetricValidateAuthorized)
	v.emitAudit(auditEventValidateAuthorized, st, req.Role, true, "")
	v.logger.Debug("token accepted",
		zap.Stringer("state_id", st.id),
		zap.String("role", req.Role),
		zap.String("subject", claims.Subject),
	)
	return res, nil
}

// deny records a denial. The reason stays in operator logs and audit events; the caller only
// learns that authorization failed.
func (v *Validator) deny(st *moduleState, role string, cause error) {
	kind := ClassifyFailure(cause)
	v.metrics.Inc(MetricValidateDenied)
	v.metrics.Inc(deniedMetric(kind))
	v.emitAudit(auditEventValidateDenied, st, role, false, kind.String())

	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.Error(cause),
	}
	if st != nil {
		fields = append(fields, zap.Stringer("state_id", st.id))
	}
	switch kind {
	case FailureUnconfigured:
		v.logger.Warn("pg_jwt_validator: not configured, secret not set at startup", fields...)
	default:
		v.logger.Warn("pg_jwt_validator: token validation failed", fields...)
	}
}

// MetricsSnapshot returns the current counters.
func (v *Validator) MetricsSnapshot() MetricsSnapshot {
	return v.metrics.Snapshot()
}

// OpenStates reports how many module states have been started and not yet shut down.
func (v *Validator) OpenStates() int {
	return v.states.Len()
}

// AuditDropped reports audit events discarded by a buffering sink.
func (v *Validator) AuditDropped() uint64 {
	if d, ok := v.audit.(interface{ Dropped() uint64 }); ok {
		return d.Dropped()
	}
	return 0
}
