// Package host adapts the validator to a database backend that loads it as a shared library.
//
// The backend calls into a process-wide Module from its C callbacks. Module finishes its own
// setup on the first startup, because configuration and the secret setting are only final
// once the backend has read its settings.
package host

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MrEthical07/pgjwt"
	"github.com/MrEthical07/pgjwt/internal/logging"
	"github.com/MrEthical07/pgjwt/secret"
)

// Severity values shared with the C side of the module.
const (
	SeverityDebug   = 0
	SeverityInfo    = 1
	SeverityWarning = 2
	SeverityError   = 3
)

// Severity maps a zap level onto the backend log severities.
func Severity(level zapcore.Level) int {
	switch {
	case level <= zapcore.DebugLevel:
		return SeverityDebug
	case level == zapcore.InfoLevel:
		return SeverityInfo
	case level == zapcore.WarnLevel:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Module owns the process-wide validator.
//
// The validator is built on the first startup and closed again once its last state is released,
// which flushes buffered audit events before the backend exits. A later startup builds a fresh
// validator; the secret store keeps the value captured the first time.
type Module struct {
	emit       logging.Emitter
	store      *secret.Store
	loadConfig func() (pgjwt.Config, error)

	mu        sync.RWMutex
	validator *pgjwt.Validator
	logger    *zap.Logger
}

// NewModule returns a Module that logs through emit and keeps the secret in store.
func NewModule(emit logging.Emitter, store *secret.Store) *Module {
	if store == nil {
		store = secret.Process
	}
	return &Module{
		emit:       emit,
		store:      store,
		loadConfig: pgjwt.LoadConfigFromEnv,
	}
}

// Startup creates a module state. hostSecret is the backend's secret setting at the time of the
// first startup in this process; later values are ignored.
func (m *Module) Startup(hostSecret []byte) pgjwt.StateHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validator == nil {
		m.validator = m.init(hostSecret)
	}
	return m.validator.Startup()
}

// Shutdown releases a module state. Releasing the last open state closes the validator.
func (m *Module) Shutdown(h pgjwt.StateHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validator == nil {
		return
	}
	m.validator.Shutdown(h)
	if m.validator.OpenStates() > 0 {
		return
	}
	if err := m.validator.Close(); err != nil {
		m.logger.Warn("pg_jwt_validator: could not close audit log", zap.Error(err))
	}
	m.validator = nil
}

// Validate runs one validation. Without a live validator every request is denied.
func (m *Module) Validate(h pgjwt.StateHandle, token, role string, alloc pgjwt.Allocator) (pgjwt.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.validator == nil {
		m.warnUnconfigured()
		return pgjwt.Result{}, nil
	}
	return m.validator.Validate(h, pgjwt.Request{Token: token, Role: role}, alloc)
}

const msgUnconfigured = "pg_jwt_validator: not configured, secret not set at startup"

func (m *Module) warnUnconfigured() {
	if m.logger != nil {
		m.logger.Warn(msgUnconfigured)
		return
	}
	if m.emit != nil {
		m.emit(zapcore.WarnLevel, msgUnconfigured)
	}
}

func (m *Module) init(hostSecret []byte) *pgjwt.Validator {
	cfg, cfgErr := m.loadConfig()
	if cfgErr != nil {
		cfg = pgjwt.DefaultConfig()
	}

	logger, err := logging.NewHost(cfg.Log.Level, cfg.Log.Format, m.emit)
	if err != nil {
		logger = zap.NewNop()
	}
	m.logger = logger
	if cfgErr != nil {
		logger.Warn("pg_jwt_validator: invalid configuration, using defaults", zap.Error(cfgErr))
	}

	value, err := pgjwt.ResolveSecret(hostSecret, cfg.Secret)
	switch {
	case err == nil:
		m.store.Init(value)
	case !errors.Is(err, secret.ErrNotSet):
		logger.Warn("pg_jwt_validator: could not read secret file", zap.Error(err))
	}

	v, err := m.build(cfg, logger)
	if err != nil {
		logger.Warn("pg_jwt_validator: audit log unavailable, continuing without it", zap.Error(err))
		cfg.Audit.Enabled = false
		v, err = m.build(cfg, logger)
	}
	if err != nil {
		// Only reachable if the defaults themselves fail validation.
		logger.Error("pg_jwt_validator: could not initialize", zap.Error(err))
		v, _ = pgjwt.New().WithSecretStore(m.store).WithLogger(logger).Build()
	}
	return v
}

func (m *Module) build(cfg pgjwt.Config, logger *zap.Logger) (*pgjwt.Validator, error) {
	return pgjwt.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithSecretStore(m.store).
		Build()
}
