// Package logging builds the zap loggers used by the module and its tooling.
//
// Inside the database server there is no stdout worth writing to, so [NewEmitterCore] hands
// every encoded entry to a host-provided emitter instead of a file descriptor.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Emitter receives one encoded log line at the given level.
type Emitter func(level zapcore.Level, line string)

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(level string) (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("parse log level: %w", err)
	}
	return lvl, nil
}

func encoderFor(format string, host bool) (zapcore.Encoder, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if host {
		// The server prefixes its own timestamp and severity.
		cfg.TimeKey = zapcore.OmitKey
		cfg.LevelKey = zapcore.OmitKey
		cfg.CallerKey = zapcore.OmitKey
		cfg.StacktraceKey = zapcore.OmitKey
	}
	switch strings.ToLower(format) {
	case "", "console":
		if !host {
			cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		return zapcore.NewConsoleEncoder(cfg), nil
	case "json":
		return zapcore.NewJSONEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

// New returns a logger writing to ws.
func New(level, format string, ws zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	enc, err := encoderFor(format, false)
	if err != nil {
		return nil, err
	}
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(ws), lvl)), nil
}

// NewHost returns a logger whose entries are delivered through emit.
func NewHost(level, format string, emit Emitter) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	enc, err := encoderFor(format, true)
	if err != nil {
		return nil, err
	}
	return zap.New(NewEmitterCore(enc, lvl, emit)), nil
}

type emitterCore struct {
	zapcore.LevelEnabler
	enc  zapcore.Encoder
	emit Emitter
}

// NewEmitterCore returns a zapcore.Core that encodes entries with enc and passes each line to
// emit. A nil emit discards everything.
func NewEmitterCore(enc zapcore.Encoder, enab zapcore.LevelEnabler, emit Emitter) zapcore.Core {
	if emit == nil {
		return zapcore.NewNopCore()
	}
	return &emitterCore{LevelEnabler: enab, enc: enc, emit: emit}
}

func (c *emitterCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.clone()
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return clone
}

func (c *emitterCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *emitterCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	line := strings.TrimRight(buf.String(), "\n")
	buf.Free()
	c.emit(ent.Level, line)
	return nil
}

func (c *emitterCore) Sync() error {
	return nil
}

func (c *emitterCore) clone() *emitterCore {
	return &emitterCore{
		LevelEnabler: c.LevelEnabler,
		enc:          c.enc.Clone(),
		emit:         c.emit,
	}
}
