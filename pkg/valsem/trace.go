package valsem

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// traceID tags the log lines of one traversal. Ids are only generated when
// debug logging is on.
func (r *Registry) traceID() string {
	if !r.logger.Core().Enabled(zapcore.DebugLevel) {
		return ""
	}
	return uuid.NewString()
}

func (r *Registry) debug(msg string, fields ...zap.Field) {
	if ce := r.logger.Check(zapcore.DebugLevel, msg); ce != nil {
		ce.Write(fields...)
	}
}
