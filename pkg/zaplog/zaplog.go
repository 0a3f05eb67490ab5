// Package zaplog adapts go.uber.org/zap loggers to the assoc logging hooks.
package zaplog

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-assoc"
)

// Field names shared by the adapters.
const (
	FieldEngine     = "engine"
	FieldExpr       = "expr"
	FieldProperty   = "property"
	FieldDurationMS = "duration_ms"
	FieldDiagnostic = "diagnostic"
	FieldOwner      = "owner"
	FieldPosition   = "position"
)

// EvaluatorLogger logs default evaluations: failures at warn level, the rest
// at debug level. A nil logger yields a no-op logger.
func EvaluatorLogger(logger *zap.Logger) assoc.EvaluatorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return assoc.EvaluatorLoggerFunc(func(event assoc.EvaluatorLogEvent) {
		fields := []zap.Field{
			zap.String(FieldEngine, event.Engine),
			zap.String(FieldExpr, event.Expr),
			zap.String(FieldProperty, event.Property),
			zap.Float64(FieldDurationMS, float64(event.Duration.Microseconds())/1000),
		}
		if event.Err != nil {
			logger.Warn("default evaluation failed", append(fields, zap.Error(event.Err))...)
			return
		}
		logger.Debug("default evaluated", fields...)
	})
}

// Reporter logs every diagnostic at error level.
func Reporter(logger *zap.Logger) assoc.Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return assoc.ReporterFunc(func(d assoc.Diagnostic) {
		fields := []zap.Field{
			zap.String(FieldDiagnostic, d.ID()),
			zap.String(FieldOwner, d.Owner),
			zap.String(FieldProperty, d.Property),
		}
		if d.Pos.IsValid() {
			fields = append(fields, zap.Stringer(FieldPosition, d.Pos))
		}
		logger.Error(d.Message(), fields...)
	})
}
