// Package zaplog adapts go.uber.org/zap loggers to the logging hooks of the
// inherit and matcher packages.
package zaplog

import (
	"fmt"

	inherit "github.com/goliatone/go-inherit"
	"github.com/goliatone/go-inherit/matcher"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production (JSON) or development (console) logger at level.
// An empty level keeps the preset's default.
func New(production bool, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if production {
		cfg = zap.NewProductionConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("zaplog: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// StateLogger writes inherit.LogEvent values to zap. Ambiguous conversions
// and events carrying an error are logged at warn, everything else at debug.
type StateLogger struct {
	logger *zap.Logger
}

var _ inherit.Logger = StateLogger{}

// NewStateLogger wraps logger. A nil logger discards events.
func NewStateLogger(logger *zap.Logger) StateLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return StateLogger{logger: logger.Named("inherit")}
}

func (l StateLogger) Log(event inherit.LogEvent) {
	fields := []zap.Field{
		zap.String("op", event.Op),
		zap.String("level_id", event.LevelID),
		zap.Int("depth", event.Depth),
	}
	if event.LevelName != "" {
		fields = append(fields, zap.String("level_name", event.LevelName))
	}
	if event.Key != "" {
		fields = append(fields, zap.String("key", event.Key))
	}
	if event.Detail != "" {
		fields = append(fields, zap.String("detail", event.Detail))
	}
	if event.Count != 0 {
		fields = append(fields, zap.Int("count", event.Count))
	}
	if event.Err != nil {
		fields = append(fields, zap.Error(event.Err))
	}

	switch {
	case event.Err != nil, event.Op == inherit.OpConverterAmbig:
		l.logger.Warn(event.Op, fields...)
	default:
		l.logger.Debug(event.Op, fields...)
	}
}

// EvaluatorLogger writes matcher evaluations to zap at debug, failed ones at
// warn.
type EvaluatorLogger struct {
	logger *zap.Logger
}

var _ matcher.EvaluatorLogger = EvaluatorLogger{}

// NewEvaluatorLogger wraps logger. A nil logger discards events.
func NewEvaluatorLogger(logger *zap.Logger) EvaluatorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return EvaluatorLogger{logger: logger.Named("matcher")}
}

func (l EvaluatorLogger) LogEvaluation(event matcher.EvaluatorLogEvent) {
	fields := []zap.Field{
		zap.String("engine", event.Engine),
		zap.String("expr", event.Expr),
		zap.String("target", event.Target),
		zap.Bool("matched", event.Matched),
		zap.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		l.logger.Warn("evaluation failed", append(fields, zap.Error(event.Err))...)
		return
	}
	l.logger.Debug("evaluated", fields...)
}
