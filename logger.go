package conann

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with conann-specific context.
// This provides structured logging with consistent field names across the
// calibration pipeline.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithRunID tags the logger with a calibration run identifier.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", runID),
	}
}

// LogScoreMatrixBuild logs a ScoreMatrixBuilder pass over a query split.
func (l *Logger) LogScoreMatrixBuild(ctx context.Context, split string, n, listCount int, dur time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "score matrix build failed",
			"split", split, "queries", n, "lists", listCount, "error", err)
	} else {
		l.DebugContext(ctx, "score matrix build completed",
			"split", split, "queries", n, "lists", listCount, "duration", dur)
	}
}

// LogCalibration logs the outcome of a full Calibrate call.
func (l *Logger) LogCalibration(ctx context.Context, alpha float64, lamhat, regLambda float64, kreg int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "calibration failed", "alpha", alpha, "error", err)
	} else {
		l.InfoContext(ctx, "calibration completed",
			"alpha", alpha, "lamhat", lamhat, "lambda_reg", regLambda, "k_reg", kreg)
	}
}

// LogSearch logs a single adaptive search call.
func (l *Logger) LogSearch(ctx context.Context, probed int, found int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "adaptive search failed", "error", err)
	} else {
		l.DebugContext(ctx, "adaptive search completed", "lists_probed", probed, "results", found)
	}
}

// LogCacheHit logs a cache read hit.
func (l *Logger) LogCacheHit(ctx context.Context, key string) {
	l.DebugContext(ctx, "cache hit", "key", key)
}

// LogCacheMiss logs a cache read miss (including short reads).
func (l *Logger) LogCacheMiss(ctx context.Context, key string, err error) {
	l.DebugContext(ctx, "cache miss", "key", key, "error", err)
}

// LogOptimizerWarning logs a non-convergent Brent root-find. msg is the
// error's formatted message (threshold.ErrDidNotConverge.Error()); kept as
// a plain string here so this package does not need to import threshold.
func (l *Logger) LogOptimizerWarning(ctx context.Context, msg string) {
	l.WarnContext(ctx, "threshold optimizer did not converge", "detail", msg)
}

// LogDegenerateCalibration logs a degenerate calibration: either a
// RegLambdaSelector fallback to lambda_reg=0, or a threshold optimizer
// run that found no sign change on [0, 1]. msg says which.
func (l *Logger) LogDegenerateCalibration(ctx context.Context, msg string) {
	l.WarnContext(ctx, "degenerate calibration", "detail", msg)
}
