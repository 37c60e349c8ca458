// Package logger wraps log/slog with trace correlation for the trading bot.
// Call Init once at startup; helpers fall back to slog's default logger so
// library code and tests can log without any setup.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"kis-trading-bot/internal/trace"
)

var (
	globalLogger    *slog.Logger
	detailedLogging bool
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level           string // DEBUG, INFO, WARN, ERROR
	Format          string // json or text
	DetailedLogging bool
}

// LoadConfigFromEnv reads LOG_LEVEL, LOG_FORMAT and LOG_DETAILED.
func LoadConfigFromEnv() LogConfig {
	return LogConfig{
		Level:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:          getEnvOrDefault("LOG_FORMAT", "json"),
		DetailedLogging: getEnvOrDefault("LOG_DETAILED", "false") == "true",
	}
}

// Init initializes the global logger from environment variables.
func Init() error {
	return InitWithConfig(LoadConfigFromEnv())
}

// InitWithConfig initializes the global logger with a specific configuration.
func InitWithConfig(config LogConfig) error {
	detailedLogging = config.DetailedLogging

	opts := &slog.HandlerOptions{Level: parseLogLevel(config.Level)}
	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Debug logs a debug message. Emitted only when detailed logging is on.
func Debug(ctx context.Context, msg string, args ...any) {
	if !detailedLogging {
		return
	}
	logWithTrace(ctx, slog.LevelDebug, msg, args...)
}

// Info logs an info message.
func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelWarn, msg, args...)
}

// Error logs an error message.
func Error(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelError, msg, args...)
}

// ErrorWithErr logs an error message with the error attached, and records the
// error on the active span when one exists.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	span := oteltrace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	logWithTrace(ctx, slog.LevelError, msg, append([]any{"error", err}, args...)...)
}

// Signal logs an emitted trading signal. Always logged at info level so the
// audit trail survives level changes.
func Signal(ctx context.Context, symbol, signal, reason string, args ...any) {
	allArgs := append([]any{
		"type", "SIGNAL",
		"symbol", symbol,
		"signal", signal,
		"reason", reason,
	}, args...)
	logWithTrace(ctx, slog.LevelInfo, "Trading signal emitted", allArgs...)
}

// Trade logs an order execution.
func Trade(ctx context.Context, symbol, side string, qty int64, price float64, orderID string, args ...any) {
	allArgs := append([]any{
		"type", "TRADE",
		"symbol", symbol,
		"side", side,
		"quantity", qty,
		"price", price,
		"order_id", orderID,
	}, args...)
	logWithTrace(ctx, slog.LevelInfo, "Order submitted", allArgs...)
}

func logWithTrace(ctx context.Context, level slog.Level, msg string, args ...any) {
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		args = append([]any{"trace_id", traceID, "span_id", spanID}, args...)
	}
	l := globalLogger
	if l == nil {
		l = slog.Default()
	}
	l.Log(ctx, level, msg, args...)
}

// OperationTimer measures an operation's duration inside a span.
type OperationTimer struct {
	ctx   context.Context
	span  oteltrace.Span
	name  string
	start time.Time
}

// StartOperation opens a span for the named operation and starts the timer.
func StartOperation(ctx context.Context, operation string, args ...any) *OperationTimer {
	ctx, span := trace.StartSpan(ctx, operation)
	Debug(ctx, "Operation started", append([]any{"operation", operation}, args...)...)
	return &OperationTimer{ctx: ctx, span: span, name: operation, start: time.Now()}
}

// Context returns the context carrying the operation's span.
func (ot *OperationTimer) Context() context.Context { return ot.ctx }

// End closes the span and logs the duration.
func (ot *OperationTimer) End(args ...any) {
	duration := time.Since(ot.start)
	if ot.span != nil {
		ot.span.SetStatus(otelcodes.Ok, "completed")
		ot.span.End()
	}
	Debug(ot.ctx, "Operation completed",
		append([]any{"operation", ot.name, "duration_ms", duration.Milliseconds()}, args...)...)
}

// EndWithError closes the span recording the failure.
func (ot *OperationTimer) EndWithError(err error, args ...any) {
	duration := time.Since(ot.start)
	if ot.span != nil {
		ot.span.RecordError(err)
		ot.span.SetStatus(otelcodes.Error, err.Error())
		ot.span.End()
	}
	Error(ot.ctx, "Operation failed",
		append([]any{"operation", ot.name, "duration_ms", duration.Milliseconds(), "error", err}, args...)...)
}

// IsDebugEnabled reports whether detailed logging is on.
func IsDebugEnabled() bool {
	return detailedLogging
}
