package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crewboard/crewboard-backend/pkg/config"
)

// Logger wraps zerolog.Logger
type Logger struct {
	zerolog.Logger
}

type ctxKey struct{}

// New creates a logger for the service. Development gets a console writer,
// other environments emit JSON. CREWBOARD_LOG_LEVEL overrides the level.
func New(serviceName string, environment string) *Logger {
	return newLogger(os.Stdout, serviceName, environment)
}

func newLogger(out io.Writer, serviceName string, environment string) *Logger {
	output := out
	level := zerolog.InfoLevel
	if config.IsDevelopment(environment) {
		output = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    out != os.Stdout,
			TimeFormat: time.RFC3339,
		}
		level = zerolog.DebugLevel
	}
	if raw := config.GetEnv("LOG_LEVEL", ""); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &Logger{Logger: logger}
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithRequestID returns a logger with the request ID attached
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With().Str("request_id", requestID).Logger()}
}

// WithUserID returns a logger with the user ID attached
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{Logger: l.Logger.With().Str("user_id", userID).Logger()}
}

// WithOrgID returns a logger with the organization ID attached
func (l *Logger) WithOrgID(orgID string) *Logger {
	return &Logger{Logger: l.Logger.With().Str("organization_id", orgID).Logger()}
}

// WithCorrelationID returns a logger with the correlation ID attached
func (l *Logger) WithCorrelationID(correlationID string) *Logger {
	return &Logger{Logger: l.Logger.With().Str("correlation_id", correlationID).Logger()}
}

// WithComponent returns a logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With().Str("component", component).Logger()}
}

// WithError returns a logger with the error attached
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With().Err(err).Logger()}
}

// IntoContext stores the logger in ctx.
func IntoContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request-scoped logger, or fallback when none is set.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return fallback
}
