package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/zatekoja/patientsurvey/pkg/config"
)

// InitLogger installs the global logger for one survey binary. component
// tells the api, indexer, migrate and seed processes apart in shared sinks.
func InitLogger(app config.AppConfig, component string) {
	zerolog.SetGlobalLevel(LogLevel(app))
	log.Logger = NewLogger(loggerOutput(app), app, component)
}

// NewLogger builds the base logger every request and job logger derives from.
func NewLogger(w io.Writer, app config.AppConfig, component string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	fields := zerolog.New(w).With().Timestamp().Str("service", app.Name)
	if component != "" {
		fields = fields.Str("component", component)
	}
	if !app.IsDevelopment() {
		fields = fields.Str("env", app.Environment).Caller()
	}
	return fields.Logger()
}

// LogLevel resolves LOG_LEVEL, falling back to debug in development and
// info elsewhere when it is unset or unknown.
func LogLevel(app config.AppConfig) zerolog.Level {
	fallback := zerolog.InfoLevel
	if app.IsDevelopment() {
		fallback = zerolog.DebugLevel
	}
	if app.LogLevel == "" {
		return fallback
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(app.LogLevel)))
	if err != nil || level == zerolog.NoLevel {
		return fallback
	}
	return level
}

func loggerOutput(app config.AppConfig) io.Writer {
	if app.IsDevelopment() {
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"}
	}
	return os.Stdout
}

// LoggerFromContext returns the global logger tagged with the active span.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := log.Logger

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		logger = logger.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}

	return &logger
}
