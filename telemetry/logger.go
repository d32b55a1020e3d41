package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/charles-forsyth/Skywalker/types"
)

// OTELHook adds trace and span IDs to every log entry when a span is
// active on the event context.
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL trace correlation.
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a logger scoped to one component.
func NewLogger(component string) *Logger {
	return NewLoggerTo(os.Stderr, component)
}

// NewLoggerTo creates a component logger writing to w. The reporting
// layer owns stdout, so logs default to stderr.
func NewLoggerTo(w io.Writer, component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(w).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with ctx attached for trace propagation.
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// LogUnitStart logs the dispatch of one scan unit.
func (l *Logger) LogUnitStart(ctx context.Context, scope types.ScanScope) {
	l.WithContext(ctx).Debug().
		Str("project", scope.ProjectID).
		Str("service", string(scope.Service)).
		Str("region", scope.Region).
		Msg("scan unit dispatched")
}

// LogUnitOutcome logs the completion of one scan unit.
func (l *Logger) LogUnitOutcome(ctx context.Context, outcome types.ScanOutcome) {
	logger := l.WithContext(ctx)
	if outcome.Failed() {
		logger.Warn().
			Str("unit", outcome.Scope.Key()).
			Str("class", string(outcome.Failure.Class)).
			Int("attempts", outcome.Attempts).
			Str("error", outcome.Failure.Message).
			Msg("scan unit failed")
		return
	}
	logger.Debug().
		Str("unit", outcome.Scope.Key()).
		Int("records", len(outcome.Records)).
		Int("invalid", len(outcome.Invalid)).
		Int("attempts", outcome.Attempts).
		Msg("scan unit complete")
}

// LogFleetSummary logs the end-of-run counters.
func (l *Logger) LogFleetSummary(ctx context.Context, summary types.ScanSummary) {
	l.WithContext(ctx).Info().
		Int("attempted", summary.Attempted).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("retried", summary.Retried).
		Int("records", summary.RecordCount).
		Int("validation_errors", summary.ValidationErrors).
		Msg("fleet scan complete")
}
