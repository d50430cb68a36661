package audithook

import (
	"context"
	"log/slog"
)

// SlogRecorder writes audit events to a structured logger. It is the
// default sink when no audit backend is wired.
type SlogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder returns a Recorder that logs every event at info level,
// or warn level for failures.
func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogRecorder{logger: logger.With("component", "audit")}
}

// Record implements Recorder.
func (r *SlogRecorder) Record(ctx context.Context, event *AuditEvent) error {
	level := slog.LevelInfo
	if event.Outcome == OutcomeFailure {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("id", event.ID),
		slog.String("resource", event.Resource),
		slog.String("resource_id", event.ResourceID),
		slog.String("category", event.Category),
		slog.String("outcome", event.Outcome),
		slog.String("severity", event.Severity),
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", event.Metadata))
	}

	r.logger.LogAttrs(ctx, level, event.Action, attrs...)
	return nil
}
