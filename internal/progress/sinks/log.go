package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress"
)

// LogSink emits structured logs for debugging progress streams. It is useful
// during development or when replaying a scan from journald output.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID.String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("slug", evt.Slug),
			zap.String("collection", evt.Collection),
			zap.String("status", evt.Status),
			zap.Int("variants", evt.Variants),
			zap.String("note", evt.Note),
		}
		s.logger.Info("progress event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
