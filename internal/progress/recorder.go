package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config controls delivery behavior for the Recorder.
//   - SinkTimeout: per-sink timeout while delivering (default 10s).
//   - BaseContext: parent context passed to sink calls (defaults to context.Background()).
//   - Logger: optional structured logger used for warnings.
type Config struct {
	SinkTimeout time.Duration
	BaseContext context.Context
	Logger      *zap.Logger
}

const defaultSinkTimeout = 10 * time.Second

// Recorder delivers events to registered sinks synchronously, in emission
// order. The scan loop is single-threaded and paced by courtesy delays, so
// inline delivery costs nothing; a failing sink is logged and skipped rather
// than interrupting the scan.
type Recorder struct {
	cfg    Config
	sinks  []Sink
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewRecorder initializes a Recorder that fans events out to the supplied
// sinks. The returned Recorder is immediately ready to accept events.
func NewRecorder(cfg Config, sinks ...Sink) *Recorder {
	if cfg.SinkTimeout <= 0 {
		cfg.SinkTimeout = defaultSinkTimeout
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		cfg:    cfg,
		sinks:  append([]Sink(nil), sinks...),
		logger: logger,
	}
}

// Emit validates evt and delivers it to every sink in registration order.
// Invalid events are discarded with a debug log.
func (r *Recorder) Emit(evt Event) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if err := evt.Validate(); err != nil {
		r.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	batch := []Event{evt}
	for _, sink := range r.sinks {
		if sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(r.cfg.BaseContext, r.cfg.SinkTimeout)
		if err := sink.Consume(ctx, batch); err != nil {
			r.logger.Warn("progress sink consume failed", zap.Error(err))
		}
		cancel()
	}
}

// Close closes every sink. It is safe to call multiple times; only the first
// call reaches the sinks.
func (r *Recorder) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for _, sink := range r.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(ctx); err != nil {
			r.logger.Warn("progress sink close failed", zap.Error(err))
		}
	}
	return nil
}
