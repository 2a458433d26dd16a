package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress"
)

// Snapshot is a point-in-time view of the current (or most recent) scan run.
// It is the payload served by the status API.
type Snapshot struct {
	RunID         string    `json:"run_id,omitempty"`
	Running       bool      `json:"running"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
	ItemsOK       int64     `json:"items_ok"`
	ItemsNoVar    int64     `json:"items_no_variants"`
	ItemsError    int64     `json:"items_error"`
	ItemsSkipped  int64     `json:"items_skipped"`
	VariantsFound int64     `json:"variants_found"`
	LastSlug      string    `json:"last_slug,omitempty"`
	LastStatus    string    `json:"last_status,omitempty"`
	LastNote      string    `json:"last_note,omitempty"`
}

// SnapshotSink folds the event stream into an in-memory Snapshot. A new
// RUN_START resets the counters, so the snapshot always describes the latest
// run. It is safe for concurrent use.
type SnapshotSink struct {
	mu   sync.RWMutex
	snap Snapshot
	run  uuid.UUID
}

// NewSnapshotSink constructs an empty SnapshotSink.
func NewSnapshotSink() *SnapshotSink {
	return &SnapshotSink{}
}

// Consume folds each event in the batch into the snapshot.
func (s *SnapshotSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *SnapshotSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.run = evt.RunID
		s.snap = Snapshot{
			RunID:     evt.RunID.String(),
			Running:   true,
			StartedAt: evt.TS,
			UpdatedAt: evt.TS,
		}
		return
	case progress.StageRunDone, progress.StageRunError:
		if evt.RunID == s.run {
			s.snap.Running = false
		}
	case progress.StageItemDone:
		switch evt.Status {
		case "ok":
			s.snap.ItemsOK++
		case "no-variants":
			s.snap.ItemsNoVar++
		case "error":
			s.snap.ItemsError++
		}
		s.snap.VariantsFound += int64(evt.Variants)
		s.snap.LastSlug = evt.Slug
		s.snap.LastStatus = evt.Status
		s.snap.LastNote = evt.Note
	case progress.StageItemSkipped:
		s.snap.ItemsSkipped++
		s.snap.LastSlug = evt.Slug
		s.snap.LastStatus = "skipped"
		s.snap.LastNote = evt.Note
	}
	if evt.TS.After(s.snap.UpdatedAt) {
		s.snap.UpdatedAt = evt.TS
	}
}

// Snapshot returns a copy of the current view.
func (s *SnapshotSink) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Close implements the Sink interface; it performs no action.
func (s *SnapshotSink) Close(context.Context) error {
	return nil
}
