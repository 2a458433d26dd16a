// Package progress defines the event structures emitted by the scan orchestrator.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageRunError    Stage = "RUN_ERROR"
	StageItemDone    Stage = "ITEM_DONE"
	StageItemSkipped Stage = "ITEM_SKIPPED"
)

// Event captures a single milestone of scan progress.
type Event struct {
	// RunID uniquely identifies a scan run.
	RunID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or item milestone occurred.
	Stage Stage
	// Slug identifies the card for item events.
	Slug string
	// Collection scopes item events to their expansion set.
	Collection string
	// Status carries the checkpoint status recorded for an item.
	Status string
	// Variants counts the alternate printings found for the item.
	Variants int
	// Dur captures wall time for item and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError:
	case StageItemDone:
		if e.Slug == "" {
			return errors.New("item done requires slug")
		}
		if e.Status == "" {
			return errors.New("item done requires status")
		}
	case StageItemSkipped:
		if e.Slug == "" {
			return errors.New("item skipped requires slug")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Variants < 0 {
		return errors.New("variants must be >= 0")
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
