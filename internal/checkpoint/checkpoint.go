// Package checkpoint persists per-card scan results so a multi-hour scan can
// be interrupted and restarted without re-probing cards that already settled.
package checkpoint

import (
	"context"
	"sort"
)

// Status is the terminal classification of one processed card.
type Status string

const (
	// StatusOK means the V1 page existed; the record's variant list is
	// non-empty and starts with the V1 URL.
	StatusOK Status = "ok"
	// StatusNoVariants means the V1 page did not exist but the card itself
	// was not ruled out.
	StatusNoVariants Status = "no-variants"
	// StatusError means the card could not be settled; error records are
	// picked up again by a retry-errors scan.
	StatusError Status = "error"
)

// Record is the durable result for one card. A record is only ever replaced
// as a unit; partial updates are not written.
type Record struct {
	Status     Status   `json:"status"`
	Variants   []string `json:"variants,omitempty"`
	Collection string   `json:"collection,omitempty"`
}

// Equal reports whether two records carry the same data.
func (r Record) Equal(other Record) bool {
	if r.Status != other.Status || r.Collection != other.Collection {
		return false
	}
	if len(r.Variants) != len(other.Variants) {
		return false
	}
	for i := range r.Variants {
		if r.Variants[i] != other.Variants[i] {
			return false
		}
	}
	return true
}

// Ledger is the in-memory scan state, keyed by card slug. The orchestrator
// owns it: loaded once at start, mutated per item, flushed after every item.
type Ledger map[string]Record

// Skip reports whether slug is already settled and should not be reprocessed.
// Error records stay eligible when retryErrors is set.
func (l Ledger) Skip(slug string, retryErrors bool) bool {
	rec, ok := l[slug]
	if !ok {
		return false
	}
	if retryErrors && rec.Status == StatusError {
		return false
	}
	return true
}

// Slugs returns the ledger keys in lexical order, so passes over the ledger
// visit records deterministically.
func (l Ledger) Slugs() []string {
	out := make([]string, 0, len(l))
	for slug := range l {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// Store persists the ledger between runs.
//
// Load recovers a missing or corrupt store as an empty ledger with a logged
// warning; losing the checkpoint must never stop a scan from starting. Save
// must be durable before the caller moves on to the next item. The changed
// keys name the records mutated since the last Save so database backends can
// merge per key; file backends are free to rewrite wholesale.
type Store interface {
	Load(ctx context.Context) (Ledger, error)
	Save(ctx context.Context, ledger Ledger, changed ...string) error
	Wipe(ctx context.Context) error
	Close() error
}
