// Package process persists the lifecycle of long-running external jobs,
// keyed by material URL. Writes are whole-row upserts, so redundant
// delivery of the same material overwrites the same row instead of
// creating duplicates, and a write abandoned mid-poll simply leaves the
// row at its last successfully written stage label.
package process

import (
	"context"
	"encoding/json"
	"time"
)

// Stage labels written by the transcription stage.
const (
	StageSubmitted = "submitted"
	StageFinished  = "finished"
	StageFailed    = "failed"
)

// State is a complete snapshot of one job's lifecycle. Every write carries
// the full snapshot, never an incremental patch.
type State struct {
	// URL is the material URL, the row key.
	URL string

	// Stage is the current lifecycle label.
	Stage string

	// Manifest is the job configuration submitted to the external service.
	Manifest json.RawMessage

	StartedAt  time.Time
	FinishedAt time.Time
}

// Store is the persistence contract the pipeline requires: insert-or-update
// by key, and update of an existing row.
type Store interface {
	// Upsert inserts the state or, when a row with the same URL exists,
	// overwrites it.
	Upsert(ctx context.Context, state State) error

	// Update overwrites the stage and finish time of an existing row.
	Update(ctx context.Context, state State) error
}
