// Package telemetry provides a JSONL event stream for recording engine
// activity. Every recalculation, leveling run, baseline capture, and
// watch trigger is recorded as a structured JSON event, making runs
// auditable and analyzable after the fact.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event kinds identify the type of telemetry event.
const (
	KindRunStart      = "run_start"
	KindRecalcDone    = "recalc_done"
	KindLevelDone     = "level_done"
	KindCostDone      = "cost_done"
	KindEVMDone       = "evm_done"
	KindBaselineSaved = "baseline_saved"
	KindValidateDone  = "validate_done"
	KindWatchChange   = "watch_change"
)

// Event represents a single telemetry record. Each event carries a
// timestamp, a kind tag, the run it belongs to, and optional structured
// data specific to that kind.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	RunID     string    `json:"run,omitempty"`
	Project   string    `json:"project,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for
// concurrent use by multiple goroutines. A nil *Emitter is a valid
// no-op emitter.
type Emitter struct {
	file  *os.File
	enc   *json.Encoder
	mu    sync.Mutex
	runID string
}

// NewEmitter creates a new Emitter that writes JSONL events to the file
// at path. The file is created if it does not exist, or appended to if
// it does. Each Emitter is tagged with a fresh run ID so interleaved
// runs can be separated when reading the log back.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{
		file:  f,
		enc:   json.NewEncoder(f),
		runID: uuid.NewString(),
	}, nil
}

// RunID returns the identifier stamped on every event this Emitter
// writes. Empty for a nil Emitter.
func (e *Emitter) RunID() string {
	if e == nil {
		return ""
	}
	return e.runID
}

// Emit writes a single event to the JSONL file, filling in the
// timestamp and run ID when unset. Calling Emit on a nil Emitter is a
// no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if evt.RunID == "" {
		evt.RunID = e.runID
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
