package eventlog

import (
	"time"
)

// Kind classifies one event record.
type Kind string

const (
	KindRunStart     Kind = "run_start"
	KindBarProcessed Kind = "bar_processed"
	KindTrade        Kind = "trade"
	KindError        Kind = "error"
	KindRunEnd       Kind = "run_end"
)

// Record is one immutable entry of a run's event stream. Records carry
// the run identifier and a monotonically increasing sequence number so
// a stream can be replayed or diffed against an expected golden log.
type Record struct {
	// RunID identifies the run this record belongs to.
	RunID string `yaml:"run_id" json:"run_id"`
	// Seq orders records causally within the run, starting at 1.
	Seq uint64 `yaml:"seq" json:"seq"`
	// Kind is the event classification.
	Kind Kind `yaml:"kind" json:"kind"`
	// Timestamp is the simulated (bar) time of the event, not the wall
	// clock of log emission, so identical runs produce identical streams.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Message is the human-readable description.
	Message string `yaml:"message" json:"message"`
	// Fields contains structured key-value data.
	Fields map[string]string `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Log is the append-only event stream of a single run. Appends happen
// strictly in replay order; no reordering or batching is permitted
// because downstream audit relies on causal ordering.
type Log interface {
	// Append writes one record and returns it with its assigned sequence
	// number.
	Append(kind Kind, at time.Time, message string, fields map[string]string) Record
	// Records returns every record appended so far, in order.
	Records() []Record
	// Len returns the number of records appended so far.
	Len() int
}

// MemoryLog is the in-memory Log used by the backtest engine. A run is
// single-threaded, so no locking is needed within one log.
type MemoryLog struct {
	runID   string
	seq     uint64
	records []Record
}

// NewMemoryLog creates an empty event log for the given run.
func NewMemoryLog(runID string) *MemoryLog {
	return &MemoryLog{
		runID:   runID,
		seq:     0,
		records: nil,
	}
}

// Append implements Log.
func (m *MemoryLog) Append(kind Kind, at time.Time, message string, fields map[string]string) Record {
	m.seq++

	// Copy the fields so later caller mutation cannot rewrite history.
	var copied map[string]string

	if len(fields) > 0 {
		copied = make(map[string]string, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
	}

	record := Record{
		RunID:     m.runID,
		Seq:       m.seq,
		Kind:      kind,
		Timestamp: at,
		Message:   message,
		Fields:    copied,
	}

	m.records = append(m.records, record)

	return record
}

// Records implements Log.
func (m *MemoryLog) Records() []Record {
	out := make([]Record, len(m.records))
	copy(out, m.records)

	return out
}

// Len implements Log.
func (m *MemoryLog) Len() int {
	return len(m.records)
}
