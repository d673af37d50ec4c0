package bench

import (
	"fmt"
	"time"
)

// Result is the record of one benchmark cycle.
type Result struct {
	RunID     string
	Cycle     uint64
	Timestamp time.Time
	Variant   Variant
	Groups    int
	Registers int

	// BatchedWrite and BatchedRead span every group batch of the pass.
	BatchedWrite time.Duration
	BatchedRead  time.Duration
	// SequentialWrite and SequentialRead span every scalar call of the pass.
	SequentialWrite time.Duration
	SequentialRead  time.Duration

	WriteFailures int
	ReadFailures  int

	IntegrityOK bool
	Mismatches  []Mismatch
}

// WriteRatio returns BatchedWrite / SequentialWrite.
func (r *Result) WriteRatio() float64 { return ratio(r.BatchedWrite, r.SequentialWrite) }

// ReadRatio returns BatchedRead / SequentialRead.
func (r *Result) ReadRatio() float64 { return ratio(r.BatchedRead, r.SequentialRead) }

// TotalBatched returns the batched write plus read time.
func (r *Result) TotalBatched() time.Duration { return r.BatchedWrite + r.BatchedRead }

// TotalSequential returns the sequential write plus read time.
func (r *Result) TotalSequential() time.Duration { return r.SequentialWrite + r.SequentialRead }

// TotalRatio returns TotalBatched / TotalSequential.
func (r *Result) TotalRatio() float64 { return ratio(r.TotalBatched(), r.TotalSequential()) }

// WriteSpeedup returns SequentialWrite / BatchedWrite.
func (r *Result) WriteSpeedup() float64 { return ratio(r.SequentialWrite, r.BatchedWrite) }

// ReadSpeedup returns SequentialRead / BatchedRead.
func (r *Result) ReadSpeedup() float64 { return ratio(r.SequentialRead, r.BatchedRead) }

// Integrity returns "PASS" or "FAIL".
func (r *Result) Integrity() string {
	if r.IntegrityOK {
		return "PASS"
	}
	return "FAIL"
}

func ratio(num, den time.Duration) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Mismatch is one failed integrity check.
type Mismatch struct {
	// Group is the label of the group, empty for failures outside a group.
	Group string
	// Register is the address of the register, or of the group head for group-level failures.
	Register string
	// Offset is the index of the register within its group, -1 for group-level failures.
	Offset int
	// Batched and Sequential are the values read by each pattern.
	Batched    uint16
	Sequential uint16
	// Reason is set for failures that are not a value difference.
	Reason string
}

func (m Mismatch) String() string {
	if m.Reason != "" {
		return fmt.Sprintf("%s %s: %s", m.Group, m.Register, m.Reason)
	}
	return fmt.Sprintf("%s %s offset %d: batched=%d, sequential=%d", m.Group, m.Register, m.Offset, m.Batched, m.Sequential)
}
