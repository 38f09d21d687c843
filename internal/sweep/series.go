package sweep

import (
	"context"

	"github.com/rigel-lab/qsweep/internal/prog"
)

// Point is one entry of a sweep series: the parameter value bound for the
// run and the aggregated excited-state visibility of its outcome batch.
type Point struct {
	Value      float64 `json:"value"`
	Visibility float64 `json:"visibility"`
	Shots      int     `json:"shots"`
}

// Series is the ordered (parameter, visibility) list accumulated across a
// sweep. Point order matches the input value order exactly.
type Series struct {
	SweepID  string  `json:"sweep_id"`
	Target   string  `json:"target"`
	Register string  `json:"register"`
	Points   []Point `json:"points"`
}

// Values returns the swept parameter values in series order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Linspace returns n evenly spaced values from lo to hi inclusive. n of 1
// yields just lo; n below 1 yields nil.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Request describes one sweep: which real register to bind, the values to
// bind in order, and which readout element to aggregate.
type Request struct {
	// Register is the real register receiving one value per iteration.
	Register string

	// Values is the precomputed numeric sequence, executed in order.
	Values []float64

	// Readout selects the bit register element whose mean is the
	// aggregated scalar. Left zero, the runner infers it when the program
	// declares exactly one single-bit register.
	Readout prog.RegisterRef
}

// SweepRecord is the persisted header of one sweep.
type SweepRecord struct {
	ID         string
	BinaryHash string
	Target     string
	Register   string
	Shots      int
	Seq        int64
}

// RunRecord is the persisted aggregate of one run call. Per-shot outcome
// bits are ephemeral; only the aggregate survives.
type RunRecord struct {
	ID         string
	SweepID    string
	Ordinal    int
	Value      float64
	Visibility float64
	Shots      int
	Seq        int64
}

// Recorder persists sweep and run records. Implemented by the SQLite
// store; a nil recorder on the runner disables persistence entirely.
type Recorder interface {
	RecordSweep(ctx context.Context, rec SweepRecord) error
	RecordRun(ctx context.Context, rec RunRecord) error
}
