package prog

import "fmt"

// Result is the outcome batch of one execution: for every bit register,
// one row of bits per shot. Consumed into an aggregate and then discarded
// by the sweep loop; the store keeps only the aggregate.
type Result struct {
	Shots int `json:"shots"`

	// Readout maps bit register name to a shots × length matrix of 0/1
	// outcome bits.
	Readout map[string][][]uint8 `json:"readout"`
}

// Visibility returns the arithmetic mean of the outcome bits for one
// register element across all shots: the fraction of shots measured in the
// excited state, in [0, 1].
func (r *Result) Visibility(register string, index int) (float64, error) {
	rows, ok := r.Readout[NormalizeName(register)]
	if !ok {
		return 0, fmt.Errorf("no readout for register %q", register)
	}
	if r.Shots == 0 || len(rows) == 0 {
		return 0, fmt.Errorf("empty outcome batch for register %q", register)
	}
	var ones int
	for _, row := range rows {
		if index < 0 || index >= len(row) {
			return 0, fmt.Errorf("index %d out of range for register %q", index, register)
		}
		if row[index] != 0 {
			ones++
		}
	}
	return float64(ones) / float64(len(rows)), nil
}
