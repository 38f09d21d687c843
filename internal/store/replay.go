package store

import (
	"context"
	"fmt"

	"github.com/rigel-lab/qsweep/internal/sweep"
)

// ReplaySeries reconstructs the series a past sweep produced, without
// re-running anything. Points come back in ordinal order, which is the
// order the runner executed them in.
//
// A sweep whose run loop aborted partway replays as a shorter series; the
// header is still present, so a zero-point series is possible.
func (s *Store) ReplaySeries(ctx context.Context, sweepID string) (*sweep.Series, error) {
	header, err := s.GetSweep(ctx, sweepID)
	if err != nil {
		return nil, err
	}

	runs, err := s.ListRuns(ctx, sweepID)
	if err != nil {
		return nil, err
	}

	series := &sweep.Series{
		SweepID:  header.ID,
		Target:   header.Target,
		Register: header.Register,
		Points:   make([]sweep.Point, 0, len(runs)),
	}
	for i, run := range runs {
		if run.Ordinal != i {
			return nil, fmt.Errorf("replay sweep %s: ordinal gap at %d (got %d)", sweepID, i, run.Ordinal)
		}
		series.Points = append(series.Points, sweep.Point{
			Value:      run.Value,
			Visibility: run.Visibility,
			Shots:      run.Shots,
		})
	}
	return series, nil
}
