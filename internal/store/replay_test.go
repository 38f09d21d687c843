package store

import (
	"context"
	"testing"

	"github.com/rigel-lab/qsweep/internal/sweep"
)

func seedSweep(t *testing.T, s *Store, id string, values, vis []float64) {
	t.Helper()
	ctx := context.Background()

	if err := s.RecordSweep(ctx, testSweepRecord(id, 1)); err != nil {
		t.Fatalf("RecordSweep failed: %v", err)
	}
	for i := range values {
		err := s.RecordRun(ctx, sweep.RunRecord{
			ID:         id + "-run-" + string(rune('a'+i)),
			SweepID:    id,
			Ordinal:    i,
			Value:      values[i],
			Visibility: vis[i],
			Shots:      100,
			Seq:        int64(2 + i),
		})
		if err != nil {
			t.Fatalf("RecordRun %d failed: %v", i, err)
		}
	}
}

func TestReplaySeries(t *testing.T) {
	s := openTestStore(t)

	values := []float64{0, 1.57, 3.14}
	vis := []float64{0.01, 0.52, 0.99}
	seedSweep(t, s, "sweep-1", values, vis)

	series, err := s.ReplaySeries(context.Background(), "sweep-1")
	if err != nil {
		t.Fatalf("ReplaySeries failed: %v", err)
	}

	if series.SweepID != "sweep-1" {
		t.Errorf("SweepID = %q", series.SweepID)
	}
	if series.Target != "sim-2q" || series.Register != "theta" {
		t.Errorf("header mismatch: %q %q", series.Target, series.Register)
	}
	if len(series.Points) != len(values) {
		t.Fatalf("got %d points, want %d", len(series.Points), len(values))
	}
	for i, p := range series.Points {
		if p.Value != values[i] || p.Visibility != vis[i] || p.Shots != 100 {
			t.Errorf("point %d = %+v", i, p)
		}
	}
}

func TestReplaySeries_PartialSweep(t *testing.T) {
	s := openTestStore(t)

	// A sweep that aborted after one point replays as a one-point series.
	seedSweep(t, s, "sweep-1", []float64{0.5}, []float64{0.25})

	series, err := s.ReplaySeries(context.Background(), "sweep-1")
	if err != nil {
		t.Fatalf("ReplaySeries failed: %v", err)
	}
	if len(series.Points) != 1 {
		t.Errorf("got %d points, want 1", len(series.Points))
	}
}

func TestReplaySeries_EmptySweep(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordSweep(ctx, testSweepRecord("sweep-1", 1)); err != nil {
		t.Fatalf("RecordSweep failed: %v", err)
	}

	series, err := s.ReplaySeries(ctx, "sweep-1")
	if err != nil {
		t.Fatalf("ReplaySeries failed: %v", err)
	}
	if len(series.Points) != 0 {
		t.Errorf("got %d points, want 0", len(series.Points))
	}
}

func TestReplaySeries_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.ReplaySeries(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestReplaySeries_OrdinalGap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordSweep(ctx, testSweepRecord("sweep-1", 1)); err != nil {
		t.Fatalf("RecordSweep failed: %v", err)
	}
	// Ordinal 1 without ordinal 0: a corrupted log.
	err := s.RecordRun(ctx, sweep.RunRecord{
		ID: "run-1", SweepID: "sweep-1", Ordinal: 1, Value: 0, Visibility: 0, Shots: 10, Seq: 2,
	})
	if err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	if _, err := s.ReplaySeries(ctx, "sweep-1"); err == nil {
		t.Error("expected ordinal gap error, got nil")
	}
}
