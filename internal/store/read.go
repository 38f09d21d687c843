package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rigel-lab/qsweep/internal/native"
	"github.com/rigel-lab/qsweep/internal/sweep"
)

// NotFoundError reports a lookup of a row that does not exist.
type NotFoundError struct {
	Kind string // "artifact", "sweep", "run"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IsNotFound returns true if err is a store NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// GetArtifact retrieves a compiled binary by content hash.
func (s *Store) GetArtifact(ctx context.Context, hash string) (*native.Binary, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM artifacts WHERE hash = ?
	`, hash).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: "artifact", ID: hash}
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}

	var bin native.Binary
	if err := json.Unmarshal([]byte(body), &bin); err != nil {
		return nil, fmt.Errorf("get artifact %s: decode: %w", hash, err)
	}
	return &bin, nil
}

// GetSweep retrieves a sweep header by ID.
func (s *Store) GetSweep(ctx context.Context, id string) (sweep.SweepRecord, error) {
	var rec sweep.SweepRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, binary_hash, target, register, shots, seq
		FROM sweeps
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.BinaryHash, &rec.Target, &rec.Register, &rec.Shots, &rec.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, &NotFoundError{Kind: "sweep", ID: id}
	}
	if err != nil {
		return rec, fmt.Errorf("get sweep: %w", err)
	}
	return rec, nil
}

// ListSweeps returns all sweep headers in deterministic order:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when the store holds no sweeps.
func (s *Store) ListSweeps(ctx context.Context) ([]sweep.SweepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, binary_hash, target, register, shots, seq
		FROM sweeps
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sweeps: %w", err)
	}
	defer rows.Close()

	recs := []sweep.SweepRecord{}
	for rows.Next() {
		var rec sweep.SweepRecord
		if err := rows.Scan(&rec.ID, &rec.BinaryHash, &rec.Target, &rec.Register, &rec.Shots, &rec.Seq); err != nil {
			return nil, fmt.Errorf("list sweeps: scan: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sweeps: iterate: %w", err)
	}
	return recs, nil
}

// ListRuns returns all run aggregates of a sweep ordered by ordinal.
func (s *Store) ListRuns(ctx context.Context, sweepID string) ([]sweep.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sweep_id, ordinal, value, visibility, shots, seq
		FROM runs
		WHERE sweep_id = ?
		ORDER BY ordinal ASC
	`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	recs := []sweep.RunRecord{}
	for rows.Next() {
		var rec sweep.RunRecord
		if err := rows.Scan(&rec.ID, &rec.SweepID, &rec.Ordinal, &rec.Value, &rec.Visibility, &rec.Shots, &rec.Seq); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: iterate: %w", err)
	}
	return recs, nil
}

// MaxSeq returns the highest logical sequence number recorded anywhere in
// the store, or 0 for an empty store. A runner appending to this store
// should start its clock at this value.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var max int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM (
			SELECT seq FROM sweeps
			UNION ALL
			SELECT seq FROM runs
		)
	`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return max, nil
}
