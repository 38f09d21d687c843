package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rigel-lab/qsweep/internal/native"
	"github.com/rigel-lab/qsweep/internal/sweep"
)

// RecordSweep inserts a sweep header. Uses ON CONFLICT(id) DO NOTHING for
// idempotency - duplicate IDs are silently ignored. Other constraint
// violations still return errors.
func (s *Store) RecordSweep(ctx context.Context, rec sweep.SweepRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sweeps
		(id, binary_hash, target, register, shots, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.BinaryHash,
		rec.Target,
		rec.Register,
		rec.Shots,
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("record sweep: %w", err)
	}
	return nil
}

// RecordRun inserts one run aggregate. ON CONFLICT DO NOTHING handles
// both a duplicate run ID and a second run for the same (sweep, ordinal)
// pair; both are silently ignored for idempotency.
//
// The sweep referenced by SweepID must exist (foreign key constraint).
func (s *Store) RecordRun(ctx context.Context, rec sweep.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, sweep_id, ordinal, value, visibility, shots, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.SweepID,
		rec.Ordinal,
		rec.Value,
		rec.Visibility,
		rec.Shots,
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// PutArtifact persists a compiled binary keyed by its content hash.
// Re-inserting the same artifact is a no-op: the hash covers the full
// binary, so a conflicting row is by construction identical.
func (s *Store) PutArtifact(ctx context.Context, bin *native.Binary) (string, error) {
	hash, err := bin.Hash()
	if err != nil {
		return "", fmt.Errorf("put artifact: %w", err)
	}
	body, err := json.Marshal(bin)
	if err != nil {
		return "", fmt.Errorf("put artifact: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts
		(hash, target, program_hash, shots, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		hash,
		bin.Target,
		bin.ProgramHash,
		bin.Shots,
		string(body),
	)
	if err != nil {
		return "", fmt.Errorf("put artifact: %w", err)
	}
	return hash, nil
}
