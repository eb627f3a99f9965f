package store

import (
	"context"
	"fmt"

	"github.com/roach88/remod/internal/ir"
)

// Instance is one wired instance as recorded in the store.
type Instance struct {
	ID            string
	Module        string
	SpecHash      string
	Spec          ir.ModuleSpec
	EngineVersion string
	IRVersion     string

	// TornDownSeq is the logical time of teardown, 0 while live.
	TornDownSeq int64
}

// Live reports whether the instance had not been torn down when last recorded.
func (i Instance) Live() bool {
	return i.TornDownSeq == 0
}

// Snapshot is one published snapshot of an instance.
type Snapshot struct {
	InstanceID string
	Version    int64
	Seq        int64
	Hash       string
	Values     ir.Record
}

// WriteInstance records a newly wired instance.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewiring under a reused
// ID keeps the first record.
func (s *Store) WriteInstance(ctx context.Context, inst Instance) error {
	specJSON, err := marshalSpec(inst.Spec)
	if err != nil {
		return fmt.Errorf("write instance: %w", err)
	}
	if inst.EngineVersion == "" {
		inst.EngineVersion = ir.EngineVersion
	}
	if inst.IRVersion == "" {
		inst.IRVersion = ir.IRVersion
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO instances
		(id, module, spec_hash, spec, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		inst.ID,
		inst.Module,
		inst.SpecHash,
		specJSON,
		inst.EngineVersion,
		inst.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write instance: %w", err)
	}
	return nil
}

// MarkTornDown records the teardown seq of an instance. Only the first
// teardown is kept.
func (s *Store) MarkTornDown(ctx context.Context, instanceID string, seq int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE instances SET torn_down_seq = ?
		WHERE id = ? AND torn_down_seq IS NULL
	`, seq, instanceID)
	if err != nil {
		return fmt.Errorf("mark torn down: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark torn down: %w", err)
	}
	if n == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM instances WHERE id = ?`, instanceID).Scan(&exists); err != nil {
			return fmt.Errorf("mark torn down: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("mark torn down: %w: %s", ErrUnknownInstance, instanceID)
		}
	}
	return nil
}

// WriteEmission appends one emission.
// Uses ON CONFLICT(id) DO NOTHING: emission IDs are content-addressed, so
// a duplicate write is the same emission.
//
// The instance referenced by InstanceID must exist (foreign key constraint).
func (s *Store) WriteEmission(ctx context.Context, e ir.Emission) error {
	if !e.Kind.Valid() {
		return fmt.Errorf("write emission: invalid kind %q", e.Kind)
	}
	valueJSON, err := marshalValue(e.Value)
	if err != nil {
		return fmt.Errorf("write emission: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO emissions
		(id, instance_id, channel, kind, value, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.InstanceID,
		e.Channel,
		string(e.Kind),
		valueJSON,
		e.Seq,
	)
	if err != nil {
		return fmt.Errorf("write emission: %w", err)
	}
	return nil
}

// WriteSnapshot appends one snapshot. A second write of the same
// (instance, version) is ignored.
func (s *Store) WriteSnapshot(ctx context.Context, snap Snapshot) error {
	valuesJSON, err := marshalValue(snap.Values)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	hash := snap.Hash
	if hash == "" {
		if hash, err = ir.SnapshotHash(snap.Values); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots
		(instance_id, version, seq, hash, snapshot)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(instance_id, version) DO NOTHING
	`,
		snap.InstanceID,
		snap.Version,
		snap.Seq,
		hash,
		valuesJSON,
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
