package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/remod/internal/ir"
)

// ErrUnknownInstance is returned when an instance ID has no record.
var ErrUnknownInstance = errors.New("unknown instance")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ReadInstance retrieves one instance by ID.
// Returns ErrUnknownInstance if not found.
func (s *Store) ReadInstance(ctx context.Context, id string) (Instance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, module, spec_hash, spec, engine_version, ir_version, torn_down_seq
		FROM instances
		WHERE id = ?
	`, id)

	inst, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Instance{}, fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}
	return inst, err
}

// ListInstances returns every recorded instance in recording order.
// Returns an empty slice (not nil) for an empty store.
func (s *Store) ListInstances(ctx context.Context) ([]Instance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, module, spec_hash, spec, engine_version, ir_version, torn_down_seq
		FROM instances
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	instances := []Instance{}
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return instances, nil
}

// ReadEmissions returns the whole emission timeline of one instance.
// Ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Module is filled from the instance record.
func (s *Store) ReadEmissions(ctx context.Context, instanceID string) ([]ir.Emission, error) {
	return s.QueryEmissions(ctx, EmissionQuery{InstanceID: instanceID})
}

// ReadSnapshots returns every recorded snapshot of one instance,
// ordered by seq then version.
func (s *Store) ReadSnapshots(ctx context.Context, instanceID string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instance_id, version, seq, hash, snapshot
		FROM snapshots
		WHERE instance_id = ?
		ORDER BY seq ASC, version ASC
	`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// LatestSnapshot returns the most recent recorded snapshot of an instance.
// When no fold was recorded it falls back to the descriptor's initial snapshot
// at version 0. Returns ErrUnknownInstance if the instance has no record.
func (s *Store) LatestSnapshot(ctx context.Context, instanceID string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT instance_id, version, seq, hash, snapshot
		FROM snapshots
		WHERE instance_id = ?
		ORDER BY seq DESC, version DESC
		LIMIT 1
	`, instanceID)

	snap, err := scanSnapshot(row)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, err
	}

	inst, err := s.ReadInstance(ctx, instanceID)
	if err != nil {
		return Snapshot{}, err
	}
	initial := inst.Spec.Initial
	if initial == nil {
		initial = ir.Record{}
	}
	hash, err := ir.SnapshotHash(initial)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{InstanceID: instanceID, Hash: hash, Values: initial}, nil
}

// CountEmissions returns the number of emissions recorded for an instance.
func (s *Store) CountEmissions(ctx context.Context, instanceID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM emissions WHERE instance_id = ?
	`, instanceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count emissions: %w", err)
	}
	return n, nil
}

func scanInstance(row rowScanner) (Instance, error) {
	var (
		inst     Instance
		specJSON string
		torn     sql.NullInt64
	)
	err := row.Scan(&inst.ID, &inst.Module, &inst.SpecHash, &specJSON, &inst.EngineVersion, &inst.IRVersion, &torn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Instance{}, err
		}
		return Instance{}, fmt.Errorf("scan instance: %w", err)
	}
	if inst.Spec, err = unmarshalSpec(specJSON); err != nil {
		return Instance{}, fmt.Errorf("instance %s: %w", inst.ID, err)
	}
	inst.TornDownSeq = torn.Int64
	return inst, nil
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var (
		snap       Snapshot
		valuesJSON string
	)
	err := row.Scan(&snap.InstanceID, &snap.Version, &snap.Seq, &snap.Hash, &valuesJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("scan snapshot: %w", err)
	}
	if snap.Values, err = unmarshalRecord(valuesJSON); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s@%d: %w", snap.InstanceID, snap.Version, err)
	}
	return snap, nil
}
