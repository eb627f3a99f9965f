package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/remod/internal/ir"
)

// createTestStore opens a store in a per-test temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func counterSpec() ir.ModuleSpec {
	return ir.ModuleSpec{
		Name:         "Counter",
		Purpose:      "Counts increments and decrements",
		Input:        []string{"increment", "decrement"},
		PureFeedback: []string{"currentCount"},
		PureOutput:   []string{"displayText"},
		Initial:      ir.Record{"displayText": ir.String("0")},
	}
}

func createTestInstance(t *testing.T, s *Store, id string) Instance {
	t.Helper()
	spec := counterSpec()
	inst := Instance{
		ID:       id,
		Module:   spec.Name,
		SpecHash: ir.MustSpecHash(spec),
		Spec:     spec,
	}
	require.NoError(t, s.WriteInstance(t.Context(), inst))
	return inst
}

func createTestEmission(instanceID, channel string, kind ir.EmissionKind, v ir.Value, seq int64) ir.Emission {
	return ir.Emission{
		ID:         ir.MustEmissionID(instanceID, channel, kind, v, seq),
		InstanceID: instanceID,
		Module:     "Counter",
		Channel:    channel,
		Kind:       kind,
		Value:      v,
		Seq:        seq,
	}
}
