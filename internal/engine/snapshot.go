package engine

import (
	"sync"

	"github.com/roach88/remod/internal/ir"
)

// Snapshot is an immutable, fully-populated record of an instance's
// exposed outputs. A new Snapshot is produced for every fold; existing
// ones never change.
type Snapshot struct {
	values  ir.Record
	version int64
	seq     int64

	hashOnce sync.Once
	hash     string
}

func newSnapshot(initial ir.Record) *Snapshot {
	return &Snapshot{values: ir.Clone(initial).(ir.Record)}
}

// with returns a copy of s where key name holds v.
func (s *Snapshot) with(name string, v ir.Value, seq int64) *Snapshot {
	next := make(ir.Record, len(s.values))
	for k, val := range s.values {
		next[k] = val
	}
	next[name] = v
	return &Snapshot{values: next, version: s.version + 1, seq: seq}
}

// Get returns a copy of the value for name.
func (s *Snapshot) Get(name string) (ir.Value, bool) {
	v, ok := s.values[name]
	if !ok {
		return nil, false
	}
	return ir.Clone(v), true
}

// Value returns the value for name, or Null if name is not a key.
func (s *Snapshot) Value(name string) ir.Value {
	if v, ok := s.Get(name); ok {
		return v
	}
	return ir.Null{}
}

// Keys returns the keys in canonical order.
func (s *Snapshot) Keys() []string {
	return s.values.SortedKeys()
}

// Len returns the number of keys.
func (s *Snapshot) Len() int {
	return len(s.values)
}

// Record returns a deep copy of the values.
func (s *Snapshot) Record() ir.Record {
	return ir.Clone(s.values).(ir.Record)
}

// Version returns how many folds produced this snapshot (0 for the initial one).
func (s *Snapshot) Version() int64 {
	return s.version
}

// Seq returns the logical time of the fold that produced this snapshot.
func (s *Snapshot) Seq() int64 {
	return s.seq
}

// Hash returns the content hash of the values.
func (s *Snapshot) Hash() string {
	s.hashOnce.Do(func() {
		h, err := ir.SnapshotHash(s.values)
		if err == nil {
			s.hash = h
		}
	})
	return s.hash
}

// Equal reports whether both snapshots hold equal values.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return ir.Equal(s.values, other.values)
}

// String renders the values as compact JSON.
func (s *Snapshot) String() string {
	return ir.Format(s.values)
}
