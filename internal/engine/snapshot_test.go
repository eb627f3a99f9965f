package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remod/internal/ir"
)

func TestSnapshot_WithIsCopyOnWrite(t *testing.T) {
	initial := ir.Record{"a": ir.Int(0), "b": ir.String("x")}
	s0 := newSnapshot(initial)
	s1 := s0.with("a", ir.Int(1), 7)

	assert.Equal(t, ir.Int(0), s0.Value("a"), "previous snapshot is unchanged")
	assert.Equal(t, ir.Int(1), s1.Value("a"))
	assert.Equal(t, ir.String("x"), s1.Value("b"), "untouched keys carry over")

	assert.Equal(t, int64(0), s0.Version())
	assert.Equal(t, int64(1), s1.Version())
	assert.Equal(t, int64(7), s1.Seq())

	initial["a"] = ir.Int(99)
	assert.Equal(t, ir.Int(0), s0.Value("a"), "initial record is cloned")
}

func TestSnapshot_ReadsAreCopies(t *testing.T) {
	s := newSnapshot(ir.Record{"items": ir.List{ir.Int(1)}})

	rec := s.Record()
	rec["items"].(ir.List)[0] = ir.Int(2)

	v, ok := s.Get("items")
	require.True(t, ok)
	assert.Equal(t, ir.List{ir.Int(1)}, v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, ir.Null{}, s.Value("missing"))
}

func TestSnapshot_KeysAndLen(t *testing.T) {
	s := newSnapshot(ir.Record{"z": ir.Null{}, "a": ir.Null{}, "m": ir.Null{}})
	assert.Equal(t, []string{"a", "m", "z"}, s.Keys())
	assert.Equal(t, 3, s.Len())
}

func TestSnapshot_HashTracksContent(t *testing.T) {
	a := newSnapshot(ir.Record{"n": ir.Int(1)})
	b := newSnapshot(ir.Record{"n": ir.Int(0)}).with("n", ir.Int(1), 3)
	c := newSnapshot(ir.Record{"n": ir.Int(2)})

	assert.NotEmpty(t, a.Hash())
	assert.Equal(t, a.Hash(), b.Hash(), "hash ignores version and seq")
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestSnapshot_String(t *testing.T) {
	s := newSnapshot(ir.Record{"b": ir.Int(2), "a": ir.String("x")})
	assert.Equal(t, `{"a":"x","b":2}`, s.String())
}
