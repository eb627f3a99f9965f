package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/remod/internal/engine"
)

var (
	_ engine.IDGenerator = (*SequentialIDs)(nil)
	_ engine.IDGenerator = FixedID("")
)

func TestSequentialIDs(t *testing.T) {
	gen := NewSequentialIDs("inst")
	assert.Equal(t, "inst-001", gen.Generate())
	assert.Equal(t, "inst-002", gen.Generate())
	assert.Equal(t, "inst-003", gen.Generate())
}

func TestSequentialIDs_DefaultPrefix(t *testing.T) {
	gen := NewSequentialIDs("")
	assert.Equal(t, DefaultInstanceID, gen.Generate())
}

func TestFixedID(t *testing.T) {
	assert.Equal(t, "abc", FixedID("abc").Generate())
	assert.Equal(t, "abc", FixedID("abc").Generate())
	assert.Equal(t, DefaultInstanceID, FixedID("").Generate())
}
