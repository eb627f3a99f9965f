package testutil

import (
	"fmt"
	"sync"
)

// DefaultInstanceID is the instance ID scenarios use when they name none.
const DefaultInstanceID = "test-instance-001"

// SequentialIDs generates "<prefix>-001", "<prefix>-002", ... and never
// runs out. It satisfies engine.IDGenerator.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix means "test-instance".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "test-instance"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%03d", g.prefix, g.n)
}

// FixedID always returns the same ID. Use it when a test wires exactly
// one instance and wants the ID to appear verbatim in golden output.
type FixedID string

// Generate returns the fixed ID, or DefaultInstanceID when empty.
func (id FixedID) Generate() string {
	if id == "" {
		return DefaultInstanceID
	}
	return string(id)
}
