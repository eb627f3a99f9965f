package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/remod/internal/ir"
)

// marshalValue converts a Value to canonical JSON TEXT for storage.
func marshalValue(v ir.Value) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses stored JSON TEXT. Integers go through json.Number,
// so int64 values above 2^53 survive.
func unmarshalValue(data string) (ir.Value, error) {
	v, err := ir.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}

func unmarshalRecord(data string) (ir.Record, error) {
	v, err := unmarshalValue(data)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(ir.Record)
	if !ok {
		return nil, fmt.Errorf("unmarshal record: got %s", v.Kind())
	}
	return rec, nil
}

// marshalSpec stores the spec in its canonical record form, the same
// bytes its spec hash is computed over.
func marshalSpec(spec ir.ModuleSpec) (string, error) {
	return marshalValue(spec.Record())
}

func unmarshalSpec(data string) (ir.ModuleSpec, error) {
	var spec ir.ModuleSpec
	if err := json.Unmarshal([]byte(data), &spec); err != nil {
		return ir.ModuleSpec{}, fmt.Errorf("unmarshal spec: %w", err)
	}
	return spec, nil
}
