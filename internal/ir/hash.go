package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainSpec     = "remod/spec/v1"
	DomainSnapshot = "remod/snapshot/v1"
	DomainEmission = "remod/emission/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SpecHash identifies a module descriptor by content. Two descriptors with
// the same name sets (in the same order) and initial values hash equal.
func SpecHash(spec ModuleSpec) (string, error) {
	canonical, err := MarshalCanonical(spec.Record())
	if err != nil {
		return "", fmt.Errorf("SpecHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSpec, canonical), nil
}

// SnapshotHash identifies a snapshot by content.
func SnapshotHash(snapshot Record) (string, error) {
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// EmissionID computes the content-addressed ID of one trace record.
// seq makes otherwise identical pushes distinct.
func EmissionID(instanceID, channel string, kind EmissionKind, value Value, seq int64) (string, error) {
	obj := Record{
		"instance_id": String(instanceID),
		"channel":     String(channel),
		"kind":        String(kind),
		"value":       value,
		"seq":         Int(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EmissionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEmission, canonical), nil
}

// MustSpecHash is like SpecHash but panics on error.
// Use only in tests or when the spec is known to be valid.
func MustSpecHash(spec ModuleSpec) string {
	h, err := SpecHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}

// MustEmissionID is like EmissionID but panics on error.
func MustEmissionID(instanceID, channel string, kind EmissionKind, value Value, seq int64) string {
	id, err := EmissionID(instanceID, channel, kind, value, seq)
	if err != nil {
		panic(err)
	}
	return id
}
