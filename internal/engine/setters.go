package engine

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/remod/internal/ir"
)

// Setter pushes one value into an input channel.
type Setter func(ir.Value) error

// Setters is the only way callers drive an instance: one setter per Input
// name that is not also a Feedback name.
type Setters struct {
	inst  *Instance
	names []string
}

// Names returns the settable input names in declaration order.
func (s *Setters) Names() []string {
	return slices.Clone(s.names)
}

// Has reports whether name has a setter.
func (s *Setters) Has(name string) bool {
	return slices.Contains(s.names, name)
}

// Lookup returns the setter for name. Feedback-bound and undeclared names
// have none.
func (s *Setters) Lookup(name string) (Setter, bool) {
	if !s.Has(name) {
		return nil, false
	}
	return func(v ir.Value) error { return s.inst.Set(name, v) }, true
}

// Set pushes v into the named input channel.
func (s *Setters) Set(name string, v ir.Value) error {
	return s.inst.Set(name, v)
}

// SetterName returns the conventional setter name for an input:
// "increment" becomes "setIncrement".
func SetterName(name string) string {
	if name == "" {
		return "set"
	}
	r, size := utf8.DecodeRuneInString(name)
	var b strings.Builder
	b.WriteString("set")
	b.WriteRune(unicode.ToUpper(r))
	b.WriteString(name[size:])
	return b.String()
}
