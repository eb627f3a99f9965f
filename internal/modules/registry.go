// Package modules provides the built-in reactive modules. Their
// descriptors live in specs/*.cue and are compiled when the package loads;
// the logic functions are Go.
package modules

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/roach88/remod/internal/compiler"
	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
)

//go:embed specs/*.cue
var specFS embed.FS

var logics = map[string]engine.LogicFunc{
	"Counter":        counterLogic,
	"Greeting":       greetingLogic,
	"Progress":       progressLogic,
	"CircularSlider": sliderLogic,
}

var registry = mustLoad(specFS)

// mustLoad compiles every embedded spec and pairs it with its logic.
// A broken embedded spec is a build defect, so it panics.
func mustLoad(fsys fs.FS) map[string]engine.Module {
	specs, err := loadSpecs(fsys)
	if err != nil {
		panic(fmt.Sprintf("modules: %v", err))
	}

	out := make(map[string]engine.Module, len(specs))
	for _, spec := range specs {
		logic, ok := logics[spec.Name]
		if !ok {
			panic(fmt.Sprintf("modules: no logic for spec %s", spec.Name))
		}
		out[spec.Name] = engine.Module{Spec: *spec, Logic: logic}
	}
	for name := range logics {
		if _, ok := out[name]; !ok {
			panic(fmt.Sprintf("modules: no spec for logic %s", name))
		}
	}
	return out
}

func loadSpecs(fsys fs.FS) ([]*ir.ModuleSpec, error) {
	paths, err := fs.Glob(fsys, "specs/*.cue")
	if err != nil {
		return nil, err
	}

	var specs []*ir.ModuleSpec
	for _, path := range paths {
		src, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, err
		}
		compiled, errs := compiler.CompileSource(path, src)
		if len(errs) > 0 {
			return nil, fmt.Errorf("%s: %w", path, errs[0])
		}
		for _, spec := range compiled {
			if verrs := compiler.Validate(spec); len(verrs) > 0 {
				return nil, fmt.Errorf("%s: %s", path, verrs[0].Error())
			}
		}
		specs = append(specs, compiled...)
	}
	return specs, nil
}

// Lookup returns the built-in module with the given name, ignoring case.
func Lookup(name string) (engine.Module, bool) {
	if m, ok := registry[name]; ok {
		return m, true
	}
	for key, m := range registry {
		if strings.EqualFold(key, name) {
			return m, true
		}
	}
	return engine.Module{}, false
}

// Names returns the built-in module names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Specs returns the built-in descriptors in Names order.
func Specs() []ir.ModuleSpec {
	names := Names()
	out := make([]ir.ModuleSpec, len(names))
	for i, name := range names {
		out[i] = registry[name].Spec
	}
	return out
}
