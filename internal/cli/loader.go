package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/remod/internal/compiler"
	"github.com/roach88/remod/internal/ir"
)

// LoadResult contains the modules compiled from a directory.
type LoadResult struct {
	Modules   []*ir.ModuleSpec
	Files     map[string]string // module name -> file it was declared in
	FileCount int               // Number of CUE files found
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	File    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the error's source line, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadSpecs compiles every `module:` declared in the .cue files under dir.
// Each file is compiled on its own. A result is returned whenever the
// directory could be scanned; errs then holds one entry per file or
// module that failed to compile.
func LoadSpecs(dir string) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	result := &LoadResult{
		Files:     make(map[string]string),
		FileCount: len(cueFiles),
	}

	var errs []error
	for _, path := range cueFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), File: path})
			continue
		}

		specs, compileErrs := compiler.CompileSource(path, src)
		for _, cerr := range compileErrs {
			errs = append(errs, convertCompileError(cerr, path))
		}

		for _, spec := range specs {
			if prev, dup := result.Files[spec.Name]; dup {
				errs = append(errs, &LoadError{
					Code:    ErrCodeDuplicate,
					Message: fmt.Sprintf("module %s already declared in %s", spec.Name, prev),
					File:    path,
				})
				continue
			}
			result.Files[spec.Name] = path
			result.Modules = append(result.Modules, spec)
		}
	}

	if len(result.Modules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no modules found in specs"})
	}

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, file string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: err.Error(),
			File:    file,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: err.Error(),
		File:    file,
	}
}

// Error code constants - unified across all CLI commands.
// Descriptor validation uses the compiler's E2xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // File could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE syntax or evaluation error
	ErrCodeInvalidType = "E007" // Initial value not representable (e.g., float)
	ErrCodeDuplicate   = "E008" // Module declared twice

	ErrCodeUnknownModule = "E010" // drive: no built-in module with that name
	ErrCodeBadPush       = "E011" // drive: malformed --set
	ErrCodePushFailed    = "E012" // drive: a push returned a runtime error
	ErrCodeTestFailed    = "E_TEST_FAILED"
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeBuildFailed
	case "purpose":
		return compiler.ErrPurposeEmpty
	case "input", "pure_feedback", "output_feedback", "pure_output":
		return compiler.ErrChannelName
	}
	if strings.HasPrefix(field, "initial") {
		return ErrCodeInvalidType
	}
	return ErrCodeGeneric
}
