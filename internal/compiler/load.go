// Package compiler turns authored documents into canonical values and
// schema IR.
//
// CUE, YAML, JSON and JSON-with-comments sources are all loaded into a CUE
// value first, so every compile error carries a file:line:column position
// regardless of the input format.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"github.com/tidwall/jsonc"
)

// Format is a source document format.
type Format int

const (
	FormatCUE Format = iota
	FormatYAML
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatCUE:
		return "cue"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf picks the format from a file extension. JSON files may carry
// comments and trailing commas.
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	}
	return 0, &CompileError{Field: "source", Message: fmt.Sprintf("unsupported file extension %q", filepath.Ext(filename))}
}

// LoadFile reads and loads a source document.
func LoadFile(path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, err
	}
	return Load(path, data)
}

// Load builds a CUE value from a document. The filename selects the format
// and labels error positions.
func Load(filename string, data []byte) (cue.Value, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return cue.Value{}, err
	}

	ctx := cuecontext.New()
	var v cue.Value
	switch format {
	case FormatCUE:
		v = ctx.CompileBytes(data, cue.Filename(filename))
	case FormatJSON:
		// ToJSON blanks comments in place, so offsets still match the file.
		v = ctx.CompileBytes(jsonc.ToJSON(data), cue.Filename(filename))
	case FormatYAML:
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return cue.Value{}, formatCUEError(err)
		}
		v = ctx.BuildFile(f)
	}
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// CompileError is a compile failure at a source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }

func errorAt(v cue.Value, err error, format string, args ...any) *CompileError {
	field := v.Path().String()
	if field == "" {
		field = "$"
	}
	return &CompileError{Field: field, Message: fmt.Sprintf(format, args...), Pos: v.Pos(), Err: err}
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
			Err:     err,
		}
	}
	return err
}
