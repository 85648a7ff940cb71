package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource []byte

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// File is the config file, if known.
	File string

	// Details is the CUE error output, one problem per line.
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("config validation failed for %s:\n%s", e.File, e.Details)
	}
	return "config validation failed:\n" + e.Details
}

// Validator validates configuration against the embedded CUE schema.
// Unknown keys are rejected because #Config is closed.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator creates a new configuration validator.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if !def.Exists() {
		return nil, fmt.Errorf("schema has no #Config definition")
	}

	return &Validator{ctx: ctx, schema: def}, nil
}

// Validate checks YAML config content.
func (v *Validator) Validate(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &ValidationError{Details: err.Error()}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	value := v.ctx.Encode(doc)
	if value.Err() != nil {
		return fmt.Errorf("encoding config: %w", value.Err())
	}

	unified := v.schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Details: cueerrors.Details(err, nil)}
	}
	return nil
}

// ValidateFile validates a configuration file at the given path.
func (v *Validator) ValidateFile(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := v.Validate(data); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.File = expanded
		}
		return err
	}
	return nil
}
