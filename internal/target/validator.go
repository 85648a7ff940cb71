package target

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource []byte

// ValidationError reports a catalog that does not match the schema.
type ValidationError struct {
	// Details is the CUE error output, one problem per line.
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "catalog validation failed:\n" + e.Details
}

// Validator checks catalog documents against the embedded CUE schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}

	def := schema.LookupPath(cue.ParsePath("#Catalog"))
	if !def.Exists() {
		return nil, fmt.Errorf("schema has no #Catalog definition")
	}

	return &Validator{ctx: ctx, schema: def}, nil
}

// Validate unifies the decoded catalog with #Catalog.
func (v *Validator) Validate(f *file) error {
	value := v.ctx.Encode(f)
	if value.Err() != nil {
		return fmt.Errorf("encoding catalog: %w", value.Err())
	}

	unified := v.schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Details: cueerrors.Details(err, nil)}
	}
	return nil
}
