package bolts

import (
	"context"

	"oer-preproc/pkg/bolt"
	"oer-preproc/pkg/schema"
)

// Validate checks a material against the declarative material schema and
// routes it accordingly. The stage mutates nothing: a failing material is
// diverted as-is, keeping whatever failure message an upstream stage may
// already have set.
type Validate struct {
	bolt.Base
	validator *schema.Validator
	schema    *schema.Schema
}

// NewValidate creates the validation stage. A nil schema selects the
// material schema.
func NewValidate(validator *schema.Validator, s *schema.Schema) *Validate {
	if validator == nil {
		validator = schema.NewValidator()
	}
	if s == nil {
		s = schema.MaterialSchema()
	}
	return &Validate{validator: validator, schema: s}
}

// Process routes the material by schema pass/fail, without mutation.
func (v *Validate) Process(ctx context.Context, env bolt.Envelope) (bolt.Emission, error) {
	if v.validator.ValidateStruct(env.Material, v.schema) {
		return bolt.Main(env.Material), nil
	}
	return bolt.Partial(env.Material), nil
}
