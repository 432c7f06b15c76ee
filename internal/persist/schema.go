package persist

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed cart.cue
var cartSchemaSrc string

// Schema validates raw durable payloads against the #Cart definition.
//
// Thread-safety: a cue.Context is not safe for concurrent use, so Validate
// serializes callers.
type Schema struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// NewSchema compiles the embedded #Cart schema.
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(cartSchemaSrc, cue.Filename("cart.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile cart schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Cart"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Cart: %w", err)
	}
	return &Schema{ctx: ctx, schema: def}, nil
}

// Validate checks that data is a concrete #Cart.
// JSON is valid CUE, so the payload is compiled directly and unified with
// the definition.
func (s *Schema) Validate(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.ctx.CompileBytes(data, cue.Filename("payload.json"))
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile payload: %w", firstError(err))
	}
	if err := s.schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate payload: %w", firstError(err))
	}
	return nil
}

// firstError keeps only the first of possibly many CUE errors.
func firstError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	return errs[0]
}
