package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/TopChef/TopChefClient/apperrors"
)

// LocalStrategy evaluates JSON Schema in-process, without a round trip to
// the server. Useful for offline workers and for servers whose validator
// endpoint is disabled.
type LocalStrategy struct{}

// NewLocalStrategy creates an in-process validation strategy.
func NewLocalStrategy() *LocalStrategy {
	return &LocalStrategy{}
}

// Matches compiles schema and evaluates instance against it. A schema that
// cannot be compiled is a validation error, not a mismatch.
func (s *LocalStrategy) Matches(ctx context.Context, instance, schema any) (bool, error) {
	schemaDoc, err := normalize(schema)
	if err != nil {
		return false, apperrors.Validation(fmt.Sprintf("schema is not valid JSON: %v", err), "")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", schemaDoc); err != nil {
		return false, apperrors.Validation(fmt.Sprintf("could not load schema: %v", err), "")
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return false, apperrors.Validation(fmt.Sprintf("could not compile schema: %v", err), "")
	}

	instanceDoc, err := normalize(instance)
	if err != nil {
		return false, apperrors.Validation(fmt.Sprintf("instance is not valid JSON: %v", err), "")
	}

	if err := compiled.Validate(instanceDoc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return false, nil
		}
		return false, apperrors.Validation(err.Error(), "")
	}
	return true, nil
}

// normalize round-trips a value through JSON so numbers and maps take the
// representation the compiler expects.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

var _ Strategy = (*LocalStrategy)(nil)
