// Package schema gates job parameters and results against JSON Schema.
package schema

import (
	"context"

	"github.com/TopChef/TopChefClient/api"
	"github.com/TopChef/TopChefClient/apperrors"
)

// Strategy decides whether an instance matches a schema. A definitive
// no-match is (false, nil); errors are reserved for comparisons that could
// not be carried out.
type Strategy interface {
	Matches(ctx context.Context, instance, schema any) (bool, error)
}

// Validator turns a strategy's match decision into the processing-error
// contract the worker relies on. It never mutates instance or schema.
type Validator struct {
	strategy Strategy
}

// NewValidator creates a validator backed by the given strategy.
func NewValidator(strategy Strategy) *Validator {
	return &Validator{strategy: strategy}
}

// AssertMatches returns nil when instance matches schema, a processing error
// on a definitive mismatch, and the strategy's own error otherwise.
func (v *Validator) AssertMatches(ctx context.Context, instance, schema any) error {
	match, err := v.strategy.Matches(ctx, instance, schema)
	if err != nil {
		return err
	}
	if !match {
		return apperrors.Processing("instance does not match schema")
	}
	return nil
}

// RemoteStrategy delegates the match decision to the server's validator
// endpoint. This is the default strategy.
type RemoteStrategy struct {
	gateway api.Gateway
}

// NewRemoteStrategy creates a strategy backed by the server's validator.
func NewRemoteStrategy(gateway api.Gateway) *RemoteStrategy {
	return &RemoteStrategy{gateway: gateway}
}

// Matches asks the server for a verdict. Gateway network errors propagate
// unchanged.
func (s *RemoteStrategy) Matches(ctx context.Context, instance, schema any) (bool, error) {
	return s.gateway.Validate(ctx, instance, schema)
}

// Verify strategies satisfy the seam
var _ Strategy = (*RemoteStrategy)(nil)
