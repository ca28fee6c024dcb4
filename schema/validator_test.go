package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TopChef/TopChefClient/apperrors"
)

// stubStrategy reports a fixed verdict.
type stubStrategy struct {
	match bool
	err   error
	calls int
}

func (s *stubStrategy) Matches(ctx context.Context, instance, schema any) (bool, error) {
	s.calls++
	return s.match, s.err
}

func TestAssertMatchesSuccess(t *testing.T) {
	t.Parallel()
	strategy := &stubStrategy{match: true}
	v := NewValidator(strategy)

	err := v.AssertMatches(context.Background(),
		map[string]any{"value": 5},
		map[string]any{"type": "object"},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, strategy.calls)
}

func TestAssertMatchesMismatch(t *testing.T) {
	t.Parallel()
	v := NewValidator(&stubStrategy{match: false})

	err := v.AssertMatches(context.Background(), "anything", map[string]any{"type": "object"})
	require.ErrorIs(t, err, apperrors.ErrProcessing)
	assert.Contains(t, err.Error(), "does not match")
}

func TestAssertMatchesStrategyError(t *testing.T) {
	t.Parallel()
	netErr := apperrors.Network("http://host/validator", 503)
	v := NewValidator(&stubStrategy{err: netErr})

	err := v.AssertMatches(context.Background(), nil, nil)
	require.ErrorIs(t, err, apperrors.ErrNetwork)
	assert.NotErrorIs(t, err, apperrors.ErrProcessing)
}

func TestLocalStrategy(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{"type": "integer"},
		},
		"required": []any{"value"},
	}

	tests := []struct {
		name      string
		instance  any
		wantMatch bool
	}{
		{"valid instance", map[string]any{"value": 5}, true},
		{"wrong type", map[string]any{"value": "five"}, false},
		{"missing field", map[string]any{}, false},
	}

	strategy := NewLocalStrategy()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			match, err := strategy.Matches(context.Background(), tt.instance, schema)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatch, match)
		})
	}
}

func TestLocalStrategyBadSchema(t *testing.T) {
	t.Parallel()
	strategy := NewLocalStrategy()

	_, err := strategy.Matches(context.Background(),
		map[string]any{"value": 5},
		map[string]any{"type": 42},
	)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLocalStrategyWithValidator(t *testing.T) {
	t.Parallel()
	v := NewValidator(NewLocalStrategy())

	err := v.AssertMatches(context.Background(),
		map[string]any{"value": "not an integer"},
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"value": map[string]any{"type": "integer"},
			},
		},
	)
	require.ErrorIs(t, err, apperrors.ErrProcessing)
}
