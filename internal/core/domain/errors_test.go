package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrCancelled", ErrCancelled},
		{"ErrMissingCredential", ErrMissingCredential},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrRepositoryUnavailable", ErrRepositoryUnavailable},
		{"ErrNoCriteria", ErrNoCriteria},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Uniqueness tests that no two domain errors match each other
func TestErrors_Uniqueness(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrCancelled, ErrMissingCredential,
		ErrLLMUnavailable, ErrRepositoryUnavailable, ErrNoCriteria, ErrRateLimited,
	}

	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestErrors_WithWrapping(t *testing.T) {
	wrapped := fmt.Errorf("ngsearch: %w", ErrRateLimited)

	assert.ErrorIs(t, wrapped, ErrRateLimited)
	assert.Equal(t, "ngsearch: rate limited", wrapped.Error())
}

func TestCancelled(t *testing.T) {
	t.Run("nil cause", func(t *testing.T) {
		assert.Equal(t, ErrCancelled, Cancelled(nil))
	})

	t.Run("keeps cause", func(t *testing.T) {
		err := Cancelled(context.Canceled)

		assert.ErrorIs(t, err, ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestContextError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCancelled bool
	}{
		{"canceled", context.Canceled, true},
		{"wrapped canceled", fmt.Errorf("send: %w", context.Canceled), true},
		{"deadline", context.DeadlineExceeded, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ContextError(tt.err)
			assert.Equal(t, tt.wantCancelled, errors.Is(err, ErrCancelled))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrCancelled))
	assert.True(t, IsCancelled(context.Canceled))
	assert.True(t, IsCancelled(fmt.Errorf("batch: %w", Cancelled(nil))))
	assert.False(t, IsCancelled(context.DeadlineExceeded))
	assert.False(t, IsCancelled(nil))
	assert.False(t, IsCancelled(ErrRateLimited))
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "parse",
			err:  &ValidationError{Kind: ValidationParse, Message: "no JSON object found"},
			want: "parse error: no JSON object found",
		},
		{
			name: "schema with issues",
			err: &ValidationError{
				Kind:    ValidationSchema,
				Message: "template does not match schema",
				Issues: []FieldIssue{
					{Path: "environments", Message: "required"},
					{Path: "metadata.title", Message: "must be a string"},
				},
			},
			want: "schema error: template does not match schema " +
				"(environments: required; metadata.title: must be a string)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestValidationError_IsInvalidInput(t *testing.T) {
	var err error = &ValidationError{Kind: ValidationSchema, Message: "bad"}

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, errors.Is(err, ErrNotFound))

	var target *ValidationError
	assert.True(t, errors.As(fmt.Errorf("complete: %w", err), &target))
	assert.Equal(t, ValidationSchema, target.Kind)
}
