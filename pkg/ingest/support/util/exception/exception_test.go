package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/surfin-flow/pkg/ingest/support/util/exception"
)

func TestNewConfigurationError(t *testing.T) {
	cause := errors.New("yaml: line 3")
	ce := exception.NewConfigurationError("config", "failed to unmarshal", cause)

	assert.Equal(t, "config", ce.Module)
	assert.Equal(t, exception.KindConfiguration, ce.Kind)
	assert.Equal(t, cause, ce.Unwrap())
	assert.Equal(t, "[config] ConfigurationError: failed to unmarshal: yaml: line 3", ce.Error())
	assert.True(t, exception.IsConfigurationError(ce))
	assert.False(t, exception.IsValidationError(ce))
}

func TestNewConfigurationErrorf(t *testing.T) {
	// Plain format arguments.
	ce1 := exception.NewConfigurationErrorf("pack", "unrecognized weight class '%s'", "ultra")
	assert.Equal(t, "unrecognized weight class 'ultra'", ce1.Message)
	assert.Nil(t, ce1.Unwrap())

	// A trailing error becomes the cause.
	cause := errors.New("bad code")
	ce2 := exception.NewConfigurationErrorf("classify", "job '%s'", "sales.orders@dev", cause)
	assert.Equal(t, "job 'sales.orders@dev'", ce2.Message)
	assert.Equal(t, cause, ce2.Unwrap())
	assert.True(t, errors.Is(ce2, cause))
}

func TestNewValidationError_SortsAllowed(t *testing.T) {
	ve := exception.NewValidationError("predicate", "check column 'x' not found", []string{"updated_at", "id", "name"})

	assert.Equal(t, []string{"id", "name", "updated_at"}, ve.Allowed)
	assert.Equal(t, "[predicate] ValidationError: check column 'x' not found (valid values: id, name, updated_at)", ve.Error())
	assert.True(t, exception.IsValidationError(ve))
	assert.False(t, exception.IsConfigurationError(ve))
}

func TestKindMatching_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", exception.NewConfigurationError("chunk", "max < 1", nil))

	assert.True(t, exception.IsConfigurationError(wrapped))
	assert.True(t, errors.Is(wrapped, exception.ErrConfiguration))
	assert.False(t, errors.Is(wrapped, exception.ErrValidation))
	assert.False(t, exception.IsConfigurationError(nil))
	assert.False(t, exception.IsValidationError(errors.New("plain")))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.Equal(t, "plain", exception.ExtractErrorMessage(errors.New("plain")))

	wrapped := fmt.Errorf("ctx: %w", exception.NewConfigurationError("sequence", "no pipelines", nil))
	assert.Equal(t, "no pipelines", exception.ExtractErrorMessage(wrapped))
}
