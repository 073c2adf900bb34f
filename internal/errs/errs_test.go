package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/handoff/internal/errs"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", errs.ErrorTransient.String())
	assert.Equal(t, "invalid", errs.ErrorInvalid.String())
	assert.Equal(t, "fatal", errs.ErrorFatal.String())
	assert.Equal(t, "unknown", errs.ErrorClass(99).String())
}

func TestWrap_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		invalid   bool
		fatal     bool
		transient bool
	}{
		{"invalid", errs.WrapInvalid(errs.ErrInvalidCapacity, "ring", "New", "capacity 3"), true, false, false},
		{"fatal", errs.WrapFatal(errs.ErrAllocationFailure, "ring", "New", ""), false, true, false},
		{"transient", errs.WrapTransient(errs.ErrMetricsRegistration, "handoff", "New", ""), false, false, true},
		{"bare sentinel invalid", errs.ErrUnsupportedElementType, true, false, false},
		{"bare sentinel fatal", errs.ErrAllocationFailure, false, true, false},
		{"wrapped with fmt", fmt.Errorf("outer: %w", errs.WrapInvalid(errs.ErrNotCloneable, "handoff", "Clone", "")), true, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.invalid, errs.IsInvalid(tc.err))
			assert.Equal(t, tc.fatal, errs.IsFatal(tc.err))
			assert.Equal(t, tc.transient, errs.IsTransient(tc.err))
		})
	}
}

func TestClassifiedError_UnwrapAndMessage(t *testing.T) {
	err := errs.WrapInvalid(errs.ErrInvalidCapacity, "ring", "New", "capacity 6 is not a power of two")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrInvalidCapacity))
	assert.Equal(t, "ring.New: capacity 6 is not a power of two: invalid capacity", err.Error())

	var ce *errs.ClassifiedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "ring", ce.Component)
	assert.Equal(t, "New", ce.Operation)

	bare := errs.WrapFatal(errs.ErrAllocationFailure, "ring", "New", "")
	assert.Equal(t, "ring.New: allocation failure", bare.Error())
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, errs.WrapInvalid(nil, "x", "y", "z"))
	assert.False(t, errs.IsInvalid(nil))
	assert.False(t, errs.IsFatal(nil))
	assert.False(t, errs.IsTransient(nil))
}
