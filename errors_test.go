package subwave_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/subwave"
)

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		err        error
		notFound   bool
		validation bool
		state      bool
		retryable  bool
	}{
		{subwave.ErrNotFound, true, false, false, false},
		{fmt.Errorf("get config: %w", subwave.ErrNotFound), true, false, false, false},
		{subwave.ErrInvalidPrice, false, true, false, false},
		{&subwave.ValidationError{Field: "interval_days", Err: subwave.ErrInvalidInterval}, false, true, false, false},
		{subwave.ErrProductNameTooLong, false, true, false, false},
		{&subwave.ValidationError{Field: "token_mint", Err: subwave.ErrZeroAddress}, false, true, false, false},
		{subwave.ErrSubscriptionInactive, false, false, true, false},
		{subwave.ErrSubscriptionAlreadyCanceled, false, false, true, false},
		{fmt.Errorf("%w: card declined", subwave.ErrPaymentFailed), false, false, false, true},
		{subwave.ErrStoreBusy, false, false, false, true},
		{subwave.ErrUnauthorized, false, false, false, false},
		{errors.New("boom"), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.notFound, subwave.IsNotFound(tt.err))
			assert.Equal(t, tt.validation, subwave.IsValidation(tt.err))
			assert.Equal(t, tt.state, subwave.IsState(tt.err))
			assert.Equal(t, tt.retryable, subwave.IsRetryable(tt.err))
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &subwave.ValidationError{Field: "price", Err: subwave.ErrInvalidPrice}
	assert.Contains(t, err.Error(), "price")
	assert.ErrorIs(t, err, subwave.ErrInvalidPrice)
}
