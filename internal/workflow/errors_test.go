package workflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{NotFound("plot not found"), KindNotFound},
		{Conflict("plot already occupied"), KindConflict},
		{Conflictf("reservation is %s, not approved", "pending"), KindConflict},
		{Forbidden("only the holder may upload a receipt"), KindForbidden},
		{InvalidInput("deceased name is required"), KindInvalidInput},
		{errors.New("driver: bad connection"), KindUnknown},
		{nil, KindUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, KindOf(c.err), "error %v", c.err)
	}
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("approving reservation: %w", Conflict("payment not approved"))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "payment not approved")
}
