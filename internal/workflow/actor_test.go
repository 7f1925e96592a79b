package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilityMatrix(t *testing.T) {
	visitor := Actor{ID: 1, Role: RoleVisitor}
	staff := Actor{ID: 2, Role: RoleStaff}
	admin := Actor{ID: 3, Role: RoleAdmin}

	assert.True(t, visitor.Can(CapReservePlot))
	assert.True(t, visitor.Can(CapUploadReceipt))
	assert.True(t, visitor.Can(CapCancelReservation))
	assert.False(t, visitor.Can(CapApprovePayment))
	assert.False(t, visitor.Can(CapCreateBurial))
	assert.False(t, visitor.Can(CapManagePlots))

	assert.True(t, staff.Can(CapCreateBurial))
	assert.True(t, staff.Can(CapReviewRequests))
	assert.False(t, staff.Can(CapReservePlot))
	assert.False(t, staff.Can(CapConfirmBurial))
	assert.False(t, staff.Can(CapDeleteBurial))

	// Admins hold every capability.
	for _, c := range []Capability{
		CapReservePlot, CapUploadReceipt, CapCancelReservation, CapSubmitRequest,
		CapValidatePayment, CapApprovePayment, CapReviewReservation,
		CapConfirmBurial, CapCreateBurial, CapEditBurial, CapDeleteBurial,
		CapManagePlots, CapReviewRequests,
	} {
		assert.True(t, admin.Can(c), "admin should hold %s", c)
	}
}

func TestRequireNamesTheCapability(t *testing.T) {
	visitor := Actor{ID: 1, Role: RoleVisitor}

	require.NoError(t, visitor.Require(CapReservePlot))

	err := visitor.Require(CapApprovePayment)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Contains(t, err.Error(), string(CapApprovePayment))
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	nobody := Actor{ID: 9, Role: Role("AUDITOR")}
	assert.False(t, nobody.Can(CapSubmitRequest))
	assert.Error(t, nobody.Require(CapSubmitRequest))
}
