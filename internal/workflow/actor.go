package workflow

// Role is the caller's resolved role, supplied by the auth middleware.
// The workflow layer trusts the value; it performs no token handling.
type Role string

const (
	RoleVisitor Role = "VISITOR"
	RoleStaff   Role = "STAFF"
	RoleAdmin   Role = "ADMIN"
)

// Capability names a single operation class the facade can gate on.
// Each facade operation requires exactly one capability, checked once at
// the boundary instead of per-field branching inside the managers.
type Capability string

const (
	CapReservePlot       Capability = "reserve_plot"
	CapUploadReceipt     Capability = "upload_receipt"
	CapCancelReservation Capability = "cancel_reservation"
	CapSubmitRequest     Capability = "submit_request"
	CapValidatePayment   Capability = "validate_payment"
	CapApprovePayment    Capability = "approve_payment"
	CapReviewReservation Capability = "review_reservation"
	CapConfirmBurial     Capability = "confirm_burial"
	CapCreateBurial      Capability = "create_burial_record"
	CapEditBurial        Capability = "edit_burial_record"
	CapDeleteBurial      Capability = "delete_burial_record"
	CapManagePlots       Capability = "manage_plots"
	CapReviewRequests    Capability = "review_requests"
)

// grants is the full role/capability matrix.  Visitors act on their own
// claims, staff handle day-to-day registry work, admins gate everything
// that changes who owns a plot.
var grants = map[Role]map[Capability]bool{
	RoleVisitor: {
		CapReservePlot:       true,
		CapUploadReceipt:     true,
		CapCancelReservation: true,
		CapSubmitRequest:     true,
	},
	RoleStaff: {
		CapCancelReservation: true,
		CapSubmitRequest:     true,
		CapCreateBurial:      true,
		CapReviewRequests:    true,
	},
	RoleAdmin: {
		CapReservePlot:       true,
		CapUploadReceipt:     true,
		CapCancelReservation: true,
		CapSubmitRequest:     true,
		CapValidatePayment:   true,
		CapApprovePayment:    true,
		CapReviewReservation: true,
		CapConfirmBurial:     true,
		CapCreateBurial:      true,
		CapEditBurial:        true,
		CapDeleteBurial:      true,
		CapManagePlots:       true,
		CapReviewRequests:    true,
	},
}

// Actor is the caller identity resolved by the HTTP auth layer: a user
// id plus a role.  Ownership checks inside the managers use the
// ID; capability checks at the facade use the Role.
type Actor struct {
	ID   uint64
	Role Role
}

// Can reports whether the actor's role grants the capability.
func (a Actor) Can(c Capability) bool {
	return grants[a.Role][c]
}

// Require returns a Forbidden error naming the missing capability.
func (a Actor) Require(c Capability) error {
	if a.Can(c) {
		return nil
	}
	return Forbidden("operation requires capability " + string(c))
}
