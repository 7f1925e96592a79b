package model

import "time"

// ReservationStatus enumerates the lifecycle states of a reservation.
// Once a reservation reaches rejected, cancelled or completed it is
// immutable.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationApproved  ReservationStatus = "approved"
	ReservationRejected  ReservationStatus = "rejected"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// Terminal reports whether the status is final.  Terminal reservations
// reject every further mutation, including receipt uploads.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationRejected, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

// Active reports whether the reservation still claims its plot.  At most
// one active reservation may exist per plot at any time.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationApproved
}

// PaymentStatus enumerates the payment sub-workflow states.  The happy
// path is unpaid -> submitted -> validated -> approved; a rejected proof
// returns the reservation to the submit step.
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentSubmitted PaymentStatus = "submitted"
	PaymentValidated PaymentStatus = "validated"
	PaymentApproved  PaymentStatus = "approved"
	PaymentRejected  PaymentStatus = "rejected"
)

// Reservation records a holder's claim on a plot pending payment and
// admin approval.  The reservation is the only path from an available
// plot to a burial record short of a direct admin override.
//
// Fields:
//  ID                – primary key identifier.
//  PlotID            – plot being claimed.
//  HolderID          – user who holds the claim.
//  Status            – lifecycle state (see ReservationStatus).
//  PaymentStatus     – payment sub-workflow state (see PaymentStatus).
//  PaymentReceiptRef – opaque reference to the uploaded payment proof.
//  Notes             – free-form notes supplied by the holder.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Reservation struct {
	ID                uint64            // reservations.id
	PlotID            uint64            // reservations.plot_id
	HolderID          uint64            // reservations.holder_id
	Status            ReservationStatus // reservations.status
	PaymentStatus     PaymentStatus     // reservations.payment_status
	PaymentReceiptRef *string           // reservations.payment_receipt_ref (nullable)
	Notes             string            // reservations.notes
	CreatedAt         time.Time         // reservations.created_at
	UpdatedAt         time.Time         // reservations.updated_at
}

// CanUploadProof reports whether a payment proof may be attached.  Uploads
// are allowed while the reservation is live and the payment has not been
// finally approved; re-uploading replaces the prior asset.
func (r *Reservation) CanUploadProof() bool {
	return !r.Status.Terminal() && r.PaymentStatus != PaymentApproved
}

// CanValidatePayment reports whether an admin may mark the stored proof
// as validated.  A proof must exist and the reservation must be live.
func (r *Reservation) CanValidatePayment() bool {
	return !r.Status.Terminal() && r.PaymentReceiptRef != nil &&
		(r.PaymentStatus == PaymentSubmitted || r.PaymentStatus == PaymentValidated)
}

// CanApprovePayment reports whether an admin may approve the payment.
// Approval requires a stored proof in the submitted or validated state.
func (r *Reservation) CanApprovePayment() bool {
	return !r.Status.Terminal() && r.PaymentReceiptRef != nil &&
		(r.PaymentStatus == PaymentSubmitted || r.PaymentStatus == PaymentValidated)
}

// CanCancel reports whether the holder may withdraw the reservation.
func (r *Reservation) CanCancel() bool {
	return r.Status == ReservationPending || r.Status == ReservationApproved
}
