package workflow

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
)

// ReservationManager owns the reservation lifecycle and its payment
// sub-workflow.  The flow is lock-on-create, applied uniformly: a
// pending reservation immediately claims the plot, so the "at most one
// active reservation per plot" invariant is enforced at a single point,
// inside the plot lock at creation.  Every precondition is re-validated
// under the lock; nothing checked outside it is trusted.
type ReservationManager struct {
	coord        *Coordinator
	reservations *repository.ReservationRepo
}

// NewReservationManager wires the manager to the coordinator and its repo.
func NewReservationManager(coord *Coordinator, reservations *repository.ReservationRepo) *ReservationManager {
	if coord == nil || reservations == nil {
		panic("nil dependency passed to NewReservationManager")
	}
	return &ReservationManager{coord: coord, reservations: reservations}
}

// Create claims an available plot for the holder.  Conflicts: plot
// occupied, plot under maintenance, any active reservation on the plot
// (including the holder's own).  On success the plot moves to reserved
// within the same transaction.
func (m *ReservationManager) Create(ctx context.Context, holderID, plotID uint64, notes string) (*model.Reservation, error) {
	notes = strings.TrimSpace(notes)
	var out *model.Reservation
	err := m.coord.WithLockedPlot(ctx, plotID, func(tx *sql.Tx, plot *model.Plot) error {
		if plot.Status == model.PlotOccupied {
			return Conflict("plot already occupied")
		}
		if plot.Maintenance {
			return Conflict("plot closed for maintenance")
		}
		mine, err := m.reservations.ActiveByPlotAndHolderTx(ctx, tx, plotID, holderID)
		if err != nil {
			return err
		}
		if mine {
			return Conflict("you already hold an active reservation on this plot")
		}
		active, err := m.reservations.CountActiveByPlotTx(ctx, tx, plotID)
		if err != nil {
			return err
		}
		if active > 0 {
			return Conflict("plot already reserved")
		}
		res := &model.Reservation{
			PlotID:        plotID,
			HolderID:      holderID,
			Status:        model.ReservationPending,
			PaymentStatus: model.PaymentUnpaid,
			Notes:         notes,
		}
		if err := m.reservations.CreateTx(ctx, tx, res); err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// UploadPaymentProof attaches (or replaces) the holder's payment receipt
// and moves the payment to submitted.  Only the holder may upload, and
// only while the reservation is live and the payment not yet approved.
func (m *ReservationManager) UploadPaymentProof(ctx context.Context, holderID, reservationID uint64, assetRef string) (*model.Reservation, error) {
	assetRef = strings.TrimSpace(assetRef)
	if assetRef == "" {
		return nil, InvalidInput("payment receipt reference is required")
	}
	return m.update(ctx, reservationID, func(tx *sql.Tx, plot *model.Plot, res *model.Reservation) error {
		if res.HolderID != holderID {
			return Forbidden("reservation belongs to another holder")
		}
		if !res.CanUploadProof() {
			if res.PaymentStatus == model.PaymentApproved {
				return Conflict("payment already approved")
			}
			return Conflict("reservation is closed")
		}
		return m.reservations.UpdatePaymentTx(ctx, tx, res.ID, model.PaymentSubmitted, &assetRef)
	})
}

// ValidatePayment marks the stored proof as checked by a validator.
func (m *ReservationManager) ValidatePayment(ctx context.Context, reservationID uint64) (*model.Reservation, error) {
	return m.update(ctx, reservationID, func(tx *sql.Tx, plot *model.Plot, res *model.Reservation) error {
		if !res.CanValidatePayment() {
			if res.PaymentReceiptRef == nil {
				return Conflict("no payment proof uploaded")
			}
			return Conflict("payment cannot be validated in its current state")
		}
		return m.reservations.UpdatePaymentTx(ctx, tx, res.ID, model.PaymentValidated, res.PaymentReceiptRef)
	})
}

// ApprovePayment finalizes the payment sub-workflow.  A stored proof in
// the submitted or validated state is required.
func (m *ReservationManager) ApprovePayment(ctx context.Context, reservationID uint64) (*model.Reservation, error) {
	return m.update(ctx, reservationID, func(tx *sql.Tx, plot *model.Plot, res *model.Reservation) error {
		if !res.CanApprovePayment() {
			if res.PaymentReceiptRef == nil {
				return Conflict("no payment proof uploaded")
			}
			return Conflict("payment cannot be approved in its current state")
		}
		return m.reservations.UpdatePaymentTx(ctx, tx, res.ID, model.PaymentApproved, res.PaymentReceiptRef)
	})
}

// RejectPayment sends the proof back to the holder.  The reservation
// stays pending so a corrected receipt can be uploaded.
func (m *ReservationManager) RejectPayment(ctx context.Context, reservationID uint64) (*model.Reservation, error) {
	return m.update(ctx, reservationID, func(tx *sql.Tx, plot *model.Plot, res *model.Reservation) error {
		if res.Status.Terminal() {
			return Conflict("reservation is closed")
		}
		if res.PaymentReceiptRef == nil {
			return Conflict("no payment proof uploaded")
		}
		if res.PaymentStatus == model.PaymentApproved {
			return Conflict("payment already approved")
		}
		return m.reservations.UpdatePaymentTx(ctx, tx, res.ID, model.PaymentRejected, res.PaymentReceiptRef)
	})
}

// Approve moves a pending reservation to approved.  Requires an approved
// payment and a plot that has not become occupied since the reservation
// was created.  Any other pending reservation on the plot is rejected in
// the same transaction; under lock-on-create that sweep normally finds
// nothing, but an approval must never leave a competing claim alive.
func (m *ReservationManager) Approve(ctx context.Context, reservationID uint64) (*model.Reservation, error) {
	return m.update(ctx, reservationID, func(tx *sql.Tx, plot *model.Plot, res *model.Reservation) error {
		if res.Status != model.ReservationPending {
			return Conflictf("reservation is %s, not pending", res.Status)
		}
		if res.PaymentStatus != model.PaymentApproved {
			return Conflict("payment not approved")
		}
		if plot.Status == model.PlotOccupied {
			return Conflict("plot already occupied")
		}
		if err := m.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationApproved); err != nil {
			return err
		}
		_, err := m.reservations.RejectOtherPendingTx(ctx, tx, res.PlotID, res.ID)
		return err
	})
}

// Reject closes a pending reservation.  The plot is released back to
// available by the coordinator's recompute unless something else still
// claims it.
func (m *ReservationManager) Reject(ctx context.Context, reservationID uint64) (*model.Reservation, error) {
	return m.update(ctx, reservationID, func(tx *sql.Tx, plot *model.Plot, res *model.Reservation) error {
		if res.Status != model.ReservationPending {
			return Conflictf("reservation is %s, not pending", res.Status)
		}
		return m.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationRejected)
	})
}

// Cancel withdraws a pending or approved reservation.  Holders cancel
// their own; admins may cancel any.
func (m *ReservationManager) Cancel(ctx context.Context, actor Actor, reservationID uint64) (*model.Reservation, error) {
	return m.update(ctx, reservationID, func(tx *sql.Tx, plot *model.Plot, res *model.Reservation) error {
		if res.HolderID != actor.ID && actor.Role != RoleAdmin {
			return Forbidden("reservation belongs to another holder")
		}
		if !res.CanCancel() {
			return Conflictf("reservation is %s and can no longer be cancelled", res.Status)
		}
		return m.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationCancelled)
	})
}

// update is the shared skeleton for reservation mutations: resolve the
// plot from an unlocked read, take the plot lock, re-read the
// reservation authoritatively, apply fn, and return the fresh row.  The
// coordinator recomputes the plot status on the way out.
func (m *ReservationManager) update(ctx context.Context, reservationID uint64, fn func(tx *sql.Tx, plot *model.Plot, res *model.Reservation) error) (*model.Reservation, error) {
	probe, err := m.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, NotFound("reservation not found")
		}
		return nil, err
	}
	var out *model.Reservation
	err = m.coord.WithLockedPlot(ctx, probe.PlotID, func(tx *sql.Tx, plot *model.Plot) error {
		res, err := m.reservations.GetByIDTx(ctx, tx, reservationID)
		if err != nil {
			if errors.Is(err, repository.ErrReservationNotFound) {
				return NotFound("reservation not found")
			}
			return err
		}
		if err := fn(tx, plot, res); err != nil {
			return err
		}
		out, err = m.reservations.GetByIDTx(ctx, tx, reservationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
