package workflow

import (
	"context"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
)

// Facade is the single entry point the HTTP handlers call into.  Every
// operation takes the acting user and checks the required capability
// before delegating to a manager, so authorization lives in one place
// and the managers can assume an authorized caller.
type Facade struct {
	Plots        *PlotManager
	Reservations *ReservationManager
	Burials      *BurialManager
	Requests     *RequestManager
}

// NewFacade builds the full workflow stack over the repositories.
func NewFacade(coord *Coordinator, plots *repository.PlotRepo, reservations *repository.ReservationRepo, burials *repository.BurialRecordRepo, requests *repository.BurialRequestRepo) *Facade {
	rm := NewReservationManager(coord, reservations)
	return &Facade{
		Plots:        NewPlotManager(coord, plots),
		Reservations: rm,
		Burials:      NewBurialManager(coord, reservations, burials),
		Requests:     NewRequestManager(requests, plots, rm),
	}
}

// --- reservations ---

// CreateReservation places a pending reservation for the actor on the
// plot.  The plot is claimed immediately: once this returns, no other
// visitor can reserve it until the reservation leaves its active states.
func (f *Facade) CreateReservation(ctx context.Context, actor Actor, plotID uint64, notes string) (*model.Reservation, error) {
	if err := actor.Require(CapReservePlot); err != nil {
		return nil, err
	}
	return f.Reservations.Create(ctx, actor.ID, plotID, notes)
}

// UploadPaymentProof attaches a receipt to the actor's own reservation.
func (f *Facade) UploadPaymentProof(ctx context.Context, actor Actor, reservationID uint64, assetRef string) (*model.Reservation, error) {
	if err := actor.Require(CapUploadReceipt); err != nil {
		return nil, err
	}
	return f.Reservations.UploadPaymentProof(ctx, actor.ID, reservationID, assetRef)
}

// ValidatePayment marks an uploaded receipt as checked.
func (f *Facade) ValidatePayment(ctx context.Context, actor Actor, reservationID uint64) (*model.Reservation, error) {
	if err := actor.Require(CapValidatePayment); err != nil {
		return nil, err
	}
	return f.Reservations.ValidatePayment(ctx, reservationID)
}

// ApprovePayment accepts the payment behind a reservation.
func (f *Facade) ApprovePayment(ctx context.Context, actor Actor, reservationID uint64) (*model.Reservation, error) {
	if err := actor.Require(CapApprovePayment); err != nil {
		return nil, err
	}
	return f.Reservations.ApprovePayment(ctx, reservationID)
}

// RejectPayment marks the proof rejected; the holder can submit a new one.
func (f *Facade) RejectPayment(ctx context.Context, actor Actor, reservationID uint64) (*model.Reservation, error) {
	if err := actor.Require(CapApprovePayment); err != nil {
		return nil, err
	}
	return f.Reservations.RejectPayment(ctx, reservationID)
}

// ApproveReservation grants the plot to the reservation holder.
func (f *Facade) ApproveReservation(ctx context.Context, actor Actor, reservationID uint64) (*model.Reservation, error) {
	if err := actor.Require(CapReviewReservation); err != nil {
		return nil, err
	}
	return f.Reservations.Approve(ctx, reservationID)
}

// RejectReservation declines a pending reservation and frees the plot.
func (f *Facade) RejectReservation(ctx context.Context, actor Actor, reservationID uint64) (*model.Reservation, error) {
	if err := actor.Require(CapReviewReservation); err != nil {
		return nil, err
	}
	return f.Reservations.Reject(ctx, reservationID)
}

// CancelReservation withdraws a reservation.  Holders cancel their own;
// admins may cancel any.
func (f *Facade) CancelReservation(ctx context.Context, actor Actor, reservationID uint64) (*model.Reservation, error) {
	if err := actor.Require(CapCancelReservation); err != nil {
		return nil, err
	}
	return f.Reservations.Cancel(ctx, actor, reservationID)
}

// --- burial records ---

// CreateBurialRecord registers a burial directly on an unoccupied plot.
func (f *Facade) CreateBurialRecord(ctx context.Context, actor Actor, plotID uint64, in BurialInput) (*model.BurialRecord, error) {
	if err := actor.Require(CapCreateBurial); err != nil {
		return nil, err
	}
	return f.Burials.Create(ctx, plotID, in)
}

// ConfirmBurial converts an approved, paid reservation into a burial
// record, completing the reservation and occupying the plot atomically.
func (f *Facade) ConfirmBurial(ctx context.Context, actor Actor, reservationID uint64, in BurialInput) (*model.BurialRecord, error) {
	if err := actor.Require(CapConfirmBurial); err != nil {
		return nil, err
	}
	return f.Burials.ConfirmFromReservation(ctx, reservationID, in)
}

// EditBurialRecord updates a record, moving it between plots when the
// edit names a different plot.
func (f *Facade) EditBurialRecord(ctx context.Context, actor Actor, recordID uint64, edit BurialEdit) (*model.BurialRecord, error) {
	if err := actor.Require(CapEditBurial); err != nil {
		return nil, err
	}
	return f.Burials.Edit(ctx, recordID, edit)
}

// DeleteBurialRecord removes a record, releasing its plot when no other
// active record remains.
func (f *Facade) DeleteBurialRecord(ctx context.Context, actor Actor, recordID uint64) error {
	if err := actor.Require(CapDeleteBurial); err != nil {
		return err
	}
	return f.Burials.Delete(ctx, recordID)
}

// --- plots ---

// CreatePlot adds a plot to the inventory.
func (f *Facade) CreatePlot(ctx context.Context, actor Actor, in PlotInput) (*model.Plot, error) {
	if err := actor.Require(CapManagePlots); err != nil {
		return nil, err
	}
	return f.Plots.Create(ctx, in)
}

// UpdatePlot edits a plot's descriptive details.
func (f *Facade) UpdatePlot(ctx context.Context, actor Actor, plotID uint64, in PlotInput) (*model.Plot, error) {
	if err := actor.Require(CapManagePlots); err != nil {
		return nil, err
	}
	return f.Plots.Update(ctx, plotID, in)
}

// SetPlotMaintenance opens or closes a plot for maintenance.
func (f *Facade) SetPlotMaintenance(ctx context.Context, actor Actor, plotID uint64, on bool) (*model.Plot, error) {
	if err := actor.Require(CapManagePlots); err != nil {
		return nil, err
	}
	return f.Plots.SetMaintenance(ctx, plotID, on)
}

// DeletePlot removes a plot with no burial history.
func (f *Facade) DeletePlot(ctx context.Context, actor Actor, plotID uint64) error {
	if err := actor.Require(CapManagePlots); err != nil {
		return err
	}
	return f.Plots.Delete(ctx, plotID)
}

// --- requests ---

// SubmitRequest files a non-binding ticket for the actor.
func (f *Facade) SubmitRequest(ctx context.Context, actor Actor, in RequestInput) (*model.BurialRequest, error) {
	if err := actor.Require(CapSubmitRequest); err != nil {
		return nil, err
	}
	return f.Requests.Submit(ctx, actor.ID, in)
}

// CancelRequest withdraws a pending ticket.
func (f *Facade) CancelRequest(ctx context.Context, actor Actor, requestID uint64) (*model.BurialRequest, error) {
	if err := actor.Require(CapSubmitRequest); err != nil {
		return nil, err
	}
	return f.Requests.Cancel(ctx, actor, requestID)
}

// ConfirmRequest accepts a pending ticket.
func (f *Facade) ConfirmRequest(ctx context.Context, actor Actor, requestID uint64) (*model.BurialRequest, error) {
	if err := actor.Require(CapReviewRequests); err != nil {
		return nil, err
	}
	return f.Requests.Confirm(ctx, requestID)
}

// RejectRequest declines a pending ticket.
func (f *Facade) RejectRequest(ctx context.Context, actor Actor, requestID uint64) (*model.BurialRequest, error) {
	if err := actor.Require(CapReviewRequests); err != nil {
		return nil, err
	}
	return f.Requests.Reject(ctx, requestID)
}

// CompleteRequest closes a confirmed ticket.
func (f *Facade) CompleteRequest(ctx context.Context, actor Actor, requestID uint64) (*model.BurialRequest, error) {
	if err := actor.Require(CapReviewRequests); err != nil {
		return nil, err
	}
	return f.Requests.Complete(ctx, requestID)
}

// PromoteRequest turns a confirmed burial ticket into a reservation held
// by the original requester.
func (f *Facade) PromoteRequest(ctx context.Context, actor Actor, requestID uint64) (*model.Reservation, error) {
	if err := actor.Require(CapReviewRequests); err != nil {
		return nil, err
	}
	return f.Requests.PromoteToReservation(ctx, requestID)
}
