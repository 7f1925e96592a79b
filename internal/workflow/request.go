package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
)

// RequestManager owns the visitor-facing request tickets.  A request
// never claims a plot; it is a low-stakes precursor that staff review
// and either reject or promote into the binding reservation flow.  The
// repo moves tickets between states with compare-and-set updates, so a
// staff member and a cancelling visitor racing on the same ticket
// resolve to exactly one winner without touching the plot lock.
type RequestManager struct {
	requests     *repository.BurialRequestRepo
	plots        *repository.PlotRepo
	reservations *ReservationManager
}

func NewRequestManager(requests *repository.BurialRequestRepo, plots *repository.PlotRepo, reservations *ReservationManager) *RequestManager {
	if requests == nil || plots == nil || reservations == nil {
		panic("nil dependency passed to NewRequestManager")
	}
	return &RequestManager{requests: requests, plots: plots, reservations: reservations}
}

// RequestInput carries a new ticket's details.
type RequestInput struct {
	PlotID      *uint64
	Kind        model.RequestKind
	SubjectName string
	Notes       string
}

// Submit files a new ticket for the requester.  A plot reference is
// optional; when given it must exist, but its status does not matter
// since a ticket claims nothing.
func (m *RequestManager) Submit(ctx context.Context, requesterID uint64, in RequestInput) (*model.BurialRequest, error) {
	in.SubjectName = strings.TrimSpace(in.SubjectName)
	if in.SubjectName == "" {
		return nil, InvalidInput("subject name is required")
	}
	if in.Kind != model.RequestBurial && in.Kind != model.RequestMaintenance {
		return nil, InvalidInput("request kind must be burial or maintenance")
	}
	if in.PlotID != nil {
		if _, err := m.plots.GetByID(ctx, *in.PlotID); err != nil {
			if errors.Is(err, repository.ErrPlotNotFound) {
				return nil, NotFound("plot not found")
			}
			return nil, err
		}
	}
	req := &model.BurialRequest{
		PlotID:      in.PlotID,
		RequesterID: requesterID,
		Kind:        in.Kind,
		Status:      model.RequestPending,
		SubjectName: in.SubjectName,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := m.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Cancel withdraws a pending ticket.  Only the requester (or an admin)
// may cancel, and only while the ticket is still pending.
func (m *RequestManager) Cancel(ctx context.Context, actor Actor, requestID uint64) (*model.BurialRequest, error) {
	req, err := m.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != actor.ID && actor.Role != RoleAdmin {
		return nil, Forbidden("only the requester may cancel this request")
	}
	return m.transition(ctx, requestID, model.RequestPending, model.RequestCancelled)
}

// Confirm accepts a pending ticket for follow-up work.
func (m *RequestManager) Confirm(ctx context.Context, requestID uint64) (*model.BurialRequest, error) {
	return m.transition(ctx, requestID, model.RequestPending, model.RequestConfirmed)
}

// Reject declines a pending ticket.
func (m *RequestManager) Reject(ctx context.Context, requestID uint64) (*model.BurialRequest, error) {
	return m.transition(ctx, requestID, model.RequestPending, model.RequestRejected)
}

// Complete closes a confirmed ticket once the underlying work is done.
func (m *RequestManager) Complete(ctx context.Context, requestID uint64) (*model.BurialRequest, error) {
	return m.transition(ctx, requestID, model.RequestConfirmed, model.RequestCompleted)
}

// PromoteToReservation turns a confirmed burial ticket into a binding
// reservation on its plot, held by the original requester.  The ticket
// must name a plot; the reservation create performs the usual contention
// checks under the plot lock, and on success the ticket completes.
func (m *RequestManager) PromoteToReservation(ctx context.Context, requestID uint64) (*model.Reservation, error) {
	req, err := m.get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Kind != model.RequestBurial {
		return nil, Conflict("only burial requests can be promoted")
	}
	if req.Status != model.RequestConfirmed {
		return nil, Conflictf("request is %s, not confirmed", req.Status)
	}
	if req.PlotID == nil {
		return nil, Conflict("request does not name a plot")
	}
	res, err := m.reservations.Create(ctx, req.RequesterID, *req.PlotID, req.Notes)
	if err != nil {
		return nil, err
	}
	if _, err := m.transition(ctx, requestID, model.RequestConfirmed, model.RequestCompleted); err != nil {
		return nil, err
	}
	return res, nil
}

// Get returns a ticket by id.
func (m *RequestManager) Get(ctx context.Context, requestID uint64) (*model.BurialRequest, error) {
	return m.get(ctx, requestID)
}

// ListByRequester returns the tickets a user has filed.
func (m *RequestManager) ListByRequester(ctx context.Context, requesterID uint64) ([]model.BurialRequest, error) {
	return m.requests.ListByRequester(ctx, requesterID)
}

// ListByStatus returns tickets in a given state, for the review queue.
func (m *RequestManager) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.BurialRequest, error) {
	return m.requests.ListByStatus(ctx, status)
}

func (m *RequestManager) get(ctx context.Context, requestID uint64) (*model.BurialRequest, error) {
	req, err := m.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return nil, NotFound("request not found")
		}
		return nil, err
	}
	return req, nil
}

func (m *RequestManager) transition(ctx context.Context, requestID uint64, from, to model.RequestStatus) (*model.BurialRequest, error) {
	if err := m.requests.UpdateStatus(ctx, requestID, from, to); err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			// Distinguish a missing ticket from a lost race.
			req, getErr := m.requests.GetByID(ctx, requestID)
			if getErr != nil {
				return nil, NotFound("request not found")
			}
			return nil, Conflictf("request is %s, not %s", req.Status, from)
		}
		return nil, err
	}
	return m.get(ctx, requestID)
}
