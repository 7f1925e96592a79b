package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/queue"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
	queuepub "github.com/iliyamo/cemetery-plot-registry/internal/service"
	"github.com/iliyamo/cemetery-plot-registry/internal/workflow"
)

// AdminReservationHandler serves the review side of the reservation
// flow: the payment sub-workflow and the final approve/reject decision.
type AdminReservationHandler struct {
	Flow         *workflow.Facade
	Reservations *repository.ReservationRepo
	Plots        *repository.PlotRepo
}

func NewAdminReservationHandler(flow *workflow.Facade, reservations *repository.ReservationRepo, plots *repository.PlotRepo) *AdminReservationHandler {
	if flow == nil || reservations == nil || plots == nil {
		panic("nil dependency passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Flow: flow, Reservations: reservations, Plots: plots}
}

// List handles GET /v1/admin/reservations with optional ?status= and
// ?plot_id= filters.
func (h *AdminReservationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		list []model.Reservation
		err  error
	)
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		list, err = h.Reservations.ListByStatus(ctx, model.ReservationStatus(status))
	} else if plotParam := strings.TrimSpace(c.QueryParam("plot_id")); plotParam != "" {
		var plotID uint64
		if plotID, err = parseUint(plotParam); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plot_id"})
		}
		list, err = h.Reservations.ListByPlot(ctx, plotID)
	} else {
		list, err = h.Reservations.ListByStatus(ctx, model.ReservationPending)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]reservationView, 0, len(list))
	for i := range list {
		items = append(items, toReservationView(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ValidatePayment handles POST /v1/admin/reservations/:id/payment/validate.
func (h *AdminReservationHandler) ValidatePayment(c echo.Context) error {
	return h.paymentAction(c, h.Flow.ValidatePayment)
}

// ApprovePayment handles POST /v1/admin/reservations/:id/payment/approve.
func (h *AdminReservationHandler) ApprovePayment(c echo.Context) error {
	return h.paymentAction(c, h.Flow.ApprovePayment)
}

// RejectPayment handles POST /v1/admin/reservations/:id/payment/reject.
func (h *AdminReservationHandler) RejectPayment(c echo.Context) error {
	return h.paymentAction(c, h.Flow.RejectPayment)
}

func (h *AdminReservationHandler) paymentAction(c echo.Context, fn func(context.Context, workflow.Actor, uint64) (*model.Reservation, error)) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := fn(c.Request().Context(), actor, reservationID)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// Approve handles POST /v1/admin/reservations/:id/approve.  On success a
// ReservationApprovedEvent is published; a broker outage only logs.
func (h *AdminReservationHandler) Approve(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	res, err := h.Flow.ApproveReservation(ctx, actor, reservationID)
	if err != nil {
		return workflowError(c, err)
	}

	if plot, perr := h.Plots.GetByID(ctx, res.PlotID); perr == nil {
		_ = queuepub.PublishReservationApproved(ctx, queue.ReservationApprovedEvent{
			ReservationID: res.ID,
			PlotID:        plot.ID,
			PlotName:      plot.Name,
			Section:       plot.Section,
			HolderID:      res.HolderID,
			PriceCents:    plot.PriceCents,
			ApprovedAt:    time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// Reject handles POST /v1/admin/reservations/:id/reject.
func (h *AdminReservationHandler) Reject(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Flow.RejectReservation(c.Request().Context(), actor, reservationID)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}
