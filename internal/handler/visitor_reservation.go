package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
	"github.com/iliyamo/cemetery-plot-registry/internal/workflow"
)

// VisitorHandler serves the authenticated visitor surface: reserving a
// plot, driving the payment sub-flow from the holder's side, cancelling
// and listing one's own reservations.  All writes go through the
// workflow facade; the repo is only used for the holder's own reads.
type VisitorHandler struct {
	Flow         *workflow.Facade
	Reservations *repository.ReservationRepo
}

func NewVisitorHandler(flow *workflow.Facade, reservations *repository.ReservationRepo) *VisitorHandler {
	if flow == nil || reservations == nil {
		panic("nil dependency passed to NewVisitorHandler")
	}
	return &VisitorHandler{Flow: flow, Reservations: reservations}
}

type reserveReq struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ReservePlot handles POST /v1/plots/:id/reserve.
func (h *VisitorHandler) ReservePlot(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	plotID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req reserveReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	res, err := h.Flow.CreateReservation(c.Request().Context(), actor, plotID, req.Notes)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationView(res))
}

type receiptReq struct {
	ReceiptRef string `json:"receipt_ref" validate:"required,max=255"`
}

// UploadReceipt handles POST /v1/reservations/:id/receipt.
func (h *VisitorHandler) UploadReceipt(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req receiptReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	res, err := h.Flow.UploadPaymentProof(c.Request().Context(), actor, reservationID, req.ReceiptRef)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// CancelReservation handles POST /v1/reservations/:id/cancel.
func (h *VisitorHandler) CancelReservation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Flow.CancelReservation(c.Request().Context(), actor, reservationID)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationView(res))
}

// MyReservations handles GET /v1/reservations, listing the caller's own
// reservations newest first.
func (h *VisitorHandler) MyReservations(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Reservations.ListByHolder(c.Request().Context(), actor.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]reservationView, 0, len(list))
	for i := range list {
		items = append(items, toReservationView(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
