package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/workflow"
)

// RequestHandler serves the ticket surface on both sides: visitors file
// and cancel tickets, staff work the review queue.
type RequestHandler struct {
	Flow *workflow.Facade
}

func NewRequestHandler(flow *workflow.Facade) *RequestHandler {
	if flow == nil {
		panic("nil facade passed to NewRequestHandler")
	}
	return &RequestHandler{Flow: flow}
}

type submitRequestReq struct {
	PlotID      *uint64 `json:"plot_id"`
	Kind        string  `json:"kind" validate:"required,oneof=burial maintenance"`
	SubjectName string  `json:"subject_name" validate:"required,max=255"`
	Notes       string  `json:"notes" validate:"max=2000"`
}

// Submit handles POST /v1/requests.
func (h *RequestHandler) Submit(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req submitRequestReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	out, err := h.Flow.SubmitRequest(c.Request().Context(), actor, workflow.RequestInput{
		PlotID:      req.PlotID,
		Kind:        model.RequestKind(req.Kind),
		SubjectName: req.SubjectName,
		Notes:       req.Notes,
	})
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusCreated, toRequestView(out))
}

// Cancel handles POST /v1/requests/:id/cancel.
func (h *RequestHandler) Cancel(c echo.Context) error {
	return h.action(c, h.Flow.CancelRequest)
}

// Mine handles GET /v1/requests, the caller's own tickets.
func (h *RequestHandler) Mine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Flow.Requests.ListByRequester(c.Request().Context(), actor.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toRequestViews(list)})
}

// Queue handles GET /v1/staff/requests with optional ?status=, the
// review queue.  Defaults to pending.
func (h *RequestHandler) Queue(c echo.Context) error {
	status := model.RequestStatus(strings.TrimSpace(c.QueryParam("status")))
	if status == "" {
		status = model.RequestPending
	}
	list, err := h.Flow.Requests.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toRequestViews(list)})
}

// Confirm handles POST /v1/staff/requests/:id/confirm.
func (h *RequestHandler) Confirm(c echo.Context) error {
	return h.action(c, h.Flow.ConfirmRequest)
}

// Reject handles POST /v1/staff/requests/:id/reject.
func (h *RequestHandler) Reject(c echo.Context) error {
	return h.action(c, h.Flow.RejectRequest)
}

// Complete handles POST /v1/staff/requests/:id/complete.
func (h *RequestHandler) Complete(c echo.Context) error {
	return h.action(c, h.Flow.CompleteRequest)
}

// Promote handles POST /v1/staff/requests/:id/promote, turning a
// confirmed burial ticket into a pending reservation for the requester.
func (h *RequestHandler) Promote(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	res, err := h.Flow.PromoteRequest(c.Request().Context(), actor, requestID)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationView(res))
}

func (h *RequestHandler) action(c echo.Context, fn func(ctx context.Context, actor workflow.Actor, id uint64) (*model.BurialRequest, error)) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	out, err := fn(c.Request().Context(), actor, requestID)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toRequestView(out))
}

func toRequestViews(list []model.BurialRequest) []requestView {
	items := make([]requestView, 0, len(list))
	for i := range list {
		items = append(items, toRequestView(&list[i]))
	}
	return items
}
