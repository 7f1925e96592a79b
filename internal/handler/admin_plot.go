package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/workflow"
)

// AdminPlotHandler serves the plot inventory surface.
type AdminPlotHandler struct {
	Flow *workflow.Facade
}

func NewAdminPlotHandler(flow *workflow.Facade) *AdminPlotHandler {
	if flow == nil {
		panic("nil facade passed to NewAdminPlotHandler")
	}
	return &AdminPlotHandler{Flow: flow}
}

type plotReq struct {
	Name        string  `json:"name" validate:"required,max=64"`
	Section     string  `json:"section" validate:"required,max=64"`
	PlotType    string  `json:"plot_type" validate:"required,oneof=SINGLE DOUBLE FAMILY NICHE single double family niche"`
	SizeSqm     float64 `json:"size_sqm" validate:"required,gt=0"`
	PriceCents  uint64  `json:"price_cents"`
	GeometryRef *string `json:"geometry_ref"`
}

func (r *plotReq) toInput() workflow.PlotInput {
	return workflow.PlotInput{
		Name:        r.Name,
		Section:     r.Section,
		PlotType:    r.PlotType,
		SizeSqm:     r.SizeSqm,
		PriceCents:  r.PriceCents,
		GeometryRef: r.GeometryRef,
	}
}

// Create handles POST /v1/admin/plots.
func (h *AdminPlotHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req plotReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	p, err := h.Flow.CreatePlot(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusCreated, toPlotView(p))
}

// Update handles PUT /v1/admin/plots/:id.
func (h *AdminPlotHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	plotID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req plotReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	p, err := h.Flow.UpdatePlot(c.Request().Context(), actor, plotID, req.toInput())
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toPlotView(p))
}

type maintenanceReq struct {
	Maintenance bool `json:"maintenance"`
}

// SetMaintenance handles POST /v1/admin/plots/:id/maintenance.
func (h *AdminPlotHandler) SetMaintenance(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	plotID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req maintenanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p, err := h.Flow.SetPlotMaintenance(c.Request().Context(), actor, plotID, req.Maintenance)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toPlotView(p))
}

// Delete handles DELETE /v1/admin/plots/:id.
func (h *AdminPlotHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	plotID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Flow.DeletePlot(c.Request().Context(), actor, plotID); err != nil {
		return workflowError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/admin/plots/:id, the unsanitized admin view.
func (h *AdminPlotHandler) Get(c echo.Context) error {
	plotID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	p, err := h.Flow.Plots.Get(c.Request().Context(), plotID)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toPlotView(p))
}
