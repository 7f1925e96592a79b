// This file defines the public catalogue: unauthenticated browsing of
// plots and grave search.  Responses contain only fields safe for
// public consumption; holder identities never appear here.

package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
)

// PublicHandler serves the read-only catalogue.  Reads go straight to
// the repositories; the Redis cache middleware in front of these routes
// absorbs repeat traffic.
type PublicHandler struct {
	Plots   *repository.PlotRepo
	Burials *repository.BurialRecordRepo
}

func NewPublicHandler(plots *repository.PlotRepo, burials *repository.BurialRecordRepo) *PublicHandler {
	if plots == nil || burials == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Plots: plots, Burials: burials}
}

// publicPlot is the catalogue projection of a plot.
type publicPlot struct {
	UID          string     `json:"uid"`
	Name         string     `json:"name"`
	Section      string     `json:"section"`
	PlotType     string     `json:"plot_type"`
	SizeSqm      float64    `json:"size_sqm"`
	PriceCents   uint64     `json:"price_cents"`
	Status       string     `json:"status"`
	OccupantName *string    `json:"occupant_name,omitempty"`
	OccupantBorn *time.Time `json:"occupant_born,omitempty"`
	OccupantDied *time.Time `json:"occupant_died,omitempty"`
}

func toPublicPlot(p *model.Plot) publicPlot {
	return publicPlot{
		UID:          p.UID,
		Name:         p.Name,
		Section:      p.Section,
		PlotType:     p.PlotType,
		SizeSqm:      p.SizeSqm,
		PriceCents:   p.PriceCents,
		Status:       string(p.Status),
		OccupantName: p.OccupantName,
		OccupantBorn: p.OccupantBorn,
		OccupantDied: p.OccupantDied,
	}
}

// ListPlots handles GET /v1/plots.  Supports ?section= and ?status=
// filters; results reflect the last committed state of each plot.
func (h *PublicHandler) ListPlots(c echo.Context) error {
	f := repository.PlotFilter{
		Status:  model.PlotStatus(strings.TrimSpace(c.QueryParam("status"))),
		Section: strings.TrimSpace(c.QueryParam("section")),
	}
	plots, err := h.Plots.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]publicPlot, 0, len(plots))
	for i := range plots {
		items = append(items, toPublicPlot(&plots[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetPlot handles GET /v1/plots/:id, addressing the plot by public UUID.
func (h *PublicHandler) GetPlot(c echo.Context) error {
	uid := strings.TrimSpace(c.Param("id"))
	if uid == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plot uid"})
	}
	p, err := h.Plots.GetByUID(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrPlotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "plot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, toPublicPlot(p))
}

// ListSections handles GET /v1/sections.
func (h *PublicHandler) ListSections(c echo.Context) error {
	sections, err := h.Plots.Sections(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": sections})
}

// Stats handles GET /v1/stats, the per-status plot counts shown on the
// public landing page.
func (h *PublicHandler) Stats(c echo.Context) error {
	counts, err := h.Plots.CountByStatus(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return c.JSON(http.StatusOK, echo.Map{"plots": out})
}

// graveResult is one grave search hit.
type graveResult struct {
	DeceasedName string     `json:"deceased_name"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	DeathDate    *time.Time `json:"death_date,omitempty"`
	BurialDate   time.Time  `json:"burial_date"`
	Epitaph      *string    `json:"epitaph,omitempty"`
	PlotID       uint64     `json:"plot_id"`
}

// SearchGraves handles GET /v1/graves?name=.  It matches active burial
// records by deceased name, for visitors locating a grave.
func (h *PublicHandler) SearchGraves(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name query parameter is required"})
	}
	records, err := h.Burials.SearchByDeceasedName(c.Request().Context(), name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]graveResult, 0, len(records))
	for i := range records {
		r := &records[i]
		items = append(items, graveResult{
			DeceasedName: r.DeceasedName,
			BirthDate:    r.BirthDate,
			DeathDate:    r.DeathDate,
			BurialDate:   r.BurialDate,
			Epitaph:      r.Epitaph,
			PlotID:       r.PlotID,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
