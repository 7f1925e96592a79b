package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/queue"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
	queuepub "github.com/iliyamo/cemetery-plot-registry/internal/service"
	"github.com/iliyamo/cemetery-plot-registry/internal/workflow"
)

// dateLayout is the wire format for calendar dates in burial payloads.
const dateLayout = "2006-01-02"

// AdminBurialHandler serves the burial-record surface: direct creation,
// confirmation from an approved reservation, edits (including moves)
// and deletion.
type AdminBurialHandler struct {
	Flow    *workflow.Facade
	Burials *repository.BurialRecordRepo
	Plots   *repository.PlotRepo
}

func NewAdminBurialHandler(flow *workflow.Facade, burials *repository.BurialRecordRepo, plots *repository.PlotRepo) *AdminBurialHandler {
	if flow == nil || burials == nil || plots == nil {
		panic("nil dependency passed to NewAdminBurialHandler")
	}
	return &AdminBurialHandler{Flow: flow, Burials: burials, Plots: plots}
}

type burialReq struct {
	HolderID         *uint64 `json:"holder_id"`
	DeceasedName     string  `json:"deceased_name" validate:"required,max=255"`
	BirthDate        *string `json:"birth_date"`
	DeathDate        *string `json:"death_date"`
	BurialDate       string  `json:"burial_date" validate:"required"`
	Epitaph          *string `json:"epitaph"`
	MemorialPhotoRef *string `json:"memorial_photo_ref"`
}

func (r *burialReq) toInput() (workflow.BurialInput, error) {
	in := workflow.BurialInput{
		HolderID:         r.HolderID,
		DeceasedName:     r.DeceasedName,
		Epitaph:          r.Epitaph,
		MemorialPhotoRef: r.MemorialPhotoRef,
	}
	burial, err := time.Parse(dateLayout, r.BurialDate)
	if err != nil {
		return in, err
	}
	in.BurialDate = burial
	if in.BirthDate, err = parseDatePtr(r.BirthDate); err != nil {
		return in, err
	}
	if in.DeathDate, err = parseDatePtr(r.DeathDate); err != nil {
		return in, err
	}
	return in, nil
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *AdminBurialHandler) publishConfirmed(ctx context.Context, rec *model.BurialRecord) {
	plot, err := h.Plots.GetByID(ctx, rec.PlotID)
	if err != nil {
		return
	}
	_ = queuepub.PublishBurialConfirmed(ctx, queue.BurialConfirmedEvent{
		RecordID:      rec.ID,
		ReservationID: rec.ReservationID,
		PlotID:        plot.ID,
		PlotName:      plot.Name,
		Section:       plot.Section,
		DeceasedName:  rec.DeceasedName,
		BurialDate:    rec.BurialDate.Format(dateLayout),
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Create handles POST /v1/admin/plots/:id/burials, the administrative
// shortcut that bypasses the reservation flow.
func (h *AdminBurialHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	plotID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req burialReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	in, err := req.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must use YYYY-MM-DD"})
	}
	ctx := c.Request().Context()
	rec, err := h.Flow.CreateBurialRecord(ctx, actor, plotID, in)
	if err != nil {
		return workflowError(c, err)
	}
	h.publishConfirmed(ctx, rec)
	return c.JSON(http.StatusCreated, toBurialRecordView(rec))
}

// ConfirmFromReservation handles POST /v1/admin/reservations/:id/confirm.
func (h *AdminBurialHandler) ConfirmFromReservation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req burialReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	in, err := req.toInput()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must use YYYY-MM-DD"})
	}
	ctx := c.Request().Context()
	rec, err := h.Flow.ConfirmBurial(ctx, actor, reservationID, in)
	if err != nil {
		return workflowError(c, err)
	}
	h.publishConfirmed(ctx, rec)
	return c.JSON(http.StatusCreated, toBurialRecordView(rec))
}

type burialEditReq struct {
	PlotID           *uint64 `json:"plot_id"`
	HolderID         *uint64 `json:"holder_id"`
	DeceasedName     *string `json:"deceased_name"`
	BirthDate        *string `json:"birth_date"`
	DeathDate        *string `json:"death_date"`
	BurialDate       *string `json:"burial_date"`
	Epitaph          *string `json:"epitaph"`
	MemorialPhotoRef *string `json:"memorial_photo_ref"`
	IsActive         *bool   `json:"is_active"`
}

// Edit handles PATCH /v1/admin/burials/:id.  Setting plot_id to another
// plot moves the record; the workflow refuses the move when the target
// is occupied.
func (h *AdminBurialHandler) Edit(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	recordID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var req burialEditReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	edit := workflow.BurialEdit{
		PlotID:           req.PlotID,
		HolderID:         req.HolderID,
		DeceasedName:     req.DeceasedName,
		Epitaph:          req.Epitaph,
		MemorialPhotoRef: req.MemorialPhotoRef,
		IsActive:         req.IsActive,
	}
	if edit.BirthDate, err = parseDatePtr(req.BirthDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must use YYYY-MM-DD"})
	}
	if edit.DeathDate, err = parseDatePtr(req.DeathDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must use YYYY-MM-DD"})
	}
	if edit.BurialDate, err = parseDatePtr(req.BurialDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must use YYYY-MM-DD"})
	}
	rec, err := h.Flow.EditBurialRecord(c.Request().Context(), actor, recordID, edit)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, toBurialRecordView(rec))
}

// Delete handles DELETE /v1/admin/burials/:id.
func (h *AdminBurialHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	recordID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Flow.DeleteBurialRecord(c.Request().Context(), actor, recordID); err != nil {
		return workflowError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListByPlot handles GET /v1/admin/plots/:id/burials, the full history
// of a plot including inactive records.
func (h *AdminBurialHandler) ListByPlot(c echo.Context) error {
	plotID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	records, err := h.Burials.ListByPlot(c.Request().Context(), plotID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]burialRecordView, 0, len(records))
	for i := range records {
		items = append(items, toBurialRecordView(&records[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
