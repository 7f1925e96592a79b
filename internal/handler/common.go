package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/workflow"
)

// validate is the shared request validator.  Struct tags on the request
// DTOs drive it; handlers call bindAndValidate instead of using it
// directly.
var validate = validator.New()

// bindAndValidate decodes the JSON body into req and runs the validator.
// Returns false after writing the 400 response when either step fails.
func bindAndValidate(c echo.Context, req interface{}) bool {
	if err := c.Bind(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		return false
	}
	if err := validate.Struct(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		return false
	}
	return true
}

// actorFrom rebuilds the acting identity stored by the JWT middleware.
func actorFrom(c echo.Context) (workflow.Actor, error) {
	id, ok := c.Get("user_id").(uint64)
	if !ok || id == 0 {
		return workflow.Actor{}, errors.New("missing user identity in context")
	}
	role, _ := c.Get("role").(string)
	return workflow.Actor{ID: id, Role: workflow.Role(role)}, nil
}

// parseUint parses a positive integer, rejecting zero.
func parseUint(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// workflowError translates the workflow failure taxonomy into an HTTP
// response.  Unknown errors are reported as a plain 500 without leaking
// driver details to the client.
func workflowError(c echo.Context, err error) error {
	switch workflow.KindOf(err) {
	case workflow.KindNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case workflow.KindConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case workflow.KindForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case workflow.KindInvalidInput:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// ----- response shapes -----

type plotView struct {
	ID           uint64     `json:"id"`
	UID          string     `json:"uid"`
	Name         string     `json:"name"`
	Section      string     `json:"section"`
	PlotType     string     `json:"plot_type"`
	SizeSqm      float64    `json:"size_sqm"`
	PriceCents   uint64     `json:"price_cents"`
	GeometryRef  *string    `json:"geometry_ref,omitempty"`
	Status       string     `json:"status"`
	Maintenance  bool       `json:"maintenance"`
	OccupantName *string    `json:"occupant_name,omitempty"`
	OccupantBorn *time.Time `json:"occupant_born,omitempty"`
	OccupantDied *time.Time `json:"occupant_died,omitempty"`
}

func toPlotView(p *model.Plot) plotView {
	return plotView{
		ID:           p.ID,
		UID:          p.UID,
		Name:         p.Name,
		Section:      p.Section,
		PlotType:     p.PlotType,
		SizeSqm:      p.SizeSqm,
		PriceCents:   p.PriceCents,
		GeometryRef:  p.GeometryRef,
		Status:       string(p.Status),
		Maintenance:  p.Maintenance,
		OccupantName: p.OccupantName,
		OccupantBorn: p.OccupantBorn,
		OccupantDied: p.OccupantDied,
	}
}

type reservationView struct {
	ID                uint64    `json:"id"`
	PlotID            uint64    `json:"plot_id"`
	HolderID          uint64    `json:"holder_id"`
	Status            string    `json:"status"`
	PaymentStatus     string    `json:"payment_status"`
	PaymentReceiptRef *string   `json:"payment_receipt_ref,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toReservationView(r *model.Reservation) reservationView {
	return reservationView{
		ID:                r.ID,
		PlotID:            r.PlotID,
		HolderID:          r.HolderID,
		Status:            string(r.Status),
		PaymentStatus:     string(r.PaymentStatus),
		PaymentReceiptRef: r.PaymentReceiptRef,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type burialRecordView struct {
	ID               uint64     `json:"id"`
	PlotID           uint64     `json:"plot_id"`
	ReservationID    *uint64    `json:"reservation_id,omitempty"`
	HolderID         *uint64    `json:"holder_id,omitempty"`
	DeceasedName     string     `json:"deceased_name"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	DeathDate        *time.Time `json:"death_date,omitempty"`
	BurialDate       time.Time  `json:"burial_date"`
	Epitaph          *string    `json:"epitaph,omitempty"`
	MemorialPhotoRef *string    `json:"memorial_photo_ref,omitempty"`
	IsActive         bool       `json:"is_active"`
}

func toBurialRecordView(b *model.BurialRecord) burialRecordView {
	return burialRecordView{
		ID:               b.ID,
		PlotID:           b.PlotID,
		ReservationID:    b.ReservationID,
		HolderID:         b.HolderID,
		DeceasedName:     b.DeceasedName,
		BirthDate:        b.BirthDate,
		DeathDate:        b.DeathDate,
		BurialDate:       b.BurialDate,
		Epitaph:          b.Epitaph,
		MemorialPhotoRef: b.MemorialPhotoRef,
		IsActive:         b.IsActive,
	}
}

type requestView struct {
	ID          uint64    `json:"id"`
	PlotID      *uint64   `json:"plot_id,omitempty"`
	RequesterID uint64    `json:"requester_id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	SubjectName string    `json:"subject_name"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toRequestView(r *model.BurialRequest) requestView {
	return requestView{
		ID:          r.ID,
		PlotID:      r.PlotID,
		RequesterID: r.RequesterID,
		Kind:        string(r.Kind),
		Status:      string(r.Status),
		SubjectName: r.SubjectName,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
	}
}
