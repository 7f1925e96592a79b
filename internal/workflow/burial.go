package workflow

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
)

// BurialManager owns the burial-record lifecycle: direct creation by
// staff/admins, confirmation from an approved reservation, edits
// (including moving a record between plots), and deletion.  Occupancy is
// never written directly; the coordinator derives it from the active
// records when each transaction commits.
type BurialManager struct {
	coord        *Coordinator
	reservations *repository.ReservationRepo
	burials      *repository.BurialRecordRepo
}

// NewBurialManager wires the manager to the coordinator and its repos.
func NewBurialManager(coord *Coordinator, reservations *repository.ReservationRepo, burials *repository.BurialRecordRepo) *BurialManager {
	if coord == nil || reservations == nil || burials == nil {
		panic("nil dependency passed to NewBurialManager")
	}
	return &BurialManager{coord: coord, reservations: reservations, burials: burials}
}

// BurialInput carries the details of a burial record.  DeceasedName and
// BurialDate are required; the rest is optional memorial data.
type BurialInput struct {
	HolderID         *uint64
	DeceasedName     string
	BirthDate        *time.Time
	DeathDate        *time.Time
	BurialDate       time.Time
	Epitaph          *string
	MemorialPhotoRef *string
}

func (in *BurialInput) validate() error {
	in.DeceasedName = strings.TrimSpace(in.DeceasedName)
	if in.DeceasedName == "" {
		return InvalidInput("deceased name is required")
	}
	if in.BurialDate.IsZero() {
		return InvalidInput("burial date is required")
	}
	if in.BirthDate != nil && in.DeathDate != nil && in.DeathDate.Before(*in.BirthDate) {
		return InvalidInput("death date precedes birth date")
	}
	return nil
}

// Create registers a burial directly, bypassing the reservation flow
// (the administrative shortcut).  Conflicts when the plot is already
// occupied; the plot moves to occupied in the same transaction.
func (m *BurialManager) Create(ctx context.Context, plotID uint64, in BurialInput) (*model.BurialRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.BurialRecord
	err := m.coord.WithLockedPlot(ctx, plotID, func(tx *sql.Tx, plot *model.Plot) error {
		active, err := m.burials.CountActiveByPlotTx(ctx, tx, plotID)
		if err != nil {
			return err
		}
		if active > 0 {
			return Conflict("plot already occupied")
		}
		rec := &model.BurialRecord{
			PlotID:           plotID,
			HolderID:         in.HolderID,
			DeceasedName:     in.DeceasedName,
			BirthDate:        in.BirthDate,
			DeathDate:        in.DeathDate,
			BurialDate:       in.BurialDate,
			Epitaph:          in.Epitaph,
			MemorialPhotoRef: in.MemorialPhotoRef,
			IsActive:         true,
		}
		if err := m.burials.CreateTx(ctx, tx, rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

// ConfirmFromReservation is the terminal step of an approved reservation:
// it creates the burial record, completes the reservation and occupies
// the plot, all in one transaction.  Requires the reservation approved
// with an approved payment, and a plot that is not already occupied.
func (m *BurialManager) ConfirmFromReservation(ctx context.Context, reservationID uint64, in BurialInput) (*model.BurialRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	probe, err := m.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, NotFound("reservation not found")
		}
		return nil, err
	}
	var out *model.BurialRecord
	err = m.coord.WithLockedPlot(ctx, probe.PlotID, func(tx *sql.Tx, plot *model.Plot) error {
		res, err := m.reservations.GetByIDTx(ctx, tx, reservationID)
		if err != nil {
			if errors.Is(err, repository.ErrReservationNotFound) {
				return NotFound("reservation not found")
			}
			return err
		}
		if res.Status != model.ReservationApproved {
			return Conflictf("reservation is %s, not approved", res.Status)
		}
		if res.PaymentStatus != model.PaymentApproved {
			return Conflict("payment not approved")
		}
		active, err := m.burials.CountActiveByPlotTx(ctx, tx, res.PlotID)
		if err != nil {
			return err
		}
		if active > 0 {
			return Conflict("plot already occupied")
		}
		holderID := res.HolderID
		rec := &model.BurialRecord{
			PlotID:           res.PlotID,
			ReservationID:    &res.ID,
			HolderID:         &holderID,
			DeceasedName:     in.DeceasedName,
			BirthDate:        in.BirthDate,
			DeathDate:        in.DeathDate,
			BurialDate:       in.BurialDate,
			Epitaph:          in.Epitaph,
			MemorialPhotoRef: in.MemorialPhotoRef,
			IsActive:         true,
		}
		if err := m.burials.CreateTx(ctx, tx, rec); err != nil {
			return err
		}
		if err := m.reservations.UpdateStatusTx(ctx, tx, res.ID, model.ReservationCompleted); err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

// BurialEdit lists the fields an admin may change on a record.  Nil
// pointers leave the field untouched; PlotID moves the record.
type BurialEdit struct {
	PlotID           *uint64
	HolderID         *uint64
	DeceasedName     *string
	BirthDate        *time.Time
	DeathDate        *time.Time
	BurialDate       *time.Time
	Epitaph          *string
	MemorialPhotoRef *string
	IsActive         *bool
}

func (e *BurialEdit) apply(rec *model.BurialRecord) error {
	if e.HolderID != nil {
		rec.HolderID = e.HolderID
	}
	if e.DeceasedName != nil {
		name := strings.TrimSpace(*e.DeceasedName)
		if name == "" {
			return InvalidInput("deceased name is required")
		}
		rec.DeceasedName = name
	}
	if e.BirthDate != nil {
		rec.BirthDate = e.BirthDate
	}
	if e.DeathDate != nil {
		rec.DeathDate = e.DeathDate
	}
	if e.BurialDate != nil {
		if e.BurialDate.IsZero() {
			return InvalidInput("burial date is required")
		}
		rec.BurialDate = *e.BurialDate
	}
	if e.Epitaph != nil {
		rec.Epitaph = e.Epitaph
	}
	if e.MemorialPhotoRef != nil {
		rec.MemorialPhotoRef = e.MemorialPhotoRef
	}
	if e.IsActive != nil {
		rec.IsActive = *e.IsActive
	}
	if rec.BirthDate != nil && rec.DeathDate != nil && rec.DeathDate.Before(*rec.BirthDate) {
		return InvalidInput("death date precedes birth date")
	}
	return nil
}

// Edit updates a record in place, or moves it to another plot.  A move
// locks both plot rows in ascending id order, fails when the destination
// is occupied, and re-evaluates the source plot, releasing it when
// nothing else claims it.
func (m *BurialManager) Edit(ctx context.Context, recordID uint64, edit BurialEdit) (*model.BurialRecord, error) {
	probe, err := m.burials.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrBurialRecordNotFound) {
			return nil, NotFound("burial record not found")
		}
		return nil, err
	}

	moving := edit.PlotID != nil && *edit.PlotID != probe.PlotID
	var out *model.BurialRecord

	mutate := func(tx *sql.Tx, targetPlotID uint64) error {
		rec, err := m.burials.GetByIDTx(ctx, tx, recordID)
		if err != nil {
			if errors.Is(err, repository.ErrBurialRecordNotFound) {
				return NotFound("burial record not found")
			}
			return err
		}
		if rec.PlotID != probe.PlotID {
			// The record moved between our unlocked probe and taking the
			// locks; the caller must retry against the fresh location.
			return Conflict("burial record was concurrently moved")
		}
		if err := edit.apply(rec); err != nil {
			return err
		}
		if targetPlotID != rec.PlotID {
			if rec.IsActive {
				occupied, err := m.burials.CountActiveByPlotTx(ctx, tx, targetPlotID)
				if err != nil {
					return err
				}
				if occupied > 0 {
					return Conflict("plot already occupied")
				}
			}
			rec.PlotID = targetPlotID
		}
		if err := m.burials.UpdateTx(ctx, tx, rec); err != nil {
			return err
		}
		out = rec
		return nil
	}

	if moving {
		err = m.coord.WithLockedPlots(ctx, probe.PlotID, *edit.PlotID, func(tx *sql.Tx, _, _ *model.Plot) error {
			return mutate(tx, *edit.PlotID)
		})
	} else {
		err = m.coord.WithLockedPlot(ctx, probe.PlotID, func(tx *sql.Tx, _ *model.Plot) error {
			return mutate(tx, probe.PlotID)
		})
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a record and re-evaluates the plot, returning it to
// available when no other active record remains.
func (m *BurialManager) Delete(ctx context.Context, recordID uint64) error {
	probe, err := m.burials.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrBurialRecordNotFound) {
			return NotFound("burial record not found")
		}
		return err
	}
	return m.coord.WithLockedPlot(ctx, probe.PlotID, func(tx *sql.Tx, _ *model.Plot) error {
		rec, err := m.burials.GetByIDTx(ctx, tx, recordID)
		if err != nil {
			if errors.Is(err, repository.ErrBurialRecordNotFound) {
				return NotFound("burial record not found")
			}
			return err
		}
		if rec.PlotID != probe.PlotID {
			// The record moved between our unlocked probe and taking the
			// lock; deleting it here would skip re-deriving its new plot.
			return Conflict("burial record was concurrently moved")
		}
		if err := m.burials.DeleteTx(ctx, tx, recordID); err != nil {
			if errors.Is(err, repository.ErrBurialRecordNotFound) {
				return NotFound("burial record not found")
			}
			return err
		}
		return nil
	})
}
