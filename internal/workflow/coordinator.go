package workflow

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
)

// Coordinator is the synchronization primitive both managers go through.
// It wraps every state-changing operation in a transaction that holds an
// exclusive row lock (SELECT ... FOR UPDATE) on the target plot, and
// recomputes the plot's derived status plus the denormalized occupant
// projection before committing.  For any two concurrent operations on
// the same plot, one critical section fully precedes the other; the lock
// is released by commit, rollback, or the InnoDB lock wait timeout, so a
// crashed caller cannot leave a plot permanently unavailable.
type Coordinator struct {
	db           *sql.DB
	plots        *repository.PlotRepo
	reservations *repository.ReservationRepo
	burials      *repository.BurialRecordRepo
}

// NewCoordinator wires the coordinator to its repositories.
func NewCoordinator(db *sql.DB, plots *repository.PlotRepo, reservations *repository.ReservationRepo, burials *repository.BurialRecordRepo) *Coordinator {
	if db == nil || plots == nil || reservations == nil || burials == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	return &Coordinator{db: db, plots: plots, reservations: reservations, burials: burials}
}

// WithLockedPlot runs fn with the identified plot locked.  fn receives
// the locked snapshot; when it returns nil the coordinator recomputes
// the plot's status and occupant projection in the same transaction and
// commits.  Any error, or a cancelled context, rolls everything back,
// so a failure inside a multi-step operation is never partially applied.
func (c *Coordinator) WithLockedPlot(ctx context.Context, plotID uint64, fn func(tx *sql.Tx, plot *model.Plot) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	plot, err := c.plots.GetForUpdateTx(ctx, tx, plotID)
	if err != nil {
		if errors.Is(err, repository.ErrPlotNotFound) {
			return NotFound("plot not found")
		}
		return err
	}
	if err := fn(tx, plot); err != nil {
		return err
	}
	if err := c.refreshPlotTx(ctx, tx, plotID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// WithLockedPlots runs fn with two distinct plots locked.  The rows are
// always acquired in ascending id order regardless of argument order, so
// two movers touching the same pair can never deadlock; fn still
// receives the plots matching its argument order.
func (c *Coordinator) WithLockedPlots(ctx context.Context, firstID, secondID uint64, fn func(tx *sql.Tx, first, second *model.Plot) error) error {
	if firstID == secondID {
		return InvalidInput("two distinct plots required")
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	lockOrder := []uint64{firstID, secondID}
	if secondID < firstID {
		lockOrder[0], lockOrder[1] = secondID, firstID
	}
	locked := make(map[uint64]*model.Plot, 2)
	for _, id := range lockOrder {
		plot, err := c.plots.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrPlotNotFound) {
				return NotFound("plot not found")
			}
			return err
		}
		locked[id] = plot
	}
	if err := fn(tx, locked[firstID], locked[secondID]); err != nil {
		return err
	}
	for _, id := range lockOrder {
		if err := c.refreshPlotTx(ctx, tx, id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// refreshPlotTx recomputes the derived columns of a locked plot row from
// the facts committed in this transaction: active burial records win over
// active reservations, which win over the maintenance override.  The
// occupant projection mirrors the latest active burial record, or is
// cleared when none remains.
func (c *Coordinator) refreshPlotTx(ctx context.Context, tx *sql.Tx, plotID uint64) error {
	// Re-read the row: fn may have flipped the maintenance override, or
	// deleted the plot outright, in which case there is nothing to derive.
	plot, err := c.plots.GetForUpdateTx(ctx, tx, plotID)
	if err != nil {
		if errors.Is(err, repository.ErrPlotNotFound) {
			return nil
		}
		return err
	}
	activeBurials, err := c.burials.CountActiveByPlotTx(ctx, tx, plotID)
	if err != nil {
		return err
	}
	activeReservations, err := c.reservations.CountActiveByPlotTx(ctx, tx, plotID)
	if err != nil {
		return err
	}
	status := model.RecomputePlotStatus(activeBurials, activeReservations, plot.Maintenance)

	var occ repository.OccupantProjection
	if activeBurials > 0 {
		latest, err := c.burials.LatestActiveByPlotTx(ctx, tx, plotID)
		if err != nil {
			return err
		}
		if latest != nil {
			occ = repository.OccupantProjection{
				Name: &latest.DeceasedName,
				Born: latest.BirthDate,
				Died: latest.DeathDate,
			}
		}
	}
	return c.plots.UpdateDerivedTx(ctx, tx, plotID, status, occ)
}
