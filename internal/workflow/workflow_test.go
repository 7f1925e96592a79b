package workflow_test

// Integration tests for the plot lifecycle.  They need a MySQL instance
// and are skipped unless CEMETERY_TEST_DSN is set, e.g.
//
//	CEMETERY_TEST_DSN='root:root@tcp(127.0.0.1:3306)/cemetery_test?parseTime=true&loc=UTC&multiStatements=false'
//
// Each test creates its own plots and users with unique names, so tests
// can run against a shared database without stepping on each other.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cemetery-plot-registry/internal/database"
	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
	"github.com/iliyamo/cemetery-plot-registry/internal/workflow"
)

type fixture struct {
	db     *sql.DB
	facade *workflow.Facade
	plots  *repository.PlotRepo
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := os.Getenv("CEMETERY_TEST_DSN")
	if dsn == "" {
		t.Skip("CEMETERY_TEST_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, db))

	plots := repository.NewPlotRepo(db)
	reservations := repository.NewReservationRepo(db)
	burials := repository.NewBurialRecordRepo(db)
	requests := repository.NewBurialRequestRepo(db)
	coord := workflow.NewCoordinator(db, plots, reservations, burials)
	return &fixture{
		db:     db,
		facade: workflow.NewFacade(coord, plots, reservations, burials, requests),
		plots:  plots,
	}
}

func (f *fixture) newUser(t *testing.T, role workflow.Role) workflow.Actor {
	t.Helper()
	email := uuid.NewString() + "@test.local"
	res, err := f.db.Exec(
		`INSERT INTO users (email, password_hash, role) VALUES (?, 'x', ?)`, email, string(role))
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return workflow.Actor{ID: uint64(id), Role: role}
}

func (f *fixture) newPlot(t *testing.T, admin workflow.Actor) *model.Plot {
	t.Helper()
	p, err := f.facade.CreatePlot(context.Background(), admin, workflow.PlotInput{
		Name:     "T-" + uuid.NewString()[:18],
		Section:  "test",
		PlotType: "SINGLE",
		SizeSqm:  2.5,
	})
	require.NoError(t, err)
	require.Equal(t, model.PlotAvailable, p.Status)
	return p
}

func (f *fixture) plotStatus(t *testing.T, id uint64) model.PlotStatus {
	t.Helper()
	p, err := f.plots.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func burialInput(name string) workflow.BurialInput {
	return workflow.BurialInput{
		DeceasedName: name,
		BurialDate:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestReservationLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	visitor := f.newUser(t, workflow.RoleVisitor)
	rival := f.newUser(t, workflow.RoleVisitor)
	plot := f.newPlot(t, admin)

	res, err := f.facade.CreateReservation(ctx, visitor, plot.ID, "family plot")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, model.PaymentUnpaid, res.PaymentStatus)
	assert.Equal(t, model.PlotReserved, f.plotStatus(t, plot.ID))

	// The plot is claimed; a rival cannot reserve it.
	_, err = f.facade.CreateReservation(ctx, rival, plot.ID, "")
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))

	// Approving before payment must fail.
	_, err = f.facade.ApproveReservation(ctx, admin, res.ID)
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))

	res, err = f.facade.UploadPaymentProof(ctx, visitor, res.ID, "assets/receipt-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentSubmitted, res.PaymentStatus)

	res, err = f.facade.ValidatePayment(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentValidated, res.PaymentStatus)

	res, err = f.facade.ApprovePayment(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentApproved, res.PaymentStatus)

	res, err = f.facade.ApproveReservation(ctx, admin, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationApproved, res.Status)
	assert.Equal(t, model.PlotReserved, f.plotStatus(t, plot.ID))

	rec, err := f.facade.ConfirmBurial(ctx, admin, res.ID, burialInput("Edith Holloway"))
	require.NoError(t, err)
	require.NotNil(t, rec.ReservationID)
	assert.Equal(t, res.ID, *rec.ReservationID)
	assert.Equal(t, model.PlotOccupied, f.plotStatus(t, plot.ID))

	// The reservation is completed and the occupant projection mirrors
	// the record.
	p, err := f.plots.GetByID(ctx, plot.ID)
	require.NoError(t, err)
	require.NotNil(t, p.OccupantName)
	assert.Equal(t, "Edith Holloway", *p.OccupantName)

	// Deleting the record releases the plot and clears the projection.
	require.NoError(t, f.facade.DeleteBurialRecord(ctx, admin, rec.ID))
	p, err = f.plots.GetByID(ctx, plot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlotAvailable, p.Status)
	assert.Nil(t, p.OccupantName)
}

func TestConcurrentReservationsExactlyOneWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	plot := f.newPlot(t, admin)

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		visitor := f.newUser(t, workflow.RoleVisitor)
		wg.Add(1)
		go func(i int, actor workflow.Actor) {
			defer wg.Done()
			_, errs[i] = f.facade.CreateReservation(ctx, actor, plot.ID, "")
		}(i, visitor)
	}
	wg.Wait()

	won := 0
	for i, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.Equalf(t, workflow.KindConflict, workflow.KindOf(err),
			"contender %d: want conflict, got %v", i, err)
	}
	assert.Equal(t, 1, won, "exactly one contender must win the plot")
	assert.Equal(t, model.PlotReserved, f.plotStatus(t, plot.ID))
}

func TestConcurrentDirectBurialsExactlyOneWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	plot := f.newPlot(t, admin)

	const contenders = 4
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.facade.CreateBurialRecord(ctx, admin, plot.ID,
				burialInput(fmt.Sprintf("Contender %d", i)))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, model.PlotOccupied, f.plotStatus(t, plot.ID))
}

func TestCancelReleasesThePlot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	visitor := f.newUser(t, workflow.RoleVisitor)
	rival := f.newUser(t, workflow.RoleVisitor)
	plot := f.newPlot(t, admin)

	res, err := f.facade.CreateReservation(ctx, visitor, plot.ID, "")
	require.NoError(t, err)

	// A rival may not cancel someone else's reservation.
	_, err = f.facade.CancelReservation(ctx, rival, res.ID)
	assert.Equal(t, workflow.KindForbidden, workflow.KindOf(err))

	res, err = f.facade.CancelReservation(ctx, visitor, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, res.Status)
	assert.Equal(t, model.PlotAvailable, f.plotStatus(t, plot.ID))

	// The freed plot can be reserved again.
	_, err = f.facade.CreateReservation(ctx, rival, plot.ID, "")
	require.NoError(t, err)

	// A cancelled reservation is immutable.
	_, err = f.facade.CancelReservation(ctx, visitor, res.ID)
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))
}

func TestApprovePaymentWithoutProof(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	visitor := f.newUser(t, workflow.RoleVisitor)
	plot := f.newPlot(t, admin)

	res, err := f.facade.CreateReservation(ctx, visitor, plot.ID, "")
	require.NoError(t, err)

	_, err = f.facade.ApprovePayment(ctx, admin, res.ID)
	require.Error(t, err)
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))
	assert.Contains(t, err.Error(), "no payment proof")
}

func TestApproveReservationOnOccupiedPlot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	visitor := f.newUser(t, workflow.RoleVisitor)
	plot := f.newPlot(t, admin)

	res, err := f.facade.CreateReservation(ctx, visitor, plot.ID, "")
	require.NoError(t, err)
	res, err = f.facade.UploadPaymentProof(ctx, visitor, res.ID, "assets/receipt-2.pdf")
	require.NoError(t, err)
	_, err = f.facade.ApprovePayment(ctx, admin, res.ID)
	require.NoError(t, err)

	// A direct burial lands on the plot before the approval.
	_, err = f.facade.CreateBurialRecord(ctx, admin, plot.ID, burialInput("Arthur Penn"))
	require.NoError(t, err)

	_, err = f.facade.ApproveReservation(ctx, admin, res.ID)
	require.Error(t, err)
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))
	assert.Contains(t, err.Error(), "occupied")
}

func TestMoveBurialRecord(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	src := f.newPlot(t, admin)
	dst := f.newPlot(t, admin)
	taken := f.newPlot(t, admin)

	rec, err := f.facade.CreateBurialRecord(ctx, admin, src.ID, burialInput("Maria Keller"))
	require.NoError(t, err)
	_, err = f.facade.CreateBurialRecord(ctx, admin, taken.ID, burialInput("Jonas Keller"))
	require.NoError(t, err)

	// Moving onto an occupied plot is refused and changes nothing.
	_, err = f.facade.EditBurialRecord(ctx, admin, rec.ID, workflow.BurialEdit{PlotID: &taken.ID})
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))
	assert.Equal(t, model.PlotOccupied, f.plotStatus(t, src.ID))

	moved, err := f.facade.EditBurialRecord(ctx, admin, rec.ID, workflow.BurialEdit{PlotID: &dst.ID})
	require.NoError(t, err)
	assert.Equal(t, dst.ID, moved.PlotID)
	assert.Equal(t, model.PlotAvailable, f.plotStatus(t, src.ID))
	assert.Equal(t, model.PlotOccupied, f.plotStatus(t, dst.ID))

	// The occupant projection follows the record.
	p, err := f.plots.GetByID(ctx, dst.ID)
	require.NoError(t, err)
	require.NotNil(t, p.OccupantName)
	assert.Equal(t, "Maria Keller", *p.OccupantName)
}

func TestDeleteRefusesConcurrentlyMovedRecord(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	source := f.newPlot(t, admin)
	target := f.newPlot(t, admin)

	rec, err := f.facade.CreateBurialRecord(ctx, admin, source.ID, burialInput("Greta Lind"))
	require.NoError(t, err)

	// Park the delete on the source plot's row lock, move the record to
	// another plot while it waits, then let it resume against the stale
	// binding.  The delete must notice the move and refuse.
	tx, err := f.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	var locked uint64
	require.NoError(t, tx.QueryRowContext(ctx,
		`SELECT id FROM plots WHERE id = ? FOR UPDATE`, source.ID).Scan(&locked))

	done := make(chan error, 1)
	go func() {
		done <- f.facade.DeleteBurialRecord(ctx, admin, rec.ID)
	}()

	// Let the delete read the record and start waiting on the lock.
	time.Sleep(200 * time.Millisecond)
	_, err = tx.ExecContext(ctx,
		`UPDATE burial_records SET plot_id = ? WHERE id = ?`, target.ID, rec.ID)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx,
		`UPDATE plots SET status = 'available', occupant_name = NULL, occupant_born = NULL, occupant_died = NULL WHERE id = ?`,
		source.ID)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx,
		`UPDATE plots SET status = 'occupied', occupant_name = ? WHERE id = ?`,
		rec.DeceasedName, target.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	err = <-done
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))

	// The record survived on its new plot, which stays occupied.
	var plotID uint64
	require.NoError(t, f.db.QueryRowContext(ctx,
		`SELECT plot_id FROM burial_records WHERE id = ?`, rec.ID).Scan(&plotID))
	assert.Equal(t, target.ID, plotID)
	assert.Equal(t, model.PlotOccupied, f.plotStatus(t, target.ID))

	// A fresh delete probes the new location and releases it.
	require.NoError(t, f.facade.DeleteBurialRecord(ctx, admin, rec.ID))
	assert.Equal(t, model.PlotAvailable, f.plotStatus(t, target.ID))
}

func TestMaintenanceBlocksReservations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	visitor := f.newUser(t, workflow.RoleVisitor)
	plot := f.newPlot(t, admin)

	p, err := f.facade.SetPlotMaintenance(ctx, admin, plot.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.PlotMaintenance, p.Status)

	_, err = f.facade.CreateReservation(ctx, visitor, plot.ID, "")
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))

	p, err = f.facade.SetPlotMaintenance(ctx, admin, plot.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.PlotAvailable, p.Status)

	_, err = f.facade.CreateReservation(ctx, visitor, plot.ID, "")
	require.NoError(t, err)
}

func TestRequestPromotion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	visitor := f.newUser(t, workflow.RoleVisitor)
	plot := f.newPlot(t, admin)

	req, err := f.facade.SubmitRequest(ctx, visitor, workflow.RequestInput{
		PlotID:      &plot.ID,
		Kind:        model.RequestBurial,
		SubjectName: "Henrik Olsen",
		Notes:       "section preference noted",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	// A ticket claims nothing.
	assert.Equal(t, model.PlotAvailable, f.plotStatus(t, plot.ID))

	// Pending tickets cannot be promoted.
	_, err = f.facade.PromoteRequest(ctx, admin, req.ID)
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))

	req, err = f.facade.ConfirmRequest(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestConfirmed, req.Status)

	res, err := f.facade.PromoteRequest(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, visitor.ID, res.HolderID)
	assert.Equal(t, model.ReservationPending, res.Status)
	assert.Equal(t, model.PlotReserved, f.plotStatus(t, plot.ID))

	req, err = f.facade.Requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestCompleted, req.Status)
}

func TestPlotDeleteGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	visitor := f.newUser(t, workflow.RoleVisitor)

	reserved := f.newPlot(t, admin)
	_, err := f.facade.CreateReservation(ctx, visitor, reserved.ID, "")
	require.NoError(t, err)
	err = f.facade.DeletePlot(ctx, admin, reserved.ID)
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))

	buried := f.newPlot(t, admin)
	_, err = f.facade.CreateBurialRecord(ctx, admin, buried.ID, burialInput("Nils Berg"))
	require.NoError(t, err)
	err = f.facade.DeletePlot(ctx, admin, buried.ID)
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))

	// A cancelled reservation still anchors the plot's history.
	history := f.newPlot(t, admin)
	res, err := f.facade.CreateReservation(ctx, visitor, history.ID, "")
	require.NoError(t, err)
	_, err = f.facade.CancelReservation(ctx, visitor, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlotAvailable, f.plotStatus(t, history.ID))
	err = f.facade.DeletePlot(ctx, admin, history.ID)
	assert.Equal(t, workflow.KindConflict, workflow.KindOf(err))

	empty := f.newPlot(t, admin)
	require.NoError(t, f.facade.DeletePlot(ctx, admin, empty.ID))
	_, err = f.plots.GetByID(ctx, empty.ID)
	assert.ErrorIs(t, err, repository.ErrPlotNotFound)
}

func TestVisitorCannotReachAdminOperations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := f.newUser(t, workflow.RoleAdmin)
	visitor := f.newUser(t, workflow.RoleVisitor)
	plot := f.newPlot(t, admin)

	res, err := f.facade.CreateReservation(ctx, visitor, plot.ID, "")
	require.NoError(t, err)

	_, err = f.facade.ApprovePayment(ctx, visitor, res.ID)
	assert.Equal(t, workflow.KindForbidden, workflow.KindOf(err))
	_, err = f.facade.ApproveReservation(ctx, visitor, res.ID)
	assert.Equal(t, workflow.KindForbidden, workflow.KindOf(err))
	_, err = f.facade.CreateBurialRecord(ctx, visitor, plot.ID, burialInput("X"))
	assert.Equal(t, workflow.KindForbidden, workflow.KindOf(err))
	err = f.facade.DeletePlot(ctx, visitor, plot.ID)
	assert.Equal(t, workflow.KindForbidden, workflow.KindOf(err))
}
