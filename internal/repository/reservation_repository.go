package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  Every
// state-changing method is transaction-scoped (`...Tx`): reservation rows
// are only mutated while the owning plot row is locked, so the invariant
// "at most one active reservation per plot" is enforced at a single
// point.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, plot_id, holder_id, status, payment_status, payment_receipt_ref, notes, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (*model.Reservation, error) {
	var res model.Reservation
	var receipt sql.NullString
	err := row.Scan(
		&res.ID, &res.PlotID, &res.HolderID, &res.Status, &res.PaymentStatus,
		&receipt, &res.Notes, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if receipt.Valid {
		v := receipt.String
		res.PaymentReceiptRef = &v
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and queries the row back to populate timestamps and
// defaults.  The caller must hold the plot lock and commit or roll back.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (plot_id, holder_id, status, payment_status, notes) VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.PlotID, res.HolderID, res.Status, res.PaymentStatus, res.Notes)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	got, err := scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, res.ID))
	if err != nil {
		return err
	}
	*res = *got
	return nil
}

// GetByID returns a reservation without locking.  Callers use it to learn
// the plot id before taking the plot lock; every precondition is then
// re-checked via GetByIDTx inside the lock.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// GetByIDTx re-reads a reservation inside the transaction, after the plot
// lock has been acquired.  Check-then-act across the lock boundary is not
// trusted; this is the authoritative read.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return res, err
}

// CountActiveByPlotTx counts reservations in {pending, approved} for a
// plot inside the transaction.  Feeds status recomputation.
func (r *ReservationRepo) CountActiveByPlotTx(ctx context.Context, tx *sql.Tx, plotID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE plot_id = ? AND status IN ('pending','approved')`,
		plotID).Scan(&n)
	return n, err
}

// ActiveByPlotAndHolderTx reports whether the holder already has an
// active reservation on the plot.
func (r *ReservationRepo) ActiveByPlotAndHolderTx(ctx context.Context, tx *sql.Tx, plotID, holderID uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE plot_id = ? AND holder_id = ? AND status IN ('pending','approved')`,
		plotID, holderID).Scan(&n)
	return n > 0, err
}

// UpdateStatusTx rewrites the reservation status.  Caller must hold the
// plot lock in the same transaction.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	return err
}

// UpdatePaymentTx rewrites the payment sub-workflow state and the stored
// receipt reference.  Passing a non-nil receiptRef replaces any prior
// asset reference.
func (r *ReservationRepo) UpdatePaymentTx(ctx context.Context, tx *sql.Tx, id uint64, status model.PaymentStatus, receiptRef *string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservations SET payment_status = ?, payment_receipt_ref = ? WHERE id = ?`,
		status, receiptRef, id)
	return err
}

// RejectOtherPendingTx marks every pending reservation on the plot other
// than keepID as rejected.  Under the lock-on-create flow this normally
// affects zero rows; it remains as a sweep so an approval can never leave
// a competing claim alive.
func (r *ReservationRepo) RejectOtherPendingTx(ctx context.Context, tx *sql.Tx, plotID, keepID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = 'rejected' WHERE plot_id = ? AND id <> ? AND status = 'pending'`,
		plotID, keepID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByHolder returns the holder's reservations, newest first.
func (r *ReservationRepo) ListByHolder(ctx context.Context, holderID uint64) ([]model.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE holder_id = ? ORDER BY created_at DESC`, holderID)
}

// ListByPlot returns every reservation ever made on a plot, newest first.
// Used by admin views; history is never deleted.
func (r *ReservationRepo) ListByPlot(ctx context.Context, plotID uint64) ([]model.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE plot_id = ? ORDER BY created_at DESC`, plotID)
}

// ListByStatus returns reservations with the given status, oldest first,
// which is the order admins work the approval queue in.
func (r *ReservationRepo) ListByStatus(ctx context.Context, status model.ReservationStatus) ([]model.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE status = ? ORDER BY created_at`, status)
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
