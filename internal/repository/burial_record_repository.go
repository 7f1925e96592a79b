package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
)

// BurialRecordRepo provides CRUD operations for burial records.  Like
// reservations, burial record rows are only mutated while the owning
// plot row (both rows, for a move) is locked in the same transaction.
type BurialRecordRepo struct {
	db *sql.DB
}

// NewBurialRecordRepo returns a new BurialRecordRepo bound to the given database.
func NewBurialRecordRepo(db *sql.DB) *BurialRecordRepo { return &BurialRecordRepo{db: db} }

const burialColumns = `id, plot_id, reservation_id, holder_id, deceased_name, birth_date, death_date,
	burial_date, epitaph, memorial_photo_ref, is_active, created_at, updated_at`

func scanBurialRecord(row interface{ Scan(...interface{}) error }) (*model.BurialRecord, error) {
	var b model.BurialRecord
	var reservationID, holderID sql.NullInt64
	var birth, death sql.NullTime
	var epitaph, photo sql.NullString
	err := row.Scan(
		&b.ID, &b.PlotID, &reservationID, &holderID, &b.DeceasedName, &birth, &death,
		&b.BurialDate, &epitaph, &photo, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if reservationID.Valid {
		v := uint64(reservationID.Int64)
		b.ReservationID = &v
	}
	if holderID.Valid {
		v := uint64(holderID.Int64)
		b.HolderID = &v
	}
	if birth.Valid {
		v := birth.Time
		b.BirthDate = &v
	}
	if death.Valid {
		v := death.Time
		b.DeathDate = &v
	}
	if epitaph.Valid {
		v := epitaph.String
		b.Epitaph = &v
	}
	if photo.Valid {
		v := photo.String
		b.MemorialPhotoRef = &v
	}
	return &b, nil
}

// CreateTx inserts a burial record within an existing transaction and
// queries the row back.  The caller must hold the plot lock.
func (r *BurialRecordRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.BurialRecord) error {
	const q = `INSERT INTO burial_records
			   (plot_id, reservation_id, holder_id, deceased_name, birth_date, death_date, burial_date, epitaph, memorial_photo_ref, is_active)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		b.PlotID, b.ReservationID, b.HolderID, b.DeceasedName, b.BirthDate, b.DeathDate,
		b.BurialDate, b.Epitaph, b.MemorialPhotoRef, b.IsActive)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	got, err := scanBurialRecord(tx.QueryRowContext(ctx, `SELECT `+burialColumns+` FROM burial_records WHERE id = ?`, b.ID))
	if err != nil {
		return err
	}
	*b = *got
	return nil
}

// GetByID returns a burial record without locking; used to learn the plot
// id before taking the plot lock.
func (r *BurialRecordRepo) GetByID(ctx context.Context, id uint64) (*model.BurialRecord, error) {
	b, err := scanBurialRecord(r.db.QueryRowContext(ctx, `SELECT `+burialColumns+` FROM burial_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBurialRecordNotFound
	}
	return b, err
}

// GetByIDTx re-reads the record inside the transaction after the plot
// lock has been acquired.
func (r *BurialRecordRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.BurialRecord, error) {
	b, err := scanBurialRecord(tx.QueryRowContext(ctx, `SELECT `+burialColumns+` FROM burial_records WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBurialRecordNotFound
	}
	return b, err
}

// CountActiveByPlotTx counts active records on a plot inside the
// transaction.  Feeds status recomputation.
func (r *BurialRecordRepo) CountActiveByPlotTx(ctx context.Context, tx *sql.Tx, plotID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM burial_records WHERE plot_id = ? AND is_active = 1`,
		plotID).Scan(&n)
	return n, err
}

// LatestActiveByPlotTx returns the most recent active record on a plot,
// or nil when none exists.  The result drives the occupant projection on
// the plot row.
func (r *BurialRecordRepo) LatestActiveByPlotTx(ctx context.Context, tx *sql.Tx, plotID uint64) (*model.BurialRecord, error) {
	b, err := scanBurialRecord(tx.QueryRowContext(ctx,
		`SELECT `+burialColumns+` FROM burial_records WHERE plot_id = ? AND is_active = 1 ORDER BY burial_date DESC, id DESC LIMIT 1`,
		plotID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// UpdateTx rewrites the mutable fields of a record, including plot_id for
// moves.  The caller must hold the lock on every plot row involved.
func (r *BurialRecordRepo) UpdateTx(ctx context.Context, tx *sql.Tx, b *model.BurialRecord) error {
	const q = `UPDATE burial_records SET plot_id = ?, holder_id = ?, deceased_name = ?, birth_date = ?, death_date = ?,
			   burial_date = ?, epitaph = ?, memorial_photo_ref = ?, is_active = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		b.PlotID, b.HolderID, b.DeceasedName, b.BirthDate, b.DeathDate,
		b.BurialDate, b.Epitaph, b.MemorialPhotoRef, b.IsActive, b.ID)
	return err
}

// DeleteTx removes a record.  The caller must hold the plot lock and
// re-evaluate the plot's status afterwards.
func (r *BurialRecordRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM burial_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBurialRecordNotFound
	}
	return nil
}

// ListByPlot returns all records on a plot, newest burial first.
func (r *BurialRecordRepo) ListByPlot(ctx context.Context, plotID uint64) ([]model.BurialRecord, error) {
	return r.list(ctx, `SELECT `+burialColumns+` FROM burial_records WHERE plot_id = ? ORDER BY burial_date DESC, id DESC`, plotID)
}

// SearchByDeceasedName returns active records whose deceased name matches
// the given substring.  Public memorial search; lock-free.
func (r *BurialRecordRepo) SearchByDeceasedName(ctx context.Context, name string) ([]model.BurialRecord, error) {
	return r.list(ctx,
		`SELECT `+burialColumns+` FROM burial_records WHERE is_active = 1 AND deceased_name LIKE ? ORDER BY deceased_name LIMIT 100`,
		"%"+name+"%")
}

func (r *BurialRecordRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.BurialRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BurialRecord, 0)
	for rows.Next() {
		b, err := scanBurialRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
