package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
)

// PlotRepo provides CRUD operations for plots.  Plots are the contended
// resource of the whole system: their status column is derived state and
// must only be rewritten through UpdateDerivedTx while the row is held
// under SELECT ... FOR UPDATE.  Unlocked reads are for listings only and
// may be stale.
type PlotRepo struct {
	db *sql.DB
}

// NewPlotRepo returns a new PlotRepo bound to the given database.
func NewPlotRepo(db *sql.DB) *PlotRepo { return &PlotRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *PlotRepo) DB() *sql.DB { return r.db }

const plotColumns = `id, uid, name, section, plot_type, size_sqm, price_cents, geometry_ref,
	status, maintenance, occupant_name, occupant_born, occupant_died, created_at, updated_at`

func scanPlot(row interface{ Scan(...interface{}) error }) (*model.Plot, error) {
	var p model.Plot
	var geometryRef, occupantName sql.NullString
	var born, died sql.NullTime
	err := row.Scan(
		&p.ID, &p.UID, &p.Name, &p.Section, &p.PlotType, &p.SizeSqm, &p.PriceCents, &geometryRef,
		&p.Status, &p.Maintenance, &occupantName, &born, &died, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if geometryRef.Valid {
		v := geometryRef.String
		p.GeometryRef = &v
	}
	if occupantName.Valid {
		v := occupantName.String
		p.OccupantName = &v
	}
	if born.Valid {
		v := born.Time
		p.OccupantBorn = &v
	}
	if died.Valid {
		v := died.Time
		p.OccupantDied = &v
	}
	return &p, nil
}

// Create inserts a new plot and queries the row back to populate defaults.
// The unique name key maps to ErrPlotNameExists.
func (r *PlotRepo) Create(ctx context.Context, p *model.Plot) error {
	const q = `INSERT INTO plots (uid, name, section, plot_type, size_sqm, price_cents, geometry_ref, status, maintenance)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		p.UID, p.Name, p.Section, p.PlotType, p.SizeSqm, p.PriceCents, p.GeometryRef, p.Status, p.Maintenance)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrPlotNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	got, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetByID returns a plot without locking it.  Suitable for listings and
// pre-lock existence checks only; authoritative reads go through
// GetForUpdateTx.
func (r *PlotRepo) GetByID(ctx context.Context, id uint64) (*model.Plot, error) {
	p, err := scanPlot(r.db.QueryRowContext(ctx, `SELECT `+plotColumns+` FROM plots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlotNotFound
	}
	return p, err
}

// GetByUID returns a plot by its public UUID without locking it.
func (r *PlotRepo) GetByUID(ctx context.Context, uid string) (*model.Plot, error) {
	p, err := scanPlot(r.db.QueryRowContext(ctx, `SELECT `+plotColumns+` FROM plots WHERE uid = ?`, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlotNotFound
	}
	return p, err
}

// GetForUpdateTx acquires the exclusive row lock on a plot inside the
// given transaction and returns the locked snapshot.  Concurrent callers
// on the same plot block here until the holder commits or rolls back.
func (r *PlotRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Plot, error) {
	p, err := scanPlot(tx.QueryRowContext(ctx, `SELECT `+plotColumns+` FROM plots WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlotNotFound
	}
	return p, err
}

// PlotFilter narrows List results.  Zero values mean "no filter".
type PlotFilter struct {
	Status  model.PlotStatus
	Section string
}

// List returns plots matching the filter ordered by section then name.
// This is a lock-free read of committed data; staleness is tolerated.
func (r *PlotRepo) List(ctx context.Context, f PlotFilter) ([]model.Plot, error) {
	q := `SELECT ` + plotColumns + ` FROM plots`
	var conds []string
	var args []interface{}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Section != "" {
		conds = append(conds, "section = ?")
		args = append(args, f.Section)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY section, name"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plots := make([]model.Plot, 0)
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, err
		}
		plots = append(plots, *p)
	}
	return plots, rows.Err()
}

// OccupantProjection carries the denormalized occupant fields kept on the
// plot row for search.  A nil Name clears the projection.
type OccupantProjection struct {
	Name *string
	Born *time.Time
	Died *time.Time
}

// UpdateDerivedTx rewrites the derived columns of a plot: status and the
// occupant projection.  Must only be called while the plot row is locked
// in the same transaction.
func (r *PlotRepo) UpdateDerivedTx(ctx context.Context, tx *sql.Tx, id uint64, status model.PlotStatus, occ OccupantProjection) error {
	const q = `UPDATE plots SET status = ?, occupant_name = ?, occupant_born = ?, occupant_died = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, occ.Name, occ.Born, occ.Died, id)
	return err
}

// SetMaintenanceTx flips the admin maintenance override.  The caller must
// hold the plot lock; the derived status is rewritten separately by the
// coordinator.
func (r *PlotRepo) SetMaintenanceTx(ctx context.Context, tx *sql.Tx, id uint64, on bool) error {
	_, err := tx.ExecContext(ctx, `UPDATE plots SET maintenance = ? WHERE id = ?`, on, id)
	return err
}

// UpdateDetailsTx rewrites the descriptive attributes of a plot.  Derived
// columns are untouched.
func (r *PlotRepo) UpdateDetailsTx(ctx context.Context, tx *sql.Tx, p *model.Plot) error {
	const q = `UPDATE plots SET name = ?, section = ?, plot_type = ?, size_sqm = ?, price_cents = ?, geometry_ref = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, p.Name, p.Section, p.PlotType, p.SizeSqm, p.PriceCents, p.GeometryRef, p.ID)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return ErrPlotNameExists
		}
	}
	return err
}

// DeleteTx removes a plot.  Plots referenced by any burial record or
// reservation, active or not, must never be deleted; the checks run inside
// the transaction so they cannot race a concurrent write on the locked row.
func (r *PlotRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM burial_records WHERE plot_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE plot_id = ?`, id).Scan(&n); err != nil {
			return err
		}
	}
	if n > 0 {
		return ErrPlotReferenced
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM plots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPlotNotFound
	}
	return nil
}

// Sections returns the distinct section names in use, for browse grouping.
func (r *PlotRepo) Sections(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT section FROM plots ORDER BY section`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sections := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// CountByStatus returns how many plots currently carry each status.  Used
// by the public browse summary; reads committed data without locks.
func (r *PlotRepo) CountByStatus(ctx context.Context) (map[model.PlotStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM plots GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[model.PlotStatus]int)
	for rows.Next() {
		var s model.PlotStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}
