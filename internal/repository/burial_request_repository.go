package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
)

// BurialRequestRepo provides CRUD operations for burial/maintenance
// request tickets.  Requests never lock a plot, so plain (non-Tx)
// mutations are acceptable here; promotion into a reservation or burial
// record goes through the workflow layer, which takes the plot lock.
type BurialRequestRepo struct {
	db *sql.DB
}

// NewBurialRequestRepo returns a new BurialRequestRepo bound to the given database.
func NewBurialRequestRepo(db *sql.DB) *BurialRequestRepo { return &BurialRequestRepo{db: db} }

const requestColumns = `id, plot_id, requester_id, kind, status, subject_name, notes, created_at, updated_at`

func scanRequest(row interface{ Scan(...interface{}) error }) (*model.BurialRequest, error) {
	var req model.BurialRequest
	var plotID sql.NullInt64
	err := row.Scan(
		&req.ID, &plotID, &req.RequesterID, &req.Kind, &req.Status,
		&req.SubjectName, &req.Notes, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if plotID.Valid {
		v := uint64(plotID.Int64)
		req.PlotID = &v
	}
	return &req, nil
}

// Create inserts a new request and queries the row back.
func (r *BurialRequestRepo) Create(ctx context.Context, req *model.BurialRequest) error {
	const q = `INSERT INTO burial_requests (plot_id, requester_id, kind, status, subject_name, notes) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, req.PlotID, req.RequesterID, req.Kind, req.Status, req.SubjectName, req.Notes)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	got, err := r.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	*req = *got
	return nil
}

// GetByID returns a request by id.
func (r *BurialRequestRepo) GetByID(ctx context.Context, id uint64) (*model.BurialRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM burial_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	return req, err
}

// UpdateStatus moves a request to a new status, guarding against races on
// the ticket itself with a compare-and-set on the previous status.  It
// returns ErrRequestNotFound when the request does not exist or was
// concurrently moved out of the expected status.
func (r *BurialRequestRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.RequestStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE burial_requests SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// ListByRequester returns the user's own tickets, newest first.
func (r *BurialRequestRepo) ListByRequester(ctx context.Context, requesterID uint64) ([]model.BurialRequest, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM burial_requests WHERE requester_id = ? ORDER BY created_at DESC`, requesterID)
}

// ListByStatus returns tickets with the given status, oldest first.
func (r *BurialRequestRepo) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.BurialRequest, error) {
	return r.list(ctx, `SELECT `+requestColumns+` FROM burial_requests WHERE status = ? ORDER BY created_at`, status)
}

func (r *BurialRequestRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.BurialRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BurialRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}
