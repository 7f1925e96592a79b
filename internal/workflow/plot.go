package workflow

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/cemetery-plot-registry/internal/model"
	"github.com/iliyamo/cemetery-plot-registry/internal/repository"
)

var plotTypes = map[string]bool{
	"SINGLE": true,
	"DOUBLE": true,
	"FAMILY": true,
	"NICHE":  true,
}

// PlotManager handles the administrative side of the plot inventory:
// creating plots, editing their details, closing them for maintenance and
// removing them.  Reads go straight to the repo; writes that can change a
// plot's derived status run under the coordinator's row lock.
type PlotManager struct {
	coord *Coordinator
	plots *repository.PlotRepo
}

func NewPlotManager(coord *Coordinator, plots *repository.PlotRepo) *PlotManager {
	if coord == nil || plots == nil {
		panic("nil dependency passed to NewPlotManager")
	}
	return &PlotManager{coord: coord, plots: plots}
}

// PlotInput holds the admin-editable details of a plot.
type PlotInput struct {
	Name        string
	Section     string
	PlotType    string
	SizeSqm     float64
	PriceCents  uint64
	GeometryRef *string
}

func (in *PlotInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Section = strings.TrimSpace(in.Section)
	in.PlotType = strings.ToUpper(strings.TrimSpace(in.PlotType))
	if in.Name == "" {
		return InvalidInput("plot name is required")
	}
	if in.Section == "" {
		return InvalidInput("section is required")
	}
	if !plotTypes[in.PlotType] {
		return InvalidInput("plot type must be one of SINGLE, DOUBLE, FAMILY, NICHE")
	}
	if in.SizeSqm <= 0 {
		return InvalidInput("plot size must be positive")
	}
	return nil
}

// Create adds a new plot to the inventory.  New plots start available
// with a freshly minted public UID.
func (m *PlotManager) Create(ctx context.Context, in PlotInput) (*model.Plot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &model.Plot{
		UID:         uuid.NewString(),
		Name:        in.Name,
		Section:     in.Section,
		PlotType:    in.PlotType,
		SizeSqm:     in.SizeSqm,
		PriceCents:  in.PriceCents,
		GeometryRef: in.GeometryRef,
		Status:      model.PlotAvailable,
	}
	if err := m.plots.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrPlotNameExists) {
			return nil, Conflict("a plot with that name already exists")
		}
		return nil, err
	}
	return p, nil
}

// Update edits a plot's descriptive details.  The derived status and the
// occupant projection are untouched; only admins reach this path.
func (m *PlotManager) Update(ctx context.Context, plotID uint64, in PlotInput) (*model.Plot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *model.Plot
	err := m.coord.WithLockedPlot(ctx, plotID, func(tx *sql.Tx, plot *model.Plot) error {
		plot.Name = in.Name
		plot.Section = in.Section
		plot.PlotType = in.PlotType
		plot.SizeSqm = in.SizeSqm
		plot.PriceCents = in.PriceCents
		plot.GeometryRef = in.GeometryRef
		if err := m.plots.UpdateDetailsTx(ctx, tx, plot); err != nil {
			if errors.Is(err, repository.ErrPlotNameExists) {
				return Conflict("a plot with that name already exists")
			}
			return err
		}
		out = plot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetMaintenance flips the admin maintenance override.  The coordinator
// recomputes the derived status on commit, so closing an occupied plot
// leaves it occupied while blocking new reservations.
func (m *PlotManager) SetMaintenance(ctx context.Context, plotID uint64, on bool) (*model.Plot, error) {
	err := m.coord.WithLockedPlot(ctx, plotID, func(tx *sql.Tx, plot *model.Plot) error {
		return m.plots.SetMaintenanceTx(ctx, tx, plotID, on)
	})
	if err != nil {
		return nil, err
	}
	return m.Get(ctx, plotID)
}

// Delete removes a plot that has no burial or reservation history.
// Referenced plots are kept for the registry's archive and the delete
// is refused.
func (m *PlotManager) Delete(ctx context.Context, plotID uint64) error {
	return m.coord.WithLockedPlot(ctx, plotID, func(tx *sql.Tx, plot *model.Plot) error {
		if plot.Status == model.PlotReserved {
			return Conflict("plot has an active reservation")
		}
		if err := m.plots.DeleteTx(ctx, tx, plotID); err != nil {
			if errors.Is(err, repository.ErrPlotReferenced) {
				return Conflict("plot has burial or reservation history and cannot be deleted")
			}
			return err
		}
		return nil
	})
}

// Get returns a plot by internal id.
func (m *PlotManager) Get(ctx context.Context, plotID uint64) (*model.Plot, error) {
	p, err := m.plots.GetByID(ctx, plotID)
	if err != nil {
		if errors.Is(err, repository.ErrPlotNotFound) {
			return nil, NotFound("plot not found")
		}
		return nil, err
	}
	return p, nil
}

// GetByUID returns a plot by its public UUID.
func (m *PlotManager) GetByUID(ctx context.Context, uid string) (*model.Plot, error) {
	p, err := m.plots.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrPlotNotFound) {
			return nil, NotFound("plot not found")
		}
		return nil, err
	}
	return p, nil
}

// List returns plots matching the filter.
func (m *PlotManager) List(ctx context.Context, f repository.PlotFilter) ([]model.Plot, error) {
	return m.plots.List(ctx, f)
}

// Sections returns the distinct cemetery sections.
func (m *PlotManager) Sections(ctx context.Context) ([]string, error) {
	return m.plots.Sections(ctx)
}

// StatusCounts returns how many plots sit in each lifecycle status.
func (m *PlotManager) StatusCounts(ctx context.Context) (map[model.PlotStatus]int, error) {
	return m.plots.CountByStatus(ctx)
}
