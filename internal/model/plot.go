package model

import "time"

// PlotStatus enumerates the lifecycle states of a burial plot.  The value
// stored on the plot row is derived: it is recomputed from the plot's
// active reservations and burial records inside every transaction that
// changes either, and is never patched independently.
type PlotStatus string

const (
	PlotAvailable   PlotStatus = "available"   // no active claim of any kind
	PlotReserved    PlotStatus = "reserved"    // an active reservation exists
	PlotOccupied    PlotStatus = "occupied"    // at least one active burial record exists
	PlotMaintenance PlotStatus = "maintenance" // closed by an admin override
)

// Plot represents a single burial plot as stored in the `plots` table.
// Each plot is an addressable, contended resource: at most one active
// reservation and at most one active burial record may claim it.
//
// Fields:
//  ID           – primary key identifier.
//  UID          – public UUID used in external references.
//  Name         – human-readable plot designation (e.g. "B-14").
//  Section      – cemetery section the plot belongs to.
//  PlotType     – SINGLE | DOUBLE | FAMILY | NICHE.
//  SizeSqm      – plot area in square metres.
//  PriceCents   – price of the plot in cents.
//  GeometryRef  – opaque reference to the plot's GeoJSON geometry asset.
//  Status       – derived lifecycle status (see PlotStatus).
//  Maintenance  – admin override flag; forces `maintenance` when the plot
//                 is otherwise available.
//  OccupantName – denormalized name of the current occupant, kept in sync
//                 with the active burial record for search.
//  OccupantBorn – denormalized birth date of the current occupant.
//  OccupantDied – denormalized death date of the current occupant.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Plot struct {
	ID           uint64     // plots.id
	UID          string     // plots.uid
	Name         string     // plots.name
	Section      string     // plots.section
	PlotType     string     // plots.plot_type
	SizeSqm      float64    // plots.size_sqm
	PriceCents   uint64     // plots.price_cents
	GeometryRef  *string    // plots.geometry_ref (nullable)
	Status       PlotStatus // plots.status (derived)
	Maintenance  bool       // plots.maintenance
	OccupantName *string    // plots.occupant_name (nullable)
	OccupantBorn *time.Time // plots.occupant_born (nullable)
	OccupantDied *time.Time // plots.occupant_died (nullable)
	CreatedAt    time.Time  // plots.created_at
	UpdatedAt    time.Time  // plots.updated_at
}

// RecomputePlotStatus derives a plot's status from the number of active
// burial records and active reservations touching it, plus the admin
// maintenance override.  Occupancy wins over reservation, which wins over
// the maintenance flag; a plot with nothing on it is available unless the
// override is set.  Every write path that changes the underlying facts
// must persist the value returned here in the same transaction.
func RecomputePlotStatus(activeBurials, activeReservations int, maintenance bool) PlotStatus {
	switch {
	case activeBurials > 0:
		return PlotOccupied
	case activeReservations > 0:
		return PlotReserved
	case maintenance:
		return PlotMaintenance
	default:
		return PlotAvailable
	}
}
