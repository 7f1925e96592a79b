package model

import "time"

// BurialRecord is the terminal, occupancy-establishing record for a plot.
// A plot with at least one active record is occupied; creating a record
// therefore requires the target plot not already be occupied.  Records
// are created by admins directly or by confirming an approved
// reservation.
//
// Fields:
//  ID               – primary key identifier.
//  PlotID           – plot holding the remains.
//  ReservationID    – reservation the record was confirmed from, if any.
//  HolderID         – user responsible for the record (next of kin).
//  DeceasedName     – full name of the deceased.
//  BirthDate        – date of birth, when known.
//  DeathDate        – date of death.
//  BurialDate       – date of interment.
//  Epitaph          – memorial inscription text.
//  MemorialPhotoRef – opaque reference to the memorial photo asset.
//  IsActive         – whether the record currently establishes occupancy.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type BurialRecord struct {
	ID               uint64     // burial_records.id
	PlotID           uint64     // burial_records.plot_id
	ReservationID    *uint64    // burial_records.reservation_id (nullable)
	HolderID         *uint64    // burial_records.holder_id (nullable)
	DeceasedName     string     // burial_records.deceased_name
	BirthDate        *time.Time // burial_records.birth_date (nullable)
	DeathDate        *time.Time // burial_records.death_date (nullable)
	BurialDate       time.Time  // burial_records.burial_date
	Epitaph          *string    // burial_records.epitaph (nullable)
	MemorialPhotoRef *string    // burial_records.memorial_photo_ref (nullable)
	IsActive         bool       // burial_records.is_active
	CreatedAt        time.Time  // burial_records.created_at
	UpdatedAt        time.Time  // burial_records.updated_at
}
