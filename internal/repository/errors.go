// Package repository defines data access for the registry's core tables.
// This file holds sentinel errors reused across repositories so higher
// layers can distinguish failure scenarios with errors.Is.  The workflow
// layer translates these into its typed error taxonomy; handlers never
// see raw SQL errors.
package repository

import "errors"

// ErrPlotNotFound is returned when a plot lookup yields no rows.
var ErrPlotNotFound = errors.New("plot not found")

// ErrReservationNotFound is returned when a reservation lookup yields no rows.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrBurialRecordNotFound is returned when a burial record lookup yields no rows.
var ErrBurialRecordNotFound = errors.New("burial record not found")

// ErrRequestNotFound is returned when a burial/maintenance request lookup
// yields no rows.
var ErrRequestNotFound = errors.New("request not found")

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when registration hits the unique email key.
var ErrEmailExists = errors.New("email already exists")

// ErrPlotNameExists is returned when plot creation hits the unique name key.
var ErrPlotNameExists = errors.New("plot name already exists")

// ErrPlotReferenced is returned when a plot cannot be deleted because
// burial records still reference it.
var ErrPlotReferenced = errors.New("plot referenced by burial records")
