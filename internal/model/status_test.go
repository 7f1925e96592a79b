package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecomputePlotStatus(t *testing.T) {
	cases := []struct {
		name         string
		burials      int
		reservations int
		maintenance  bool
		want         PlotStatus
	}{
		{"empty plot", 0, 0, false, PlotAvailable},
		{"active reservation", 0, 1, false, PlotReserved},
		{"active burial", 1, 0, false, PlotOccupied},
		{"burial wins over reservation", 1, 1, false, PlotOccupied},
		{"burial wins over maintenance", 2, 0, true, PlotOccupied},
		{"reservation wins over maintenance", 0, 1, true, PlotReserved},
		{"maintenance override", 0, 0, true, PlotMaintenance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecomputePlotStatus(tc.burials, tc.reservations, tc.maintenance)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReservationStatusPredicates(t *testing.T) {
	assert.False(t, ReservationPending.Terminal())
	assert.False(t, ReservationApproved.Terminal())
	assert.True(t, ReservationRejected.Terminal())
	assert.True(t, ReservationCancelled.Terminal())
	assert.True(t, ReservationCompleted.Terminal())

	assert.True(t, ReservationPending.Active())
	assert.True(t, ReservationApproved.Active())
	assert.False(t, ReservationCancelled.Active())
	assert.False(t, ReservationCompleted.Active())
}

func TestPaymentGating(t *testing.T) {
	ref := "receipts/2026/0001.jpg"

	t.Run("no proof uploaded", func(t *testing.T) {
		r := Reservation{Status: ReservationPending, PaymentStatus: PaymentUnpaid}
		assert.True(t, r.CanUploadProof())
		assert.False(t, r.CanValidatePayment())
		assert.False(t, r.CanApprovePayment())
	})

	t.Run("proof submitted", func(t *testing.T) {
		r := Reservation{Status: ReservationPending, PaymentStatus: PaymentSubmitted, PaymentReceiptRef: &ref}
		assert.True(t, r.CanUploadProof()) // replacing the asset is allowed
		assert.True(t, r.CanValidatePayment())
		assert.True(t, r.CanApprovePayment())
	})

	t.Run("payment approved locks uploads", func(t *testing.T) {
		r := Reservation{Status: ReservationApproved, PaymentStatus: PaymentApproved, PaymentReceiptRef: &ref}
		assert.False(t, r.CanUploadProof())
		assert.False(t, r.CanApprovePayment())
	})

	t.Run("terminal reservation is immutable", func(t *testing.T) {
		r := Reservation{Status: ReservationCancelled, PaymentStatus: PaymentSubmitted, PaymentReceiptRef: &ref}
		assert.False(t, r.CanUploadProof())
		assert.False(t, r.CanValidatePayment())
		assert.False(t, r.CanApprovePayment())
		assert.False(t, r.CanCancel())
	})
}

func TestRequestStatusTerminal(t *testing.T) {
	assert.False(t, RequestPending.Terminal())
	assert.False(t, RequestConfirmed.Terminal())
	assert.True(t, RequestRejected.Terminal())
	assert.True(t, RequestCancelled.Terminal())
	assert.True(t, RequestCompleted.Terminal())
}

func TestPlotZeroValueNotOccupied(t *testing.T) {
	// A freshly scanned plot with no relations must never read as occupied.
	p := Plot{CreatedAt: time.Now().UTC()}
	assert.NotEqual(t, PlotOccupied, p.Status)
}
