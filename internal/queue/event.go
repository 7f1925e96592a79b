// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationApprovedEvent is published when an admin grants a plot to a
// reservation holder.  Downstream consumers notify the holder or feed
// reporting without querying the primary database.
type ReservationApprovedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	PlotID        uint64 `json:"plot_id"`
	PlotName      string `json:"plot_name"`
	Section       string `json:"section"`
	HolderID      uint64 `json:"holder_id"`
	PriceCents    uint64 `json:"price_cents"`
	ApprovedAt    string `json:"approved_at"`
}

// BurialConfirmedEvent is published when a burial record is created,
// either from an approved reservation or directly by staff.  It carries
// everything the interment log needs.
type BurialConfirmedEvent struct {
	RecordID      uint64  `json:"record_id"`
	ReservationID *uint64 `json:"reservation_id,omitempty"`
	PlotID        uint64  `json:"plot_id"`
	PlotName      string  `json:"plot_name"`
	Section       string  `json:"section"`
	DeceasedName  string  `json:"deceased_name"`
	BurialDate    string  `json:"burial_date"`
	ConfirmedAt   string  `json:"confirmed_at"`
}
