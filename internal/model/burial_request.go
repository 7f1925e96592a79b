package model

import "time"

// RequestKind distinguishes the two ticket types visitors can file.
type RequestKind string

const (
	RequestBurial      RequestKind = "burial"
	RequestMaintenance RequestKind = "maintenance"
)

// RequestStatus enumerates the ticket lifecycle.  Unlike a reservation,
// a request never locks a plot: it is a non-binding ticket that staff may
// promote into a reservation or a burial record.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestConfirmed RequestStatus = "confirmed"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
	RequestCompleted RequestStatus = "completed"
)

// Terminal reports whether the request can no longer change state.
func (s RequestStatus) Terminal() bool {
	switch s {
	case RequestRejected, RequestCancelled, RequestCompleted:
		return true
	}
	return false
}

// BurialRequest is a lightweight ticket filed by a visitor, upstream of
// the binding reservation/burial-record flow.
//
// Fields:
//  ID          – primary key identifier.
//  PlotID      – requested plot, when the visitor has chosen one.
//  RequesterID – user who filed the ticket.
//  Kind        – burial or maintenance.
//  Status      – ticket lifecycle state (see RequestStatus).
//  SubjectName – name of the deceased (burial) or a short summary
//                (maintenance).
//  Notes       – free-form details supplied by the requester.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type BurialRequest struct {
	ID          uint64        // burial_requests.id
	PlotID      *uint64       // burial_requests.plot_id (nullable)
	RequesterID uint64        // burial_requests.requester_id
	Kind        RequestKind   // burial_requests.kind
	Status      RequestStatus // burial_requests.status
	SubjectName string        // burial_requests.subject_name
	Notes       string        // burial_requests.notes
	CreatedAt   time.Time     // burial_requests.created_at
	UpdatedAt   time.Time     // burial_requests.updated_at
}
