package model

import "time"

type RentalRequestStatus string

const (
	RequestPending   RentalRequestStatus = "PENDING"
	RequestApproved  RentalRequestStatus = "APPROVED"
	RequestRejected  RentalRequestStatus = "REJECTED"
	RequestCompleted RentalRequestStatus = "COMPLETED"
)

type RentalRequest struct {
	ID                      int64               `json:"id"`
	UserID                  *int64              `json:"user_id,omitempty"`
	FirstName               string              `json:"first_name"`
	LastName                string              `json:"last_name"`
	Email                   string              `json:"email"`
	Phone                   string              `json:"phone"`
	Occupation              string              `json:"occupation"`
	UnitID                  int64               `json:"unit_id"`
	Status                  RentalRequestStatus `json:"status"`
	Notes                   string              `json:"notes"`
	RequestDate             time.Time           `json:"request_date"`
	ApprovedBy              *int64              `json:"approved_by,omitempty"`
	ApprovedAt              *time.Time          `json:"approved_at,omitempty"`
	RejectedBy              *int64              `json:"rejected_by,omitempty"`
	RejectedAt              *time.Time          `json:"rejected_at,omitempty"`
	RejectionReason         *string             `json:"rejection_reason,omitempty"`
	RejectionAcknowledgedAt *time.Time          `json:"rejection_acknowledged_at,omitempty"`
	LeaseID                 *int64              `json:"lease_id,omitempty"`
	UpdatedAt               time.Time           `json:"updated_at"`
}

func (r *RentalRequest) IsPending() bool  { return r.Status == RequestPending }
func (r *RentalRequest) IsApproved() bool { return r.Status == RequestApproved }
func (r *RentalRequest) IsRejected() bool { return r.Status == RequestRejected }

// AwaitingAcknowledgement is true for a rejection the applicant has not seen yet.
func (r *RentalRequest) AwaitingAcknowledgement() bool {
	return r.IsRejected() && r.RejectionAcknowledgedAt == nil
}

// OwnedBy matches either the linked account or, for anonymous applications, the email.
func (r *RentalRequest) OwnedBy(p Principal) bool {
	if r.UserID != nil && *r.UserID == p.UserID {
		return true
	}
	return p.Email != "" && equalFold(r.Email, p.Email)
}

// MyRentalRequest is the applicant-facing projection of the latest request.
type MyRentalRequest struct {
	Request                 RentalRequest `json:"request"`
	Unit                    *Unit         `json:"unit,omitempty"`
	Lease                   *Lease        `json:"lease,omitempty"`
	IsPending               bool          `json:"is_pending"`
	IsApproved              bool          `json:"is_approved"`
	IsRejected              bool          `json:"is_rejected"`
	RequiresAcknowledgement bool          `json:"requires_acknowledgement"`
	HasActiveLease          bool          `json:"has_active_lease"`
	CanCreateNewRequest     bool          `json:"can_create_new_request"`
	StatusMessage           string        `json:"status_message"`
}
