package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeaseStatus string

const (
	LeasePending    LeaseStatus = "PENDING"
	LeaseActive     LeaseStatus = "ACTIVE"
	LeaseExpired    LeaseStatus = "EXPIRED"
	LeaseTerminated LeaseStatus = "TERMINATED"
)

type Lease struct {
	ID                int64           `json:"id"`
	UnitID            int64           `json:"unit_id"`
	TenantID          int64           `json:"tenant_id"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	RentAmount        decimal.Decimal `json:"rent_amount"`
	SecurityDeposit   decimal.Decimal `json:"security_deposit"`
	Status            LeaseStatus     `json:"status"`
	TerminationReason *string         `json:"termination_reason,omitempty"`
	DocumentKey       *string         `json:"document_key,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Overlaps reports whether the inclusive ranges share at least one day.
func (l Lease) Overlaps(start, end time.Time) bool {
	return !l.StartDate.After(end) && !l.EndDate.Before(start)
}

// LeaseUpdate carries the mutable fields; nil means unchanged.
type LeaseUpdate struct {
	StartDate       *time.Time
	EndDate         *time.Time
	RentAmount      *decimal.Decimal
	SecurityDeposit *decimal.Decimal
}
