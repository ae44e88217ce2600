package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type UnitStatus string

const (
	UnitAvailable   UnitStatus = "AVAILABLE"
	UnitOccupied    UnitStatus = "OCCUPIED"
	UnitMaintenance UnitStatus = "MAINTENANCE"
	UnitReserved    UnitStatus = "RESERVED"
)

type Unit struct {
	ID         int64           `json:"id"`
	RoomNumber string          `json:"room_number"`
	Floor      int             `json:"floor"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Size       float64         `json:"size"`
	Status     UnitStatus      `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
