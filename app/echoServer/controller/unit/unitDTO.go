package unit

import (
	"github.com/shopspring/decimal"

	"propertyhub/model"
)

type UnitReq struct {
	RoomNumber string          `json:"room_number" validate:"required,max=50"`
	Floor      int             `json:"floor" validate:"gte=0"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Size       float64         `json:"size" validate:"gte=0"`
}

func (r UnitReq) toModel() model.Unit {
	return model.Unit{RoomNumber: r.RoomNumber, Floor: r.Floor, RentAmount: r.RentAmount, Size: r.Size}
}
