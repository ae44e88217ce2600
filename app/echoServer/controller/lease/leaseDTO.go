package lease

import (
	"github.com/shopspring/decimal"

	"propertyhub/app/echoServer/controller"
	"propertyhub/model"
)

type CreateLeaseReq struct {
	UnitID          int64           `json:"unit_id" validate:"required,gt=0"`
	TenantID        int64           `json:"tenant_id" validate:"required,gt=0"`
	StartDate       string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	RentAmount      decimal.Decimal `json:"rent_amount"`
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	// Pending files the lease for later activation instead of opening it now.
	Pending bool `json:"pending"`
}

func (r CreateLeaseReq) toModel() (model.Lease, error) {
	start, err := controller.Date(r.StartDate)
	if err != nil {
		return model.Lease{}, err
	}
	end, err := controller.Date(r.EndDate)
	if err != nil {
		return model.Lease{}, err
	}
	return model.Lease{
		UnitID:          r.UnitID,
		TenantID:        r.TenantID,
		StartDate:       start,
		EndDate:         end,
		RentAmount:      r.RentAmount,
		SecurityDeposit: r.SecurityDeposit,
	}, nil
}

type UpdateLeaseReq struct {
	StartDate       *string          `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate         *string          `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	RentAmount      *decimal.Decimal `json:"rent_amount"`
	SecurityDeposit *decimal.Decimal `json:"security_deposit"`
}

func (r UpdateLeaseReq) toModel() (model.LeaseUpdate, error) {
	upd := model.LeaseUpdate{RentAmount: r.RentAmount, SecurityDeposit: r.SecurityDeposit}
	if r.StartDate != nil {
		t, err := controller.Date(*r.StartDate)
		if err != nil {
			return upd, err
		}
		upd.StartDate = &t
	}
	if r.EndDate != nil {
		t, err := controller.Date(*r.EndDate)
		if err != nil {
			return upd, err
		}
		upd.EndDate = &t
	}
	return upd, nil
}

type TerminateReq struct {
	Reason string `json:"reason" validate:"max=500"`
}
