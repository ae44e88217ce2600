package rentalrequest

import "propertyhub/model"

type CreateReq struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	Occupation string `json:"occupation"`
	UnitID     int64  `json:"unit_id" validate:"required,gt=0"`
	Notes      string `json:"notes" validate:"max=1000"`
}

func (r CreateReq) toModel() model.RentalRequest {
	return model.RentalRequest{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		Occupation: r.Occupation,
		UnitID:     r.UnitID,
		Notes:      r.Notes,
	}
}

// ApproveReq switches to the full approval (tenant, lease, account) when both dates are set.
type ApproveReq struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type RejectReq struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
