package tenant

import "propertyhub/model"

type TenantReq struct {
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	Email            string `json:"email" validate:"required,email"`
	Occupation       string `json:"occupation"`
	EmergencyContact string `json:"emergency_contact"`
	EmergencyPhone   string `json:"emergency_phone"`
}

func (r TenantReq) toModel() model.Tenant {
	return model.Tenant{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Phone:            r.Phone,
		Email:            r.Email,
		Occupation:       r.Occupation,
		EmergencyContact: r.EmergencyContact,
		EmergencyPhone:   r.EmergencyPhone,
	}
}
