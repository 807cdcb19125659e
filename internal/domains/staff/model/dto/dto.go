package dto

import (
	"clinicsched/internal/domains/staff/model"
	"clinicsched/shared"
	gDto "clinicsched/shared/dto"
	gModel "clinicsched/shared/model"
	"clinicsched/shared/timezone"

	"github.com/google/uuid"
)

type CreateStaffRequest struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	Role     string `json:"role"      validate:"required,oneof=DOCTOR NURSE"`
	Email    string `json:"email"     validate:"omitempty,email,max=100"`
	Phone    string `json:"phone"     validate:"omitempty,max=20"`
}

func (c *CreateStaffRequest) ToModel(user string) model.Staff {
	return model.Staff{
		ID:       uuid.NewString(),
		FullName: c.FullName,
		Role:     c.Role,
		Email:    c.Email,
		Phone:    c.Phone,
		Active:   true,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateStaffRequest struct {
	FullName string `db:"full_name" json:"full_name" validate:"omitempty,max=100"`
	Role     string `db:"role"      json:"role"      validate:"omitempty,oneof=DOCTOR NURSE"`
	Email    string `db:"email"     json:"email"     validate:"omitempty,email,max=100"`
	Phone    string `db:"phone"     json:"phone"     validate:"omitempty,max=20"`
}

type StaffResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Active   bool   `json:"active"`
	gDto.Metadata
}

func (r *StaffResponse) FromModel(model model.Staff) {
	r.ID = model.ID
	r.FullName = model.FullName
	r.Role = model.Role
	r.Email = model.Email
	r.Phone = model.Phone
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetStaffResponse struct {
	Staff     []StaffResponse `json:"staff"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetStaffResponse) FromModels(models []model.Staff, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Staff = make([]StaffResponse, len(models))
	for i, mod := range models {
		r.Staff[i].FromModel(mod)
	}
}
