package model

import (
	"clinicsched/shared/model"
)

const (
	TableName  = "staff"
	EntityName = "staff"

	FieldID       = "id"
	FieldFullName = "full_name"
	FieldRole     = "role"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldActive   = "active"
)

// Staff is a clinical staff member who can hold consultation slots.
type Staff struct {
	ID       string `db:"id"`
	FullName string `db:"full_name"`
	Role     string `db:"role"`
	Email    string `db:"email"`
	Phone    string `db:"phone"`
	Active   bool   `db:"active"`
	model.Metadata
}
