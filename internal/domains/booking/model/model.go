package model

import (
	"time"

	"clinicsched/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID          = "id"
	FieldStaffID     = "staff_id"
	FieldSlotDate    = "slot_date"
	FieldTimeSlot    = "time_slot"
	FieldPatientID   = "patient_id"
	FieldPatientName = "patient_name"
	FieldStatus      = "status"
)

// Booking statuses. EMPTY is never persisted: unfilled capacity units
// are synthesized by the sub-slot view, and a persisted row without a
// patient is a reserved placeholder.
const (
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
	StatusEmpty     = "EMPTY"
)

// Booking is one patient's occupancy of a capacity unit within the
// (staff, date, time slot) triple.
type Booking struct {
	ID          string    `db:"id"`
	StaffID     string    `db:"staff_id"`
	SlotDate    time.Time `db:"slot_date"`
	TimeSlot    string    `db:"time_slot"`
	PatientID   string    `db:"patient_id"`
	PatientName string    `db:"patient_name"`
	Status      string    `db:"status"`
	model.Metadata
}

// IsPlaceholder reports whether the row reserves capacity without a
// patient attached. Placeholders may be hard-deleted; real bookings may
// only be cancelled.
func (b *Booking) IsPlaceholder() bool {
	return b.PatientID == ""
}
