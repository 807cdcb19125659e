package model

import (
	"slices"
	"time"

	"clinicsched/shared/model"
)

const (
	TableName  = "slots"
	EntityName = "slot"

	FieldID              = "id"
	FieldStaffID         = "staff_id"
	FieldStaffName       = "staff_name"
	FieldStaffRole       = "staff_role"
	FieldSlotDate        = "slot_date"
	FieldTimeSlot        = "time_slot"
	FieldRoomCode        = "room_code"
	FieldStatus          = "status"
	FieldCurrentPatients = "current_patients"
	FieldMaxPatients     = "max_patients"
	FieldNote            = "note"
)

// Slot statuses. CANCELLED slots are retained for history and ignored
// by the duplicate-schedule check.
const (
	StatusAvailable = "AVAILABLE"
	StatusOnLeave   = "ON_LEAVE"
	StatusCancelled = "CANCELLED"
)

// TimeSlots enumerates the 30-minute consultation start times. The
// 12:00 and 12:30 starts are excluded for the lunch break.
var TimeSlots = []string{
	"08:00", "08:30", "09:00", "09:30",
	"10:00", "10:30", "11:00", "11:30",
	"13:00", "13:30", "14:00", "14:30",
	"15:00", "15:30", "16:00", "16:30",
}

func IsValidTimeSlot(slot string) bool {
	return slices.Contains(TimeSlots, slot)
}

// IsOffDay reports whether the clinic is closed on the given date.
// Sunday is the weekly off-day; schedules are never created for it.
func IsOffDay(date time.Time) bool {
	return date.Weekday() == time.Sunday
}

// Slot is one unit of schedulable capacity: a staff member on a date at
// a start time, in a room, shared by up to MaxPatients bookings.
type Slot struct {
	ID              string    `db:"id"`
	StaffID         string    `db:"staff_id"`
	StaffName       string    `db:"staff_name"`
	StaffRole       string    `db:"staff_role"`
	SlotDate        time.Time `db:"slot_date"`
	TimeSlot        string    `db:"time_slot"`
	RoomCode        string    `db:"room_code"`
	Status          string    `db:"status"`
	CurrentPatients int       `db:"current_patients"`
	MaxPatients     int       `db:"max_patients"`
	Note            string    `db:"note"`
	model.Metadata
}

// IsOccupied reports whether any booking is attached to the slot.
// Occupied slots cannot be deleted wholesale, only managed per booking.
func (s *Slot) IsOccupied() bool {
	return s.CurrentPatients > 0
}

// HasCapacity reports whether another booking may be admitted.
func (s *Slot) HasCapacity() bool {
	return s.CurrentPatients < s.MaxPatients
}
