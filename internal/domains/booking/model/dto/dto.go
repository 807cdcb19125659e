package dto

import (
	"time"

	"clinicsched/internal/domains/booking/model"
	"clinicsched/shared/constant"
	gDto "clinicsched/shared/dto"
	gModel "clinicsched/shared/model"
	"clinicsched/shared/timezone"

	"github.com/google/uuid"
)

// statusLabels maps canonical booking statuses to the Vietnamese
// display strings the clinic UI shows. Presentation only: logic always
// compares against the canonical constants.
var statusLabels = map[string]string{
	model.StatusActive:    "Đang hoạt động",
	model.StatusCancelled: "Đã hủy",
	model.StatusEmpty:     "Trống",
}

// StatusLabel returns the display label for a canonical status,
// falling back to the status itself.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}

	return status
}

type CreateBookingRequest struct {
	StaffID     string `json:"staff_id"     validate:"required"`
	SlotDate    string `json:"slot_date"    validate:"required,datetime=2006-01-02"`
	TimeSlot    string `json:"time_slot"    validate:"required"`
	PatientID   string `json:"patient_id"   validate:"omitempty,max=50"`
	PatientName string `json:"patient_name" validate:"omitempty,max=100"`
}

// ParseDate resolves the requested calendar day in the clinic timezone.
func (c *CreateBookingRequest) ParseDate() (time.Time, error) {
	return timezone.Parse(constant.DateOnlyFormat, c.SlotDate)
}

func (c *CreateBookingRequest) ToModel(date time.Time, user string) model.Booking {
	return model.Booking{
		ID:          uuid.NewString(),
		StaffID:     c.StaffID,
		SlotDate:    date,
		TimeSlot:    c.TimeSlot,
		PatientID:   c.PatientID,
		PatientName: c.PatientName,
		Status:      model.StatusActive,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type BookingResponse struct {
	ID          string `json:"id"`
	StaffID     string `json:"staff_id"`
	SlotDate    string `json:"slot_date"`
	TimeSlot    string `json:"time_slot"`
	PatientID   string `json:"patient_id,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.StaffID = model.StaffID
	r.SlotDate = model.SlotDate.Format(constant.DateOnlyFormat)
	r.TimeSlot = model.TimeSlot
	r.PatientID = model.PatientID
	r.PatientName = model.PatientName
	r.Status = model.Status
	r.StatusLabel = StatusLabel(model.Status)
	r.Metadata.FromModel(model.Metadata)
}

// SubSlotView is one capacity unit of a slot, real or synthesized. The
// sequence is always maxPatients long, in booking-creation order, with
// EMPTY placeholders padding the tail.
type SubSlotView struct {
	SlotNumber  int    `json:"slot_number"`
	BookingID   string `json:"booking_id,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	Status      string `json:"status"`
	StatusLabel string `json:"status_label"`
	CanCancel   bool   `json:"can_cancel"`
	CanDelete   bool   `json:"can_delete"`
}

type SubSlotsResponse struct {
	StaffID  string        `json:"staff_id"`
	SlotDate string        `json:"slot_date"`
	TimeSlot string        `json:"time_slot"`
	SubSlots []SubSlotView `json:"sub_slots"`
}

// CancelBookingResponse distinguishes a performed cancellation from the
// benign "nothing to cancel" outcome on virtual or already-cancelled
// entries.
type CancelBookingResponse struct {
	Cancelled bool   `json:"cancelled"`
	Reason    string `json:"reason,omitempty"`
}
