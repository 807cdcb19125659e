package dto

import (
	"time"

	"clinicsched/internal/domains/schedule/model"
	"clinicsched/shared"
	"clinicsched/shared/constant"
	gDto "clinicsched/shared/dto"
	gModel "clinicsched/shared/model"
	"clinicsched/shared/timezone"

	"github.com/google/uuid"
)

type CreateScheduleRequest struct {
	StaffID     string `json:"staff_id"     validate:"required"`
	SlotDate    string `json:"slot_date"    validate:"required,datetime=2006-01-02"`
	TimeSlot    string `json:"time_slot"    validate:"required"`
	RoomCode    string `json:"room_code"    validate:"omitempty,roomcode"`
	Status      string `json:"status"       validate:"omitempty,oneof=AVAILABLE ON_LEAVE"`
	MaxPatients int    `json:"max_patients" validate:"omitempty,gte=1,lte=20"`
	Note        string `json:"note"         validate:"omitempty,max=500"`
	RepeatWeeks int    `json:"repeat_weeks" validate:"omitempty,gte=1,lte=8"`
}

// ParseDate resolves the requested calendar day in the clinic timezone.
func (c *CreateScheduleRequest) ParseDate() (time.Time, error) {
	return timezone.Parse(constant.DateOnlyFormat, c.SlotDate)
}

// ToModel builds the slot for the given occurrence date. The staff name
// and role come from the directory, not the request.
func (c *CreateScheduleRequest) ToModel(date time.Time, staffName, staffRole, user string, defaultMaxPatients int) model.Slot {
	status := c.Status
	if status == "" {
		status = model.StatusAvailable
	}

	maxPatients := c.MaxPatients
	if maxPatients == 0 {
		maxPatients = defaultMaxPatients
	}

	return model.Slot{
		ID:              uuid.NewString(),
		StaffID:         c.StaffID,
		StaffName:       staffName,
		StaffRole:       staffRole,
		SlotDate:        date,
		TimeSlot:        c.TimeSlot,
		RoomCode:        c.RoomCode,
		Status:          status,
		CurrentPatients: 0,
		MaxPatients:     maxPatients,
		Note:            c.Note,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// UpdateScheduleRequest re-rooms (and optionally re-times) a whole day:
// the change cascades to every slot sharing the staff and date.
type UpdateScheduleRequest struct {
	RoomCode string `db:"room_code" json:"room_code" validate:"required,roomcode"`
	TimeSlot string `db:"time_slot" json:"time_slot" validate:"omitempty"`
	Note     string `db:"note"      json:"note"      validate:"omitempty,max=500"`
}

type SlotResponse struct {
	ID              string `json:"id"`
	StaffID         string `json:"staff_id"`
	StaffName       string `json:"staff_name"`
	StaffRole       string `json:"staff_role"`
	SlotDate        string `json:"slot_date"`
	TimeSlot        string `json:"time_slot"`
	RoomCode        string `json:"room_code"`
	Status          string `json:"status"`
	CurrentPatients int    `json:"current_patients"`
	MaxPatients     int    `json:"max_patients"`
	Note            string `json:"note,omitempty"`
	gDto.Metadata
}

func (r *SlotResponse) FromModel(model model.Slot) {
	r.ID = model.ID
	r.StaffID = model.StaffID
	r.StaffName = model.StaffName
	r.StaffRole = model.StaffRole
	r.SlotDate = model.SlotDate.Format(constant.DateOnlyFormat)
	r.TimeSlot = model.TimeSlot
	r.RoomCode = model.RoomCode
	r.Status = model.Status
	r.CurrentPatients = model.CurrentPatients
	r.MaxPatients = model.MaxPatients
	r.Note = model.Note
	r.Metadata.FromModel(model.Metadata)
}

// CreateScheduleResponse reports what the repeat expansion actually
// produced: the created slots plus the dates skipped over conflicts.
type CreateScheduleResponse struct {
	Created      []SlotResponse `json:"created"`
	SkippedDates []string       `json:"skipped_dates"`
}

func (r *CreateScheduleResponse) FromModels(models []model.Slot, skipped []time.Time) {
	r.Created = make([]SlotResponse, len(models))
	for i, mod := range models {
		r.Created[i].FromModel(mod)
	}

	r.SkippedDates = make([]string, len(skipped))
	for i, date := range skipped {
		r.SkippedDates[i] = date.Format(constant.DateOnlyFormat)
	}
}

type GetSlotsResponse struct {
	Slots     []SlotResponse `json:"slots"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetSlotsResponse) FromModels(models []model.Slot, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Slots = make([]SlotResponse, len(models))
	for i, mod := range models {
		r.Slots[i].FromModel(mod)
	}
}

// DeleteScheduleResponse distinguishes the two legal outcomes of a
// delete request: the whole day removed, or a refusal the caller must
// route to the sub-slot management flow.
type DeleteScheduleResponse struct {
	Deleted      bool   `json:"deleted"`
	DeletedSlots int64  `json:"deleted_slots,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// ExportScheduleResponse carries the public URL of an uploaded
// day-schedule CSV report.
type ExportScheduleResponse struct {
	URL       string `json:"url"`
	SlotCount int    `json:"slot_count"`
}

// DaySummaryResponse aggregates one staff member's day for the
// calendar view.
type DaySummaryResponse struct {
	StaffID       string `json:"staff_id"`
	SlotDate      string `json:"slot_date"`
	SlotCount     int    `json:"slot_count"`
	TotalPatients int    `json:"total_patients"`
	TotalCapacity int    `json:"total_capacity"`
}

func (r *DaySummaryResponse) FromModels(staffID string, date time.Time, models []model.Slot) {
	r.StaffID = staffID
	r.SlotDate = date.Format(constant.DateOnlyFormat)
	r.SlotCount = len(models)

	for _, mod := range models {
		r.TotalPatients += mod.CurrentPatients
		r.TotalCapacity += mod.MaxPatients
	}
}
