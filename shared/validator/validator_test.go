package validator_test

import (
	"strings"
	"testing"

	"clinicsched/shared/validator"
)

type createScheduleBody struct {
	StaffID     string `validate:"required"                     json:"staff_id"`
	SlotDate    string `validate:"required,datetime=2006-01-02" json:"slot_date"`
	TimeSlot    string `validate:"required"                     json:"time_slot"`
	RoomCode    string `validate:"omitempty,roomcode"           json:"room_code"`
	RepeatWeeks int    `validate:"omitempty,gte=1,lte=8"        json:"repeat_weeks"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name        string
		data        *createScheduleBody
		expectError bool
	}{
		{
			name: "valid request",
			data: &createScheduleBody{
				StaffID:     "staff-1",
				SlotDate:    "2026-09-07",
				TimeSlot:    "08:00",
				RoomCode:    "101",
				RepeatWeeks: 4,
			},
			expectError: false,
		},
		{
			name: "missing staff id",
			data: &createScheduleBody{
				SlotDate: "2026-09-07",
				TimeSlot: "08:00",
			},
			expectError: true,
		},
		{
			name: "malformed date",
			data: &createScheduleBody{
				StaffID:  "staff-1",
				SlotDate: "07-09-2026",
				TimeSlot: "08:00",
			},
			expectError: true,
		},
		{
			name: "room code with letters",
			data: &createScheduleBody{
				StaffID:  "staff-1",
				SlotDate: "2026-09-07",
				TimeSlot: "08:00",
				RoomCode: "A12",
			},
			expectError: true,
		},
		{
			name: "room code too long",
			data: &createScheduleBody{
				StaffID:  "staff-1",
				SlotDate: "2026-09-07",
				TimeSlot: "08:00",
				RoomCode: "1234",
			},
			expectError: true,
		},
		{
			name: "repeat weeks out of range",
			data: &createScheduleBody{
				StaffID:     "staff-1",
				SlotDate:    "2026-09-07",
				TimeSlot:    "08:00",
				RepeatWeeks: 9,
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(tt.data)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidateVar_RoomCode(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		expectError bool
	}{
		{name: "single digit", field: "5", expectError: false},
		{name: "two digits", field: "42", expectError: false},
		{name: "three digits", field: "101", expectError: false},
		{name: "four digits", field: "1234", expectError: true},
		{name: "letters", field: "ICU", expectError: true},
		{name: "mixed", field: "1A", expectError: true},
		{name: "empty", field: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVar(tt.field, "roomcode")

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		jsonBody    string
		expectError bool
	}{
		{
			name:        "valid JSON",
			jsonBody:    `{"staff_id":"staff-1","slot_date":"2026-09-07","time_slot":"08:00","room_code":"101"}`,
			expectError: false,
		},
		{
			name:        "invalid room code",
			jsonBody:    `{"staff_id":"staff-1","slot_date":"2026-09-07","time_slot":"08:00","room_code":"Ward-1"}`,
			expectError: true,
		},
		{
			name:        "malformed JSON",
			jsonBody:    `{"staff_id":"staff-1","slot_date":}`,
			expectError: true,
		},
		{
			name:        "empty JSON",
			jsonBody:    `{}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := strings.NewReader(tt.jsonBody)
			var data createScheduleBody
			err := validator.Validate(reader, &data)

			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("expected no validation error, got: %v", err)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	data := &createScheduleBody{}
	err := validator.ValidateStruct(data)

	if err == nil {
		t.Fatal("expected validation error for empty struct")
	}

	errorMsg := err.Error()

	if !strings.Contains(errorMsg, "required") || errorMsg == "" {
		t.Errorf("expected descriptive error message containing 'required', got: %s", errorMsg)
	}
}
