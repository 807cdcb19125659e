package dto_test

import (
	"testing"
	"time"

	"clinicsched/internal/domains/schedule/model"
	"clinicsched/internal/domains/schedule/model/dto"
)

func TestCreateScheduleRequest_ToModel(t *testing.T) {
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	t.Run("defaults applied", func(t *testing.T) {
		req := dto.CreateScheduleRequest{
			StaffID:  "staff-1",
			SlotDate: "2026-09-07",
			TimeSlot: "08:00",
		}

		slot := req.ToModel(date, "Dr. Lan", "DOCTOR", "manager-1", 5)

		if slot.Status != model.StatusAvailable {
			t.Errorf("expected default status AVAILABLE, got %s", slot.Status)
		}

		if slot.MaxPatients != 5 {
			t.Errorf("expected default max patients 5, got %d", slot.MaxPatients)
		}

		if slot.CurrentPatients != 0 {
			t.Errorf("expected zero current patients, got %d", slot.CurrentPatients)
		}

		if slot.StaffName != "Dr. Lan" || slot.StaffRole != "DOCTOR" {
			t.Errorf("expected staff identity from the directory, got %s/%s", slot.StaffName, slot.StaffRole)
		}

		if slot.ID == "" {
			t.Error("expected a generated slot id")
		}

		if slot.CreatedBy != "manager-1" || slot.ModifiedBy != "manager-1" {
			t.Errorf("expected audit fields stamped with manager-1, got %s/%s", slot.CreatedBy, slot.ModifiedBy)
		}
	})

	t.Run("explicit values preserved", func(t *testing.T) {
		req := dto.CreateScheduleRequest{
			StaffID:     "staff-1",
			SlotDate:    "2026-09-07",
			TimeSlot:    "08:00",
			Status:      model.StatusOnLeave,
			MaxPatients: 8,
			RoomCode:    "101",
		}

		slot := req.ToModel(date, "Dr. Lan", "DOCTOR", "manager-1", 5)

		if slot.Status != model.StatusOnLeave {
			t.Errorf("expected status ON_LEAVE, got %s", slot.Status)
		}

		if slot.MaxPatients != 8 {
			t.Errorf("expected max patients 8, got %d", slot.MaxPatients)
		}

		if slot.RoomCode != "101" {
			t.Errorf("expected room code 101, got %s", slot.RoomCode)
		}
	})
}

func TestCreateScheduleResponse_FromModels(t *testing.T) {
	created := []model.Slot{
		{
			ID:       "slot-1",
			StaffID:  "staff-1",
			SlotDate: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
			TimeSlot: "08:00",
		},
		{
			ID:       "slot-2",
			StaffID:  "staff-1",
			SlotDate: time.Date(2026, 9, 21, 0, 0, 0, 0, time.UTC),
			TimeSlot: "08:00",
		},
	}
	skipped := []time.Time{time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)}

	var res dto.CreateScheduleResponse
	res.FromModels(created, skipped)

	if len(res.Created) != 2 {
		t.Fatalf("expected 2 created slots, got %d", len(res.Created))
	}

	if res.Created[0].SlotDate != "2026-09-07" {
		t.Errorf("expected first slot date 2026-09-07, got %s", res.Created[0].SlotDate)
	}

	if len(res.SkippedDates) != 1 || res.SkippedDates[0] != "2026-09-14" {
		t.Errorf("expected skipped dates [2026-09-14], got %v", res.SkippedDates)
	}
}

func TestDaySummaryResponse_FromModels(t *testing.T) {
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots := []model.Slot{
		{CurrentPatients: 2, MaxPatients: 5},
		{CurrentPatients: 0, MaxPatients: 5},
		{CurrentPatients: 4, MaxPatients: 8},
	}

	var res dto.DaySummaryResponse
	res.FromModels("staff-1", date, slots)

	if res.SlotCount != 3 {
		t.Errorf("expected slot count 3, got %d", res.SlotCount)
	}

	if res.TotalPatients != 6 {
		t.Errorf("expected total patients 6, got %d", res.TotalPatients)
	}

	if res.TotalCapacity != 18 {
		t.Errorf("expected total capacity 18, got %d", res.TotalCapacity)
	}

	if res.SlotDate != "2026-09-07" {
		t.Errorf("expected slot date 2026-09-07, got %s", res.SlotDate)
	}
}
