package shared_test

import (
	"testing"

	"clinicsched/shared"
	"clinicsched/shared/constant"
	"clinicsched/shared/dto"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{name: "exact division", total: 20, limit: 10, expected: 2},
		{name: "with remainder", total: 21, limit: 10, expected: 3},
		{name: "zero total", total: 0, limit: 10, expected: 1},
		{name: "zero limit", total: 20, limit: 0, expected: 1},
		{name: "total below limit", total: 3, limit: 10, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.CalculateTotalPage(tt.total, tt.limit)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestTransformFields(t *testing.T) {
	type updateRequest struct {
		RoomCode string `db:"room_code"`
		TimeSlot string `db:"time_slot"`
		Note     string `db:"note"`
	}

	req := updateRequest{
		RoomCode: "101",
		TimeSlot: "09:00",
	}

	fields := shared.TransformFields(req, "manager-1")

	if fields["room_code"] != "101" {
		t.Errorf("expected room_code to be 101, got %v", fields["room_code"])
	}

	if fields["time_slot"] != "09:00" {
		t.Errorf("expected time_slot to be 09:00, got %v", fields["time_slot"])
	}

	if _, ok := fields["note"]; ok {
		t.Error("expected zero-valued note to be omitted")
	}

	if fields[constant.FieldModifiedBy] != "manager-1" {
		t.Errorf("expected modified_by to be manager-1, got %v", fields[constant.FieldModifiedBy])
	}

	if _, ok := fields[constant.FieldModifiedAt]; !ok {
		t.Error("expected modified_at to be stamped")
	}
}

func TestFilterByID(t *testing.T) {
	filter := shared.FilterByID("slot-1", "id", "slots")

	if len(filter.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(filter.Filters))
	}

	f, ok := filter.Filters[0].(dto.Filter)
	if !ok {
		t.Fatalf("expected dto.Filter, got %T", filter.Filters[0])
	}

	if f.Field != "id" || f.Value != "slot-1" || f.Table != "slots" {
		t.Errorf("unexpected filter: %+v", f)
	}
}

func TestFilterByStaffAndDate(t *testing.T) {
	filter := shared.FilterByStaffAndDate("staff-1", "2026-09-07", "staff_id", "slot_date", "slots")

	if filter.Operator != dto.FilterGroupOperatorAnd {
		t.Errorf("expected AND operator, got %s", filter.Operator)
	}

	if len(filter.Filters) != 2 {
		t.Fatalf("expected 2 filters, got %d", len(filter.Filters))
	}

	staffFilter, ok := filter.Filters[0].(dto.Filter)
	if !ok || staffFilter.Field != "staff_id" || staffFilter.Value != "staff-1" {
		t.Errorf("unexpected staff filter: %+v", filter.Filters[0])
	}

	dateFilter, ok := filter.Filters[1].(dto.Filter)
	if !ok || dateFilter.Field != "slot_date" || dateFilter.Value != "2026-09-07" {
		t.Errorf("unexpected date filter: %+v", filter.Filters[1])
	}
}
