package failure_test

import (
	"errors"
	"net/http"
	"testing"

	"clinicsched/shared/failure"
)

func TestFailure_Error(t *testing.T) {
	f := &failure.Failure{
		Code:    http.StatusBadRequest,
		Message: "test error message",
	}

	if f.Error() != "test error message" {
		t.Errorf("expected error message to be 'test error message', got %s", f.Error())
	}
}

func TestPredefinedFailures(t *testing.T) {
	tests := []struct {
		name    string
		failure *failure.Failure
		code    int
		message string
	}{
		{
			name:    "InvalidPageParam",
			failure: failure.InvalidPageParam,
			code:    http.StatusBadRequest,
			message: "invalid page parameter",
		},
		{
			name:    "InvalidLimitParam",
			failure: failure.InvalidLimitParam,
			code:    http.StatusBadRequest,
			message: "invalid limit parameter",
		},
		{
			name:    "ForbiddenError",
			failure: failure.ForbiddenError,
			code:    http.StatusForbidden,
			message: "You don't have the required permissions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.failure.Code != tt.code {
				t.Errorf("expected code to be %d, got %d", tt.code, tt.failure.Code)
			}
			if tt.failure.Message != tt.message {
				t.Errorf("expected message to be %s, got %s", tt.message, tt.failure.Message)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		result  error
		code    int
		message string
	}{
		{
			name:    "Validation",
			result:  failure.Validation("schedules cannot be created on Sunday"),
			code:    http.StatusBadRequest,
			message: "schedules cannot be created on Sunday",
		},
		{
			name:    "Conflict",
			result:  failure.Conflict("a schedule already exists for this staff member and date"),
			code:    http.StatusConflict,
			message: "a schedule already exists for this staff member and date",
		},
		{
			name:    "Capacity",
			result:  failure.Capacity("slot is full"),
			code:    http.StatusUnprocessableEntity,
			message: "slot is full",
		},
		{
			name:    "NotFound",
			result:  failure.NotFound("slot not found"),
			code:    http.StatusNotFound,
			message: "slot not found",
		},
		{
			name:    "Unauthorized",
			result:  failure.Unauthorized("token expired"),
			code:    http.StatusUnauthorized,
			message: "token expired",
		},
		{
			name:    "Forbidden",
			result:  failure.Forbidden("Access denied"),
			code:    http.StatusForbidden,
			message: "Access denied",
		},
		{
			name:    "BadRequestFromString",
			result:  failure.BadRequestFromString("custom bad request"),
			code:    http.StatusBadRequest,
			message: "custom bad request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := tt.result.(*failure.Failure)
			if !ok {
				t.Fatalf("expected result to be *failure.Failure, got %T", tt.result)
			}
			if f.Code != tt.code {
				t.Errorf("expected code to be %d, got %d", tt.code, f.Code)
			}
			if f.Message != tt.message {
				t.Errorf("expected message to be %s, got %s", tt.message, f.Message)
			}
		})
	}
}

func TestBadRequest(t *testing.T) {
	result := failure.BadRequest(errors.New("validation failed"))

	f, ok := result.(*failure.Failure)
	if !ok {
		t.Fatalf("expected result to be *failure.Failure, got %T", result)
	}
	if f.Code != http.StatusBadRequest || f.Message != "validation failed" {
		t.Errorf("unexpected failure: %+v", f)
	}

	if failure.BadRequest(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestInternalError(t *testing.T) {
	result := failure.InternalError(errors.New("database connection failed"))

	f, ok := result.(*failure.Failure)
	if !ok {
		t.Fatalf("expected result to be *failure.Failure, got %T", result)
	}
	if f.Code != http.StatusInternalServerError || f.Message != "database connection failed" {
		t.Errorf("unexpected failure: %+v", f)
	}

	if failure.InternalError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		expected int
	}{
		{
			name:     "failure error",
			input:    &failure.Failure{Code: http.StatusBadRequest, Message: "test"},
			expected: http.StatusBadRequest,
		},
		{
			name:     "capacity failure",
			input:    failure.Capacity("slot is full"),
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "regular error",
			input:    errors.New("regular error"),
			expected: http.StatusInternalServerError,
		},
		{
			name:     "nil error",
			input:    nil,
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := failure.GetCode(tt.input)
			if result != tt.expected {
				t.Errorf("expected code to be %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	if !failure.IsConflict(failure.Conflict("duplicate")) {
		t.Error("expected IsConflict to be true for a conflict failure")
	}

	if !failure.IsCapacity(failure.Capacity("full")) {
		t.Error("expected IsCapacity to be true for a capacity failure")
	}

	if !failure.IsNotFound(failure.NotFound("missing")) {
		t.Error("expected IsNotFound to be true for a not-found failure")
	}

	if failure.IsConflict(errors.New("plain error")) {
		t.Error("expected IsConflict to be false for a plain error")
	}

	if failure.IsCapacity(failure.Conflict("duplicate")) {
		t.Error("expected IsCapacity to be false for a conflict failure")
	}
}
