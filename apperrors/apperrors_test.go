package apperrors

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindUnauthorized, fiber.StatusUnauthorized},
		{KindForbidden, fiber.StatusForbidden},
		{KindNotFound, fiber.StatusNotFound},
		{KindDuplicateIdentifier, fiber.StatusConflict},
		{KindAlreadyEnrolled, fiber.StatusConflict},
		{KindOfferingFull, fiber.StatusConflict},
		{KindCapacityConflict, fiber.StatusConflict},
		{KindScheduleConflict, fiber.StatusConflict},
		{KindTemplateOverlap, fiber.StatusConflict},
		{KindRegistrationClosed, fiber.StatusConflict},
		{KindAttendanceRequired, fiber.StatusBadRequest},
		{KindValidation, fiber.StatusBadRequest},
		{KindInternal, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := E(tt.kind, "x").Status(); got != tt.want {
			t.Errorf("Status(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestFromDB(t *testing.T) {
	if e := FromDB(gorm.ErrRecordNotFound, "course"); e.Kind != KindNotFound {
		t.Errorf("record miss mapped to %s, want NOT_FOUND", e.Kind)
	}
	if e := FromDB(errors.New("Error 1062: Duplicate entry 'CS101' for key 'code'"), "course"); e.Kind != KindDuplicateIdentifier {
		t.Errorf("duplicate mapped to %s, want DUPLICATE_IDENTIFIER", e.Kind)
	}
	if e := FromDB(errors.New("Error 1452: Cannot add or update a child row: a foreign key constraint fails"), "course"); e.Kind != KindNotFound {
		t.Errorf("FK violation mapped to %s, want NOT_FOUND", e.Kind)
	}
	if e := FromDB(errors.New("connection reset"), "course"); e.Kind != KindInternal {
		t.Errorf("unknown error mapped to %s, want INTERNAL", e.Kind)
	}

	// Domain errors pass through untouched.
	original := E(KindOfferingFull, "full")
	if e := FromDB(original, "enrollment"); e != original {
		t.Error("domain errors must pass through FromDB unchanged")
	}
}

func TestIsSerializationFailure(t *testing.T) {
	if !IsSerializationFailure(errors.New("Error 1213: Deadlock found when trying to get lock; try restarting transaction")) {
		t.Error("deadlock not detected")
	}
	if !IsSerializationFailure(errors.New("Error 1205: Lock wait timeout exceeded")) {
		t.Error("lock wait timeout not detected")
	}
	if IsSerializationFailure(errors.New("Error 1062: Duplicate entry")) {
		t.Error("duplicate entry misdetected as serialization failure")
	}
	if IsSerializationFailure(nil) {
		t.Error("nil misdetected")
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(cause, KindInternal, "save failed")
	if !errors.Is(e, cause) {
		t.Error("wrapped cause lost")
	}
	if got, ok := As(e); !ok || got.Kind != KindInternal {
		t.Error("As failed on wrapped error")
	}
	if !IsKind(e, KindInternal) {
		t.Error("IsKind failed")
	}
	if IsKind(cause, KindInternal) {
		t.Error("IsKind matched a plain error")
	}
}

func TestWithDetails(t *testing.T) {
	e := E(KindScheduleConflict, "conflict").WithDetails(map[string]interface{}{"day": 2})
	if e.Details["day"] != 2 {
		t.Errorf("details not attached: %v", e.Details)
	}
}
