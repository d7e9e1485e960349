package services

import (
	"testing"

	"unilms_go/apperrors"

	"github.com/google/uuid"
)

func TestValidateUnitParentSelf(t *testing.T) {
	id := uuid.New()
	err := ValidateUnitParent(id, &id)
	e, ok := apperrors.As(err)
	if !ok {
		t.Fatal("expected a domain error")
	}
	if e.Kind != apperrors.KindValidation {
		t.Errorf("kind = %s, want VALIDATION", e.Kind)
	}
	if e.Details["reason"] != "cycle_detected" {
		t.Errorf("details = %v, want reason cycle_detected", e.Details)
	}
}

func TestValidateUnitParentNilParent(t *testing.T) {
	if err := ValidateUnitParent(uuid.New(), nil); err != nil {
		t.Errorf("nil parent must be accepted, got %v", err)
	}
}
