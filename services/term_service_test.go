package services

import (
	"testing"

	"unilms_go/models"
)

func TestValidateTermDates(t *testing.T) {
	valid := models.AcademicTerm{
		StartDate:               date(2025, 2, 3),
		EndDate:                 date(2025, 5, 30),
		RegistrationStart:       datePtr(2025, 1, 20),
		RegistrationEnd:         datePtr(2025, 2, 14),
		AddDropDeadline:         datePtr(2025, 2, 21),
		WithdrawalDeadline:      datePtr(2025, 4, 15),
		GradeSubmissionDeadline: datePtr(2025, 6, 13),
	}
	if err := ValidateTermDates(&valid); err != nil {
		t.Errorf("valid term rejected: %v", err)
	}

	inverted := valid
	inverted.StartDate = date(2025, 6, 1)
	if err := ValidateTermDates(&inverted); err == nil {
		t.Error("start after end must be rejected")
	}

	outOfOrder := valid
	outOfOrder.WithdrawalDeadline = datePtr(2025, 2, 1)
	if err := ValidateTermDates(&outOfOrder); err == nil {
		t.Error("withdrawal before add/drop must be rejected")
	}

	sparse := models.AcademicTerm{
		StartDate:          date(2025, 2, 3),
		EndDate:            date(2025, 5, 30),
		WithdrawalDeadline: datePtr(2025, 4, 15),
	}
	if err := ValidateTermDates(&sparse); err != nil {
		t.Errorf("term with only some deadlines rejected: %v", err)
	}
}
