package services

import (
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CurrentTerm resolves the active academic term. The explicit is_current flag
// wins; failing that, the term whose date window contains today; failing
// that, the most recently started term.
func CurrentTerm(today time.Time) (*models.AcademicTerm, error) {
	today = dateOnly(today)

	var term models.AcademicTerm
	err := database.DB.Where("is_current = ?", true).First(&term).Error
	if err == nil {
		return &term, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperrors.FromDB(err, "academic term")
	}

	err = database.DB.
		Where("start_date <= ? AND end_date >= ?", today, today).
		Order("start_date DESC").
		First(&term).Error
	if err == nil {
		return &term, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, apperrors.FromDB(err, "academic term")
	}

	err = database.DB.Order("start_date DESC").First(&term).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.E(apperrors.KindNotFound, "no academic terms exist")
		}
		return nil, apperrors.FromDB(err, "academic term")
	}
	return &term, nil
}

// SetCurrentTerm marks one term current, clearing the flag everywhere else in
// the same transaction so at most one row carries it.
func SetCurrentTerm(termID uuid.UUID) (*models.AcademicTerm, error) {
	var term models.AcademicTerm
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&term, "id = ?", termID).Error; err != nil {
			return apperrors.FromDB(err, "academic term")
		}
		if err := tx.Model(&models.AcademicTerm{}).
			Where("is_current = ?", true).
			Update("is_current", false).Error; err != nil {
			return apperrors.FromDB(err, "academic term")
		}
		if err := tx.Model(&term).Update("is_current", true).Error; err != nil {
			return apperrors.FromDB(err, "academic term")
		}
		term.IsCurrent = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &term, nil
}

// ValidateTermDates checks ordering of the term window and its deadlines.
func ValidateTermDates(term *models.AcademicTerm) error {
	if !dateOnly(term.StartDate).Before(dateOnly(term.EndDate)) {
		return apperrors.E(apperrors.KindValidation, "term start_date must precede end_date")
	}
	deadlines := []struct {
		name string
		date *time.Time
	}{
		{"registration_start", term.RegistrationStart},
		{"registration_end", term.RegistrationEnd},
		{"add_drop_deadline", term.AddDropDeadline},
		{"withdrawal_deadline", term.WithdrawalDeadline},
		{"grade_submission_deadline", term.GradeSubmissionDeadline},
	}
	var prev *time.Time
	var prevName string
	for _, d := range deadlines {
		if d.date == nil {
			continue
		}
		if prev != nil && dateOnly(*d.date).Before(dateOnly(*prev)) {
			return apperrors.E(apperrors.KindValidation,
				"%s must not precede %s", d.name, prevName)
		}
		prev = d.date
		prevName = d.name
	}
	return nil
}
