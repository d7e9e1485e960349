package controllers

import (
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/services"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
)

type TermController struct{}

// GetTerms lists academic terms newest first.
func (tc *TermController) GetTerms(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.AcademicTerm{})
	if year := c.Query("academic_year"); year != "" {
		query = query.Where("academic_year = ?", year)
	}

	var total int64
	query.Count(&total)

	var terms []models.AcademicTerm
	if err := query.Order("start_date DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&terms).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic term"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, terms))
}

// GetCurrentTerm resolves the active term.
func (tc *TermController) GetCurrentTerm(c *fiber.Ctx) error {
	term, err := services.CurrentTerm(time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"term": term})
}

// GetTerm returns one term.
func (tc *TermController) GetTerm(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var term models.AcademicTerm
	if err := database.DB.First(&term, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic term"))
	}
	return c.JSON(fiber.Map{"term": term})
}

type termRequest struct {
	AcademicYear            string     `json:"academic_year" validate:"required"`
	TermType                string     `json:"term_type" validate:"required,oneof=fall spring summer winter"`
	TermNumber              int        `json:"term_number" validate:"required,min=1"`
	StartDate               time.Time  `json:"start_date" validate:"required"`
	EndDate                 time.Time  `json:"end_date" validate:"required"`
	RegistrationStart       *time.Time `json:"registration_start"`
	RegistrationEnd         *time.Time `json:"registration_end"`
	AddDropDeadline         *time.Time `json:"add_drop_deadline"`
	WithdrawalDeadline      *time.Time `json:"withdrawal_deadline"`
	GradeSubmissionDeadline *time.Time `json:"grade_submission_deadline"`
}

// CreateTerm adds an academic term after validating date ordering.
func (tc *TermController) CreateTerm(c *fiber.Ctx) error {
	var req termRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	term := models.AcademicTerm{
		AcademicYear:            req.AcademicYear,
		TermType:                req.TermType,
		TermNumber:              req.TermNumber,
		StartDate:               req.StartDate,
		EndDate:                 req.EndDate,
		RegistrationStart:       req.RegistrationStart,
		RegistrationEnd:         req.RegistrationEnd,
		AddDropDeadline:         req.AddDropDeadline,
		WithdrawalDeadline:      req.WithdrawalDeadline,
		GradeSubmissionDeadline: req.GradeSubmissionDeadline,
	}
	if err := services.ValidateTermDates(&term); err != nil {
		return respondError(c, err)
	}
	if err := database.DB.Create(&term).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic term"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"term": term})
}

// UpdateTerm patches a term, re-validating date ordering.
func (tc *TermController) UpdateTerm(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var term models.AcademicTerm
	if err := database.DB.First(&term, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic term"))
	}

	if err := c.BodyParser(&term); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := services.ValidateTermDates(&term); err != nil {
		return respondError(c, err)
	}
	if err := database.DB.Save(&term).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic term"))
	}
	return c.JSON(fiber.Map{"term": term})
}

// SetCurrentTerm makes one term current, clearing the flag from all others.
func (tc *TermController) SetCurrentTerm(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	term, err := services.SetCurrentTerm(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"term": term})
}

// GetTermEvents lists calendar events of a term.
func (tc *TermController) GetTermEvents(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var events []models.AcademicScheduleEvent
	if err := database.DB.Where("academic_term_id = ?", id).
		Order("start_date ASC").Find(&events).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "schedule event"))
	}
	return c.JSON(fiber.Map{"events": events})
}
