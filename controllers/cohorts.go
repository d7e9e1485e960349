package controllers

import (
	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CohortController struct{}

// GetCohorts lists student cohorts.
func (cc *CohortController) GetCohorts(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.StudentCohort{})
	if year := c.Query("academic_year"); year != "" {
		query = query.Where("academic_year = ?", year)
	}
	if program := c.Query("academic_program_id"); program != "" {
		query = query.Where("academic_program_id = ?", program)
	}
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	query.Count(&total)

	var cohorts []models.StudentCohort
	if err := query.Preload("AcademicProgram").
		Order("academic_year DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&cohorts).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "cohort"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, cohorts))
}

// GetCohort returns one cohort with active members.
func (cc *CohortController) GetCohort(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var cohort models.StudentCohort
	if err := database.DB.Preload("AcademicProgram").
		Preload("Members", "is_active = ?", true).
		Preload("Members.Student.User.Person").
		First(&cohort, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "cohort"))
	}
	return c.JSON(fiber.Map{"cohort": cohort})
}

type cohortRequest struct {
	Name              models.LocalizedText `json:"name" validate:"required"`
	AcademicYear      string               `json:"academic_year" validate:"required"`
	AcademicProgramID uuid.UUID            `json:"academic_program_id" validate:"required"`
	Language          string               `json:"language"`
}

// CreateCohort adds a cohort.
func (cc *CohortController) CreateCohort(c *fiber.Ctx) error {
	var req cohortRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	cohort := models.StudentCohort{
		Name:              req.Name,
		AcademicYear:      req.AcademicYear,
		AcademicProgramID: req.AcademicProgramID,
		Language:          req.Language,
		IsActive:          true,
	}
	if err := database.DB.Create(&cohort).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "cohort"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"cohort": cohort})
}

type cohortMemberRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
}

// AddCohortMember adds a student to a cohort, reactivating a past membership
// when one exists.
func (cc *CohortController) AddCohortMember(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req cohortMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	var cohort models.StudentCohort
	if err := database.DB.First(&cohort, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "cohort"))
	}
	var student models.Student
	if err := database.DB.First(&student, "id = ?", req.StudentID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "student"))
	}

	var member models.CohortMember
	err = database.DB.Where("cohort_id = ? AND student_id = ?", id, req.StudentID).
		First(&member).Error
	if err == nil {
		if member.IsActive {
			return respondError(c, apperrors.E(apperrors.KindDuplicateIdentifier,
				"student is already a member of this cohort"))
		}
		if err := database.DB.Model(&member).Update("is_active", true).Error; err != nil {
			return respondError(c, apperrors.FromDB(err, "cohort member"))
		}
		return c.JSON(fiber.Map{"member": member})
	}

	member = models.CohortMember{CohortID: id, StudentID: req.StudentID, IsActive: true}
	if err := database.DB.Create(&member).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "cohort member"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"member": member})
}

// RemoveCohortMember deactivates a membership, keeping the history row.
func (cc *CohortController) RemoveCohortMember(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	studentID, err := paramUUID(c, "studentId")
	if err != nil {
		return respondError(c, err)
	}

	result := database.DB.Model(&models.CohortMember{}).
		Where("cohort_id = ? AND student_id = ? AND is_active = ?", id, studentID, true).
		Update("is_active", false)
	if result.Error != nil {
		return respondError(c, apperrors.FromDB(result.Error, "cohort member"))
	}
	if result.RowsAffected == 0 {
		return respondError(c, apperrors.E(apperrors.KindNotFound, "cohort membership not found"))
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}
