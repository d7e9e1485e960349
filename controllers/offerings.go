package controllers

import (
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/services"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OfferingController struct{}

// GetOfferings lists course offerings, filterable by term, course, and
// published state. Students only ever see published offerings.
func (oc *OfferingController) GetOfferings(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.CourseOffering{})
	if term := c.Query("academic_term_id"); term != "" {
		query = query.Where("academic_term_id = ?", term)
	}
	if course := c.Query("course_id"); course != "" {
		query = query.Where("course_id = ?", course)
	}
	if c.Query("include_unpublished") != "true" {
		query = query.Where("is_published = ?", true)
	}

	var total int64
	query.Count(&total)

	var offerings []models.CourseOffering
	if err := query.Preload("Course").Preload("AcademicTerm").
		Order("section_code ASC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&offerings).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course offering"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, offerings))
}

// GetOffering returns one offering with schedules and instructors.
func (oc *OfferingController) GetOffering(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var offering models.CourseOffering
	if err := database.DB.Preload("Course").Preload("AcademicTerm").
		First(&offering, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course offering"))
	}

	var schedules []models.ClassSchedule
	database.DB.Preload("Room").Preload("Instructor.Person").
		Where("course_offering_id = ?", id).Find(&schedules)

	var assignments []models.CourseInstructor
	database.DB.Preload("User.Person").
		Where("course_offering_id = ?", id).Find(&assignments)

	type instructorItem struct {
		utils.UserShort
		Role string `json:"role"`
	}
	instructors := make([]instructorItem, 0, len(assignments))
	for _, a := range assignments {
		instructors = append(instructors, instructorItem{
			UserShort: utils.ToUserShort(&a.User),
			Role:      a.Role,
		})
	}

	return c.JSON(fiber.Map{
		"offering":    offering,
		"course_name": utils.NewLocalizedField(offering.Course.Name, requestLanguage(c)),
		"schedules":   schedules,
		"instructors": instructors,
	})
}

type offeringRequest struct {
	CourseID              uuid.UUID `json:"course_id" validate:"required"`
	AcademicTermID        uuid.UUID `json:"academic_term_id" validate:"required"`
	SectionCode           string    `json:"section_code" validate:"required"`
	LanguageOfInstruction string    `json:"language_of_instruction"`
	MaxEnrollment         int       `json:"max_enrollment" validate:"required,min=1"`
	DeliveryMode          string    `json:"delivery_mode" validate:"omitempty,oneof=in_person online hybrid"`
}

// CreateOffering schedules a course in a term. The (course, term, section)
// triple is unique.
func (oc *OfferingController) CreateOffering(c *fiber.Ctx) error {
	var req offeringRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	var course models.Course
	if err := database.DB.First(&course, "id = ?", req.CourseID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course"))
	}
	var term models.AcademicTerm
	if err := database.DB.First(&term, "id = ?", req.AcademicTermID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic term"))
	}

	offering := models.CourseOffering{
		CourseID:              req.CourseID,
		AcademicTermID:        req.AcademicTermID,
		SectionCode:           req.SectionCode,
		LanguageOfInstruction: req.LanguageOfInstruction,
		MaxEnrollment:         req.MaxEnrollment,
		DeliveryMode:          req.DeliveryMode,
		EnrollmentStatus:      "open",
	}
	if offering.DeliveryMode == "" {
		offering.DeliveryMode = "in_person"
	}
	if err := database.DB.Create(&offering).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course offering"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"offering": offering})
}

type capacityRequest struct {
	MaxEnrollment int `json:"max_enrollment" validate:"required,min=1"`
}

// UpdateCapacity changes max enrollment. Shrinking below the live headcount
// is rejected; the roster is never truncated.
func (oc *OfferingController) UpdateCapacity(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req capacityRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	var offering models.CourseOffering
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&offering, "id = ?", id).Error; err != nil {
			return apperrors.FromDB(err, "course offering")
		}
		if req.MaxEnrollment < offering.CurrentEnrollment {
			return apperrors.E(apperrors.KindCapacityConflict,
				"cannot reduce capacity to %d below the current enrollment of %d",
				req.MaxEnrollment, offering.CurrentEnrollment)
		}
		if err := tx.Model(&offering).Update("max_enrollment", req.MaxEnrollment).Error; err != nil {
			return apperrors.FromDB(err, "course offering")
		}
		// Growing capacity reopens a section that filled up.
		if offering.EnrollmentStatus == "waitlisted" && req.MaxEnrollment > offering.CurrentEnrollment {
			if err := tx.Model(&offering).Update("enrollment_status", "open").Error; err != nil {
				return apperrors.FromDB(err, "course offering")
			}
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"offering": offering})
}

// PublishOffering makes an offering visible for registration. It must carry
// at least one schedule template and a primary instructor.
func (oc *OfferingController) PublishOffering(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var offering models.CourseOffering
	if err := database.DB.First(&offering, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course offering"))
	}

	var scheduleCount int64
	database.DB.Model(&models.ClassSchedule{}).
		Where("course_offering_id = ?", id).Count(&scheduleCount)
	if scheduleCount == 0 {
		return respondError(c, apperrors.E(apperrors.KindPreconditionFailed,
			"offering has no class schedules"))
	}

	var primaryCount int64
	database.DB.Model(&models.CourseInstructor{}).
		Where("course_offering_id = ? AND role = ?", id, "primary").Count(&primaryCount)
	if primaryCount == 0 {
		return respondError(c, apperrors.E(apperrors.KindPreconditionFailed,
			"offering has no primary instructor"))
	}

	if err := database.DB.Model(&offering).Update("is_published", true).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course offering"))
	}
	return c.JSON(fiber.Map{"offering": offering})
}

// offeringCloseUpdates is the soft-close column set. Closing always
// unpublishes so students stop seeing the listing.
func offeringCloseUpdates() map[string]interface{} {
	return map[string]interface{}{"enrollment_status": "closed", "is_published": false}
}

// CloseOffering stops further registration and unpublishes the offering
// without touching the roster.
func (oc *OfferingController) CloseOffering(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	result := database.DB.Model(&models.CourseOffering{}).
		Where("id = ?", id).
		Updates(offeringCloseUpdates())
	if result.Error != nil {
		return respondError(c, apperrors.FromDB(result.Error, "course offering"))
	}
	if result.RowsAffected == 0 {
		return respondError(c, apperrors.E(apperrors.KindNotFound, "course offering not found"))
	}
	return c.JSON(fiber.Map{"message": "Offering closed"})
}

// DeleteOffering removes an offering that never accumulated enrollments.
// With enrollment history, active or not, the offering is soft-closed
// instead: registration is shut and the listing unpublished.
func (oc *OfferingController) DeleteOffering(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var enrollmentCount int64
	database.DB.Model(&models.CourseEnrollment{}).
		Where("course_offering_id = ?", id).Count(&enrollmentCount)
	if enrollmentCount > 0 {
		result := database.DB.Model(&models.CourseOffering{}).
			Where("id = ?", id).
			Updates(offeringCloseUpdates())
		if result.Error != nil {
			return respondError(c, apperrors.FromDB(result.Error, "course offering"))
		}
		if result.RowsAffected == 0 {
			return respondError(c, apperrors.E(apperrors.KindNotFound, "course offering not found"))
		}
		return c.JSON(fiber.Map{"message": "Offering has enrollment history and was closed instead of deleted"})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ClassSchedule{}, "course_offering_id = ?", id).Error; err != nil {
			return apperrors.FromDB(err, "class schedule")
		}
		if err := tx.Delete(&models.CourseInstructor{}, "course_offering_id = ?", id).Error; err != nil {
			return apperrors.FromDB(err, "course instructor")
		}
		result := tx.Delete(&models.CourseOffering{}, "id = ?", id)
		if result.Error != nil {
			return apperrors.FromDB(result.Error, "course offering")
		}
		if result.RowsAffected == 0 {
			return apperrors.E(apperrors.KindNotFound, "course offering not found")
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Offering deleted"})
}

type assignInstructorRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Role   string    `json:"role" validate:"required,oneof=primary co_instructor assistant"`
}

// AssignInstructor links a staff user to the offering.
func (oc *OfferingController) AssignInstructor(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req assignInstructorRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	assignment, err := services.AssignInstructor(id, req.UserID, req.Role, time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"assignment": assignment})
}

type replacePrimaryRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// ReplacePrimaryInstructor swaps the primary instructor in one operation.
func (oc *OfferingController) ReplacePrimaryInstructor(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req replacePrimaryRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	assignment, err := services.ReplacePrimaryInstructor(id, req.UserID, time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"assignment": assignment})
}

// GetOfferingRoster lists enrollments of an offering.
func (oc *OfferingController) GetOfferingRoster(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.CourseEnrollment{}).
		Where("course_offering_id = ?", id)
	if status := c.Query("status"); status != "" {
		query = query.Where("enrollment_status = ?", models.NormalizeEnrollmentStatus(status))
	}

	var total int64
	query.Count(&total)

	var enrollments []models.CourseEnrollment
	if err := query.Preload("Student.User.Person").
		Order("enrollment_date ASC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&enrollments).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "enrollment"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, enrollments))
}
