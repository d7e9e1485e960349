package controllers

import (
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/middleware"
	"unilms_go/models"
	"unilms_go/services"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type EnrollmentController struct{}

// enrollmentBelongsTo checks ownership of an enrollment row.
func enrollmentBelongsTo(enrollmentID, studentID uuid.UUID) (bool, error) {
	var enrollment models.CourseEnrollment
	if err := database.DB.Select("id", "student_id").
		First(&enrollment, "id = ?", enrollmentID).Error; err != nil {
		return false, apperrors.FromDB(err, "enrollment")
	}
	return enrollment.StudentID == studentID, nil
}

type enrollRequest struct {
	StudentID  uuid.UUID `json:"student_id"`
	OfferingID uuid.UUID `json:"course_offering_id" validate:"required"`
}

// Enroll registers a student into an offering. Students enroll themselves;
// admins may pass an explicit student_id.
func (ec *EnrollmentController) Enroll(c *fiber.Ctx) error {
	var req enrollRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}

	studentID := req.StudentID
	if claims.UserType == middleware.UserTypeStudent {
		student, err := currentStudent(c)
		if err != nil {
			return respondError(c, err)
		}
		studentID = student.ID
	} else if studentID == uuid.Nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "student_id is required"))
	}

	enrollment, err := services.Enroll(studentID, req.OfferingID, time.Now())
	if err != nil {
		return respondError(c, err)
	}
	middleware.LogActivity(c, "ENROLL", "enrollments", enrollment.ID.String(), fiber.Map{
		"course_offering_id": req.OfferingID,
		"student_id":         studentID,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"enrollment": enrollment})
}

// Drop removes a student from an offering. The resulting status depends on
// the term deadlines.
func (ec *EnrollmentController) Drop(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}

	// Students may only drop their own enrollments.
	if claims.UserType == middleware.UserTypeStudent {
		student, err := currentStudent(c)
		if err != nil {
			return respondError(c, err)
		}
		owned, err := enrollmentBelongsTo(id, student.ID)
		if err != nil {
			return respondError(c, err)
		}
		if !owned {
			return respondError(c, apperrors.E(apperrors.KindForbidden, "enrollment belongs to another student"))
		}
	}

	enrollment, err := services.Drop(id, time.Now())
	if err != nil {
		return respondError(c, err)
	}
	middleware.LogActivity(c, "DROP", "enrollments", enrollment.ID.String(), fiber.Map{
		"status": enrollment.EnrollmentStatus,
	})
	return c.JSON(fiber.Map{"enrollment": enrollment})
}
