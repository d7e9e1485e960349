package controllers

import (
	"time"

	"unilms_go/apperrors"
	"unilms_go/middleware"
	"unilms_go/services"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AttendanceController struct{}

type submitAttendanceRequest struct {
	ClassScheduleID uuid.UUID                  `json:"class_schedule_id" validate:"required"`
	Date            string                     `json:"date" validate:"required"`
	Entries         []services.AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// SubmitAttendance upserts attendance for one template and date.
func (ac *AttendanceController) SubmitAttendance(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}

	var req submitAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid date, expected YYYY-MM-DD"))
	}

	result, err := services.SubmitAttendance(user.ID, req.ClassScheduleID, date, req.Entries)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"result": result})
}

// GetAttendanceRoster returns the roster view of a template for a date,
// unmarked students included.
func (ac *AttendanceController) GetAttendanceRoster(c *fiber.Ctx) error {
	scheduleID, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	date, err := queryDate(c, "date", time.Now())
	if err != nil {
		return respondError(c, err)
	}

	rows, err := services.AttendanceRoster(scheduleID, date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"date":   date.Format("2006-01-02"),
		"roster": rows,
	})
}
