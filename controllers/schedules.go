package controllers

import (
	"strings"
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/services"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type ScheduleController struct{}

type scheduleRequest struct {
	CourseOfferingID uuid.UUID  `json:"course_offering_id" validate:"required"`
	DayOfWeek        int        `json:"day_of_week" validate:"min=0,max=6"`
	StartTime        string     `json:"start_time" validate:"required_without=TimeSlotID"`
	EndTime          string     `json:"end_time" validate:"required_without=TimeSlotID"`
	TimeSlotID       *uuid.UUID `json:"time_slot_id"`
	RoomID           *uuid.UUID `json:"room_id"`
	ScheduleType     string     `json:"schedule_type" validate:"omitempty,oneof=lecture tutorial lab exam"`
	InstructorID     *uuid.UUID `json:"instructor_id"`
	EffectiveFrom    *time.Time `json:"effective_from"`
	EffectiveUntil   *time.Time `json:"effective_until"`
}

// CreateSchedule adds a weekly template to an offering. Times come either
// inline or from a canonical time slot. Room, instructor, and self overlaps
// are rejected atomically.
func (sc *ScheduleController) CreateSchedule(c *fiber.Ctx) error {
	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	if req.TimeSlotID != nil {
		var slot models.TimeSlot
		if err := database.DB.First(&slot, "id = ?", *req.TimeSlotID).Error; err != nil {
			return respondError(c, apperrors.FromDB(err, "time slot"))
		}
		req.StartTime = slot.StartTime
		req.EndTime = slot.EndTime
	}

	tpl := models.ClassSchedule{
		CourseOfferingID: req.CourseOfferingID,
		DayOfWeek:        req.DayOfWeek,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		RoomID:           req.RoomID,
		ScheduleType:     req.ScheduleType,
		InstructorID:     req.InstructorID,
		IsRecurring:      true,
		EffectiveFrom:    req.EffectiveFrom,
		EffectiveUntil:   req.EffectiveUntil,
	}
	if tpl.ScheduleType == "" {
		tpl.ScheduleType = "lecture"
	}

	if err := services.CreateClassSchedule(&tpl); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"schedule": tpl})
}

// UpdateSchedule patches a template and re-runs conflict detection.
func (sc *ScheduleController) UpdateSchedule(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var tpl models.ClassSchedule
	if err := database.DB.First(&tpl, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "class schedule"))
	}
	if err := c.BodyParser(&tpl); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	tpl.ID = id

	if err := services.UpdateClassSchedule(&tpl); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"schedule": tpl})
}

// DeleteSchedule removes a template. Attendance history keeps the rows alive
// through the soft-delete column.
func (sc *ScheduleController) DeleteSchedule(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	result := database.DB.Delete(&models.ClassSchedule{}, "id = ?", id)
	if result.Error != nil {
		return respondError(c, apperrors.FromDB(result.Error, "class schedule"))
	}
	if result.RowsAffected == 0 {
		return respondError(c, apperrors.E(apperrors.KindNotFound, "class schedule not found"))
	}
	return c.JSON(fiber.Map{"message": "Schedule deleted"})
}

// GetOfferingCalendar expands an offering's templates to dated events over a
// date range.
func (sc *ScheduleController) GetOfferingCalendar(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var offering models.CourseOffering
	if err := database.DB.Preload("AcademicTerm").First(&offering, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course offering"))
	}

	start, err := queryDate(c, "start", offering.AcademicTerm.StartDate)
	if err != nil {
		return respondError(c, err)
	}
	end, err := queryDate(c, "end", offering.AcademicTerm.EndDate)
	if err != nil {
		return respondError(c, err)
	}

	var templates []models.ClassSchedule
	if err := database.DB.
		Preload("CourseOffering.Course").
		Preload("CourseOffering.AcademicTerm").
		Preload("Room").
		Preload("Instructor.Person").
		Where("course_offering_id = ?", id).
		Find(&templates).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "class schedule"))
	}

	events := services.ExpandTemplates(templates, start, end)
	return c.JSON(fiber.Map{"events": events})
}

// GetTimeSlots lists the canonical start/end pairs, ordered by start time.
func (sc *ScheduleController) GetTimeSlots(c *fiber.Ctx) error {
	var slots []models.TimeSlot
	if err := database.DB.Order("start_time ASC").Find(&slots).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "time slot"))
	}
	return c.JSON(fiber.Map{"time_slots": slots})
}

// CollapseLegacySchedules deduplicates imported templates that share an
// (instructor, day, time) slot. Defaults to a dry run; `format=xlsx`
// returns the report as a workbook instead of JSON.
func (sc *ScheduleController) CollapseLegacySchedules(c *fiber.Ctx) error {
	dryRun := c.Query("apply") != "true"
	report, err := services.CollapseLegacyTemplates(dryRun)
	if err != nil {
		return respondError(c, err)
	}

	if c.Query("format") == "xlsx" {
		return writeCollapseWorkbook(c, dryRun, report)
	}
	return c.JSON(fiber.Map{
		"dry_run": dryRun,
		"groups":  report,
	})
}

func writeCollapseWorkbook(c *fiber.Ctx, dryRun bool, report []services.LegacyCollapseEntry) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Collapse Report"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Instructor ID", "Day", "Start", "End", "Kept ID", "Deleted IDs"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for rowIdx, entry := range report {
		deleted := make([]string, 0, len(entry.DeletedIDs))
		for _, id := range entry.DeletedIDs {
			deleted = append(deleted, id.String())
		}
		values := []interface{}{
			entry.InstructorID.String(),
			entry.DayOfWeek,
			entry.StartTime,
			entry.EndTime,
			entry.KeptID.String(),
			strings.Join(deleted, ", "),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.KindInternal, "failed to build workbook"))
	}

	mode := "dryrun"
	if !dryRun {
		mode = "applied"
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="schedule_collapse_`+mode+`.xlsx"`)
	return c.Send(buf.Bytes())
}
