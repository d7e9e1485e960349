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

type StaffController struct{}

// GetStaff lists staff members, filterable by unit subtree and rank.
func (sc *StaffController) GetStaff(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.StaffMember{})
	if unit := c.Query("organization_unit_id"); unit != "" {
		unitID, err := uuid.Parse(unit)
		if err != nil {
			return respondError(c, apperrors.E(apperrors.KindValidation, "invalid organization_unit_id"))
		}
		ids, err := services.UnitDescendantIDs(unitID)
		if err != nil {
			return respondError(c, err)
		}
		query = query.Where("organization_unit_id IN ?", ids)
	}
	if rank := c.Query("academic_rank"); rank != "" {
		query = query.Where("academic_rank = ?", rank)
	}
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	query.Count(&total)

	var staff []models.StaffMember
	if err := query.Preload("User.Person").Preload("OrganizationUnit").
		Order("employee_number ASC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&staff).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "staff member"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, staff))
}

// GetStaffMember returns one staff record.
func (sc *StaffController) GetStaffMember(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var staff models.StaffMember
	if err := database.DB.Preload("User.Person").Preload("OrganizationUnit").
		First(&staff, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "staff member"))
	}
	return c.JSON(fiber.Map{"staff": staff})
}

type createStaffRequest struct {
	UserID             uuid.UUID            `json:"user_id" validate:"required"`
	EmployeeNumber     string               `json:"employee_number" validate:"required"`
	OrganizationUnitID uuid.UUID            `json:"organization_unit_id" validate:"required"`
	PositionTitle      models.LocalizedText `json:"position_title"`
	HireDate           time.Time            `json:"hire_date" validate:"required"`
	AcademicRank       string               `json:"academic_rank"`
	AdministrativeRole string               `json:"administrative_role"`
}

// CreateStaffMember links an existing user account to a staff record.
func (sc *StaffController) CreateStaffMember(c *fiber.Ctx) error {
	var req createStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}
	if req.AdministrativeRole != "" && !models.IsAdministrativeRole(req.AdministrativeRole) {
		return respondError(c, apperrors.E(apperrors.KindValidation,
			"unknown administrative role '%s'", req.AdministrativeRole))
	}

	var unit models.OrganizationUnit
	if err := database.DB.First(&unit, "id = ?", req.OrganizationUnitID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "organization unit"))
	}

	staff := models.StaffMember{
		UserID:             req.UserID,
		EmployeeNumber:     req.EmployeeNumber,
		OrganizationUnitID: req.OrganizationUnitID,
		PositionTitle:      req.PositionTitle,
		HireDate:           req.HireDate,
		AcademicRank:       req.AcademicRank,
		AdministrativeRole: req.AdministrativeRole,
		IsActive:           true,
	}
	if err := database.DB.Create(&staff).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "staff member"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"staff": staff})
}

// UpdateStaffMember patches a staff record.
func (sc *StaffController) UpdateStaffMember(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var staff models.StaffMember
	if err := database.DB.First(&staff, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "staff member"))
	}
	if err := c.BodyParser(&staff); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if staff.AdministrativeRole != "" && !models.IsAdministrativeRole(staff.AdministrativeRole) {
		return respondError(c, apperrors.E(apperrors.KindValidation,
			"unknown administrative role '%s'", staff.AdministrativeRole))
	}
	if err := database.DB.Save(&staff).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "staff member"))
	}
	return c.JSON(fiber.Map{"staff": staff})
}

// GetMyOfferings lists offerings the caller is assigned to teach.
func (sc *StaffController) GetMyOfferings(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}

	var assignments []models.CourseInstructor
	if err := database.DB.
		Preload("CourseOffering.Course").
		Preload("CourseOffering.AcademicTerm").
		Where("user_id = ?", user.ID).
		Find(&assignments).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course instructor"))
	}
	return c.JSON(fiber.Map{"assignments": assignments})
}

// GetMySchedule materializes the caller's teaching calendar.
func (sc *StaffController) GetMySchedule(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}

	now := time.Now()
	start, err := queryDate(c, "start", now.AddDate(0, 0, -7))
	if err != nil {
		return respondError(c, err)
	}
	end, err := queryDate(c, "end", now.AddDate(0, 0, 21))
	if err != nil {
		return respondError(c, err)
	}

	events, err := services.InstructorScheduleEvents(user.ID, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"events": events})
}
