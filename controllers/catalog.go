package controllers

import (
	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CatalogController serves academic programs and the canonical course catalog.
type CatalogController struct{}

// GetPrograms lists degree programs.
func (cc *CatalogController) GetPrograms(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.AcademicProgram{})
	if unit := c.Query("organization_unit_id"); unit != "" {
		query = query.Where("organization_unit_id = ?", unit)
	}
	if degree := c.Query("degree_type"); degree != "" {
		query = query.Where("degree_type = ?", degree)
	}
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	query.Count(&total)

	var programs []models.AcademicProgram
	if err := query.Preload("OrganizationUnit").
		Order("code ASC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&programs).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic program"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, programs))
}

// GetProgram returns one program.
func (cc *CatalogController) GetProgram(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var program models.AcademicProgram
	if err := database.DB.Preload("OrganizationUnit").
		First(&program, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic program"))
	}
	return c.JSON(fiber.Map{"program": program})
}

type programRequest struct {
	Code               string               `json:"code" validate:"required"`
	Name               models.LocalizedText `json:"name" validate:"required"`
	OrganizationUnitID uuid.UUID            `json:"organization_unit_id" validate:"required"`
	DegreeType         string               `json:"degree_type" validate:"required,oneof=bachelor master phd diploma certificate"`
	DurationYears      int                  `json:"duration_years" validate:"required,min=1"`
	TotalCredits       int                  `json:"total_credits" validate:"required,min=1"`
}

// CreateProgram adds a degree program.
func (cc *CatalogController) CreateProgram(c *fiber.Ctx) error {
	var req programRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	program := models.AcademicProgram{
		Code:               req.Code,
		Name:               req.Name,
		OrganizationUnitID: req.OrganizationUnitID,
		DegreeType:         req.DegreeType,
		DurationYears:      req.DurationYears,
		TotalCredits:       req.TotalCredits,
		IsActive:           true,
	}
	if err := database.DB.Create(&program).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic program"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"program": program})
}

// UpdateProgram patches a program.
func (cc *CatalogController) UpdateProgram(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var program models.AcademicProgram
	if err := database.DB.First(&program, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic program"))
	}
	if err := c.BodyParser(&program); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := database.DB.Save(&program).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "academic program"))
	}
	return c.JSON(fiber.Map{"program": program})
}

// GetCourses lists catalog courses with optional code/name search.
func (cc *CatalogController) GetCourses(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.Course{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", like, like)
	}
	if level := c.Query("course_level"); level != "" {
		query = query.Where("course_level = ?", level)
	}
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	query.Count(&total)

	var courses []models.Course
	if err := query.Order("code ASC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&courses).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, courses))
}

// GetCourse returns one catalog course.
func (cc *CatalogController) GetCourse(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var course models.Course
	if err := database.DB.First(&course, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course"))
	}
	return c.JSON(fiber.Map{"course": course})
}

type courseRequest struct {
	Code          string               `json:"code" validate:"required"`
	Name          models.LocalizedText `json:"name" validate:"required"`
	CreditHours   int                  `json:"credit_hours" validate:"required,min=1"`
	LectureHours  int                  `json:"lecture_hours" validate:"min=0"`
	TutorialHours int                  `json:"tutorial_hours" validate:"min=0"`
	LabHours      int                  `json:"lab_hours" validate:"min=0"`
	CourseLevel   string               `json:"course_level"`
}

// CreateCourse adds a catalog course.
func (cc *CatalogController) CreateCourse(c *fiber.Ctx) error {
	var req courseRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	course := models.Course{
		Code:          req.Code,
		Name:          req.Name,
		CreditHours:   req.CreditHours,
		LectureHours:  req.LectureHours,
		TutorialHours: req.TutorialHours,
		LabHours:      req.LabHours,
		CourseLevel:   req.CourseLevel,
		IsActive:      true,
	}
	if err := database.DB.Create(&course).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"course": course})
}

// UpdateCourse patches a catalog course.
func (cc *CatalogController) UpdateCourse(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var course models.Course
	if err := database.DB.First(&course, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course"))
	}
	if err := c.BodyParser(&course); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := database.DB.Save(&course).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "course"))
	}
	return c.JSON(fiber.Map{"course": course})
}
