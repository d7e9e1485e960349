package controllers

import (
	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
)

type GradeScaleController struct{}

// GetGradeScale lists scale entries from best to worst.
func (gc *GradeScaleController) GetGradeScale(c *fiber.Ctx) error {
	var entries []models.GradePointScale
	if err := database.DB.Order("display_order DESC").Find(&entries).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "grade scale"))
	}
	return c.JSON(fiber.Map{"scale": entries})
}

type gradeScaleRequest struct {
	LetterGrade   string  `json:"letter_grade" validate:"required,max=5"`
	GradePoints   float64 `json:"grade_points" validate:"min=0"`
	MinPercentage float64 `json:"min_percentage" validate:"min=0,max=100"`
	MaxPercentage float64 `json:"max_percentage" validate:"min=0,max=100"`
	DisplayOrder  int     `json:"display_order" validate:"required"`
	IsPassing     *bool   `json:"is_passing"`
}

// CreateGradeScaleEntry adds a letter band. Bands are not checked for
// percentage overlap here; lookups pick the highest matching display order.
func (gc *GradeScaleController) CreateGradeScaleEntry(c *fiber.Ctx) error {
	var req gradeScaleRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}
	if req.MaxPercentage < req.MinPercentage {
		return respondError(c, apperrors.E(apperrors.KindValidation, "max_percentage must not be below min_percentage"))
	}

	entry := models.GradePointScale{
		LetterGrade:   req.LetterGrade,
		GradePoints:   req.GradePoints,
		MinPercentage: req.MinPercentage,
		MaxPercentage: req.MaxPercentage,
		DisplayOrder:  req.DisplayOrder,
		IsPassing:     req.IsPassing == nil || *req.IsPassing,
	}
	if err := database.DB.Create(&entry).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "grade scale"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"entry": entry})
}

// UpdateGradeScaleEntry patches a band. Existing grades keep their stored
// letter; only future submissions see the change.
func (gc *GradeScaleController) UpdateGradeScaleEntry(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var entry models.GradePointScale
	if err := database.DB.First(&entry, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "grade scale"))
	}

	var req gradeScaleRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if req.MaxPercentage < req.MinPercentage {
		return respondError(c, apperrors.E(apperrors.KindValidation, "max_percentage must not be below min_percentage"))
	}

	updates := map[string]interface{}{
		"letter_grade":   req.LetterGrade,
		"grade_points":   req.GradePoints,
		"min_percentage": req.MinPercentage,
		"max_percentage": req.MaxPercentage,
		"display_order":  req.DisplayOrder,
	}
	if req.IsPassing != nil {
		updates["is_passing"] = *req.IsPassing
	}
	if err := database.DB.Model(&entry).Updates(updates).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "grade scale"))
	}
	return c.JSON(fiber.Map{"entry": entry})
}

// DeleteGradeScaleEntry removes a band. Blocked while any grade references
// the letter.
func (gc *GradeScaleController) DeleteGradeScaleEntry(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var entry models.GradePointScale
	if err := database.DB.First(&entry, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "grade scale"))
	}

	var inUse int64
	database.DB.Model(&models.Grade{}).
		Where("letter_grade = ?", entry.LetterGrade).Count(&inUse)
	if inUse > 0 {
		return respondError(c, apperrors.E(apperrors.KindPreconditionFailed,
			"grade scale entry '%s' is referenced by %d grades", entry.LetterGrade, inUse))
	}

	if err := database.DB.Delete(&entry).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "grade scale"))
	}
	return c.JSON(fiber.Map{"message": "Grade scale entry deleted"})
}
