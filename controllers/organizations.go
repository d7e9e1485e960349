package controllers

import (
	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/services"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OrganizationController struct{}

var organizationUnitTypes = map[string]bool{
	"university": true, "faculty": true, "department": true,
	"institute": true, "center": true, "other": true,
}

// GetUnits lists organization units flat, filtered by type or parent.
func (oc *OrganizationController) GetUnits(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.OrganizationUnit{})
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if parent := c.Query("parent_id"); parent != "" {
		query = query.Where("parent_id = ?", parent)
	}
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	query.Count(&total)

	var units []models.OrganizationUnit
	if err := query.Order("code ASC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&units).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "organization unit"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, units))
}

// GetUnitTree returns the whole hierarchy as nested nodes.
func (oc *OrganizationController) GetUnitTree(c *fiber.Ctx) error {
	tree, err := services.OrganizationTree(c.Query("include_inactive") == "true")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tree": tree})
}

// GetUnit returns one unit with its direct children.
func (oc *OrganizationController) GetUnit(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var unit models.OrganizationUnit
	if err := database.DB.Preload("Parent").Preload("Children").
		First(&unit, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "organization unit"))
	}
	return c.JSON(fiber.Map{"unit": unit})
}

type unitRequest struct {
	Code     string               `json:"code" validate:"required"`
	Name     models.LocalizedText `json:"name" validate:"required"`
	Type     string               `json:"type" validate:"required"`
	ParentID *uuid.UUID           `json:"parent_id"`
	IsActive *bool                `json:"is_active"`
}

// CreateUnit adds an organization unit, rejecting unknown types and parent
// cycles.
func (oc *OrganizationController) CreateUnit(c *fiber.Ctx) error {
	var req unitRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}
	if !organizationUnitTypes[req.Type] {
		return respondError(c, apperrors.E(apperrors.KindValidation, "unknown unit type '%s'", req.Type))
	}

	unit := models.OrganizationUnit{
		Code:     req.Code,
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
		IsActive: true,
	}
	if req.IsActive != nil {
		unit.IsActive = *req.IsActive
	}

	if req.ParentID != nil {
		var parent models.OrganizationUnit
		if err := database.DB.First(&parent, "id = ?", req.ParentID).Error; err != nil {
			return respondError(c, apperrors.FromDB(err, "parent unit"))
		}
	}

	if err := database.DB.Create(&unit).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "organization unit"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"unit": unit})
}

// UpdateUnit patches a unit; parent reassignment goes through cycle detection.
func (oc *OrganizationController) UpdateUnit(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var unit models.OrganizationUnit
	if err := database.DB.First(&unit, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "organization unit"))
	}

	var req unitRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}

	updates := map[string]interface{}{}
	if req.Code != "" {
		updates["code"] = req.Code
	}
	if req.Name != nil {
		updates["name"] = req.Name
	}
	if req.Type != "" {
		if !organizationUnitTypes[req.Type] {
			return respondError(c, apperrors.E(apperrors.KindValidation, "unknown unit type '%s'", req.Type))
		}
		updates["type"] = req.Type
	}
	if req.ParentID != nil {
		if err := services.ValidateUnitParent(unit.ID, req.ParentID); err != nil {
			return respondError(c, err)
		}
		updates["parent_id"] = req.ParentID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&unit).Updates(updates).Error; err != nil {
			return respondError(c, apperrors.FromDB(err, "organization unit"))
		}
	}
	return c.JSON(fiber.Map{"unit": unit})
}

// DeactivateUnit soft-disables a unit. Units with active children stay up.
func (oc *OrganizationController) DeactivateUnit(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var childCount int64
	if err := database.DB.Model(&models.OrganizationUnit{}).
		Where("parent_id = ? AND is_active = ?", id, true).
		Count(&childCount).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "organization unit"))
	}
	if childCount > 0 {
		return respondError(c, apperrors.E(apperrors.KindPreconditionFailed,
			"unit has %d active child units", childCount))
	}

	result := database.DB.Model(&models.OrganizationUnit{}).
		Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return respondError(c, apperrors.FromDB(result.Error, "organization unit"))
	}
	if result.RowsAffected == 0 {
		return respondError(c, apperrors.E(apperrors.KindNotFound, "organization unit not found"))
	}
	return c.JSON(fiber.Map{"message": "Unit deactivated"})
}
