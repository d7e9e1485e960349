package controllers

import (
	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
)

type RoomController struct{}

// GetRooms lists rooms with optional building and capacity filters.
func (rc *RoomController) GetRooms(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.Room{})
	if building := c.Query("building"); building != "" {
		query = query.Where("building = ?", building)
	}
	if minCapacity := c.Query("min_capacity"); minCapacity != "" {
		query = query.Where("capacity >= ?", minCapacity)
	}
	if c.Query("include_inactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	query.Count(&total)

	var rooms []models.Room
	if err := query.Order("room_number ASC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&rooms).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "room"))
	}
	return c.JSON(utils.NewListEnvelope(p, total, rooms))
}

// GetRoom returns one room.
func (rc *RoomController) GetRoom(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var room models.Room
	if err := database.DB.First(&room, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "room"))
	}
	return c.JSON(fiber.Map{"room": room})
}

type roomRequest struct {
	RoomNumber string `json:"room_number" validate:"required"`
	Building   string `json:"building"`
	Capacity   int    `json:"capacity" validate:"min=0"`
	IsActive   *bool  `json:"is_active"`
}

// CreateRoom adds a room.
func (rc *RoomController) CreateRoom(c *fiber.Ctx) error {
	var req roomRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	room := models.Room{
		RoomNumber: req.RoomNumber,
		Building:   req.Building,
		Capacity:   req.Capacity,
		IsActive:   true,
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	if err := database.DB.Create(&room).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "room"))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"room": room})
}

// UpdateRoom patches a room.
func (rc *RoomController) UpdateRoom(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var room models.Room
	if err := database.DB.First(&room, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "room"))
	}
	if err := c.BodyParser(&room); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := database.DB.Save(&room).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "room"))
	}
	return c.JSON(fiber.Map{"room": room})
}
