package controllers

import (
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/middleware"
	"unilms_go/models"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct{}

// GetUsers lists accounts with optional username/email search.
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := database.DB.Model(&models.User{})
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", like, like)
	}
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Preload("Person").
		Order("username ASC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&users).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "user"))
	}

	return c.JSON(utils.NewListEnvelope(p, total, users))
}

// GetUser returns one account with its linked records.
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var user models.User
	if err := database.DB.
		Preload("Person").
		Preload("Student").
		Preload("Staff").
		Preload("Preferences").
		First(&user, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "user"))
	}
	return c.JSON(fiber.Map{"user": user})
}

type createUserRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone"`
}

// CreateUser creates an account and its person profile in one transaction.
func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.KindInternal, "failed to hash password"))
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		IsActive:     true,
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return apperrors.FromDB(err, "user")
		}
		person := models.Person{
			UserID:    &user.ID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		}
		if err := tx.Create(&person).Error; err != nil {
			return apperrors.FromDB(err, "person")
		}
		return nil
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
	IsLocked *bool   `json:"is_locked"`
}

// UpdateUser patches account flags. Unlocking also resets the failed counter.
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "user"))
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.IsLocked != nil {
		updates["is_locked"] = *req.IsLocked
		if !*req.IsLocked {
			updates["failed_login_count"] = 0
		}
	}
	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			return respondError(c, apperrors.FromDB(err, "user"))
		}
	}
	return c.JSON(fiber.Map{"user": user})
}

type updatePreferencesRequest struct {
	Language           *string `json:"language" validate:"omitempty,len=2"`
	Timezone           *string `json:"timezone"`
	Theme              *string `json:"theme" validate:"omitempty,oneof=light dark"`
	EmailNotifications *bool   `json:"email_notifications"`
	PushNotifications  *bool   `json:"push_notifications"`
}

// UpdateMyPreferences upserts the caller's preference row.
func (uc *UserController) UpdateMyPreferences(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}

	var req updatePreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	var prefs models.UserPreference
	err = database.DB.Where("user_id = ?", user.ID).First(&prefs).Error
	if err == gorm.ErrRecordNotFound {
		prefs = models.UserPreference{UserID: user.ID}
		if err := database.DB.Create(&prefs).Error; err != nil {
			return respondError(c, apperrors.FromDB(err, "preferences"))
		}
	} else if err != nil {
		return respondError(c, apperrors.FromDB(err, "preferences"))
	}

	updates := map[string]interface{}{}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}
	if req.Theme != nil {
		updates["theme"] = *req.Theme
	}
	if req.EmailNotifications != nil {
		updates["email_notifications"] = *req.EmailNotifications
	}
	if req.PushNotifications != nil {
		updates["push_notifications"] = *req.PushNotifications
	}
	if len(updates) > 0 {
		if err := database.DB.Model(&prefs).Updates(updates).Error; err != nil {
			return respondError(c, apperrors.FromDB(err, "preferences"))
		}
	}
	return c.JSON(fiber.Map{"preferences": prefs})
}

// GetMyNotifications lists the caller's notifications, newest first.
func (uc *UserController) GetMyNotifications(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}
	p := utils.ParsePagination(c)
	lang := requestLanguage(c)

	query := database.DB.Model(&models.Notification{}).Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("`read` = ?", false)
	}

	var total int64
	query.Count(&total)

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&notifications).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "notification"))
	}

	type item struct {
		models.Notification
		TitleResolved   string `json:"title_resolved"`
		MessageResolved string `json:"message_resolved"`
	}
	items := make([]item, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, item{
			Notification:    n,
			TitleResolved:   n.Title.Resolve(lang),
			MessageResolved: n.Message.Resolve(lang),
		})
	}
	return c.JSON(utils.NewListEnvelope(p, total, items))
}

// MarkNotificationRead sets the read flag on one of the caller's rows.
func (uc *UserController) MarkNotificationRead(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, user.ID).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if result.Error != nil {
		return respondError(c, apperrors.FromDB(result.Error, "notification"))
	}
	if result.RowsAffected == 0 {
		return respondError(c, apperrors.E(apperrors.KindNotFound, "notification not found"))
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}
