package controllers

import (
	"context"
	"strings"
	"time"

	"unilms_go/apperrors"
	"unilms_go/database"
	"unilms_go/middleware"
	"unilms_go/services"
	"unilms_go/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct{}

type loginRequest struct {
	Username     string `json:"username" validate:"required"`
	Password     string `json:"password" validate:"required"`
	FrontendType string `json:"frontend_type" validate:"required,oneof=student teacher admin"`
}

// Login authenticates credentials and issues a JWT. The frontend_type field
// names the portal being entered and is gated against the resolved user type.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	result, err := services.Authenticate(req.Username, req.Password, req.FrontendType)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token": result.Token,
		"token_type":   "bearer",
		"user_id":      result.User.ID,
		"username":     result.User.Username,
		"user_type":    result.UserType,
		"full_name":    utils.FullName(result.User.Person),
		"email":        result.User.Email,
	})
}

// Logout blacklists the presented token until it expires.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "missing bearer token"))
	}

	if rc := database.GetRedisClient(); rc != nil {
		ttl := 24 * time.Hour
		if claims, err := middleware.ParseToken(tokenString); err == nil && claims.ExpiresAt != nil {
			if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
				ttl = remaining
			}
		}
		rc.Set(context.Background(), "blacklist:jwt:"+tokenString, "1", ttl)
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Refresh re-resolves the caller's type and issues a fresh token.
func (ac *AuthController) Refresh(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}
	result, err := services.RefreshToken(user)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"token":     result.Token,
		"user_type": result.UserType,
	})
}

// Me returns the authenticated user with their person profile and preferences.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}
	claims, _ := middleware.GetCurrentClaims(c)

	if err := database.DB.
		Preload("Person").
		Preload("Preferences").
		Preload("Student").
		Preload("Staff").
		First(user, "id = ?", user.ID).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "user"))
	}

	body := fiber.Map{"user": user}
	if claims != nil {
		body["user_type"] = claims.UserType
	}
	return c.JSON(body)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword verifies the current password and stores a new bcrypt hash.
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "not authenticated"))
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.E(apperrors.KindValidation, "invalid request body"))
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return respondError(c, err)
	}

	if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return respondError(c, apperrors.E(apperrors.KindUnauthorized, "current password is incorrect"))
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return respondError(c, apperrors.Wrap(err, apperrors.KindInternal, "failed to hash password"))
	}
	if err := database.DB.Model(user).Update("password_hash", hashed).Error; err != nil {
		return respondError(c, apperrors.FromDB(err, "user"))
	}

	return c.JSON(fiber.Map{"message": "Password updated"})
}
