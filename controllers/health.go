package controllers

import (
	"context"
	"time"

	"unilms_go/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct{}

// Health reports liveness of the process and its dependencies.
func (hc *HealthController) Health(c *fiber.Ctx) error {
	status := "ok"
	checks := fiber.Map{}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Ping(); err != nil {
			checks["database"] = "down"
			status = "degraded"
		} else {
			checks["database"] = "up"
		}
	} else {
		checks["database"] = "down"
		status = "degraded"
	}

	if rc := database.GetRedisClient(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
		} else {
			checks["redis"] = "up"
		}
	} else {
		checks["redis"] = "disabled"
	}

	return c.JSON(fiber.Map{
		"status": status,
		"time":   time.Now().UTC(),
		"checks": checks,
	})
}
