package controllers

import (
	"time"

	"unilms_go/apperrors"
	"unilms_go/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// respondError maps a domain error to its HTTP response. Unclassified errors
// are logged and surfaced as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	if e, ok := apperrors.As(err); ok {
		body := fiber.Map{
			"error": e.Message,
			"code":  string(e.Kind),
		}
		if len(e.Details) > 0 {
			body["details"] = e.Details
		}
		if e.Kind == apperrors.KindInternal {
			logrus.WithError(err).Error("Internal error")
		}
		return c.Status(e.Status()).JSON(body)
	}
	logrus.WithError(err).Error("Unclassified error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
		"code":  string(apperrors.KindInternal),
	})
}

// paramUUID parses a route parameter as a UUID.
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.E(apperrors.KindValidation, "invalid %s", name)
	}
	return id, nil
}

// requestLanguage picks the display language: lang query param, then the
// configured default.
func requestLanguage(c *fiber.Ctx) string {
	if lang := c.Query("lang"); lang != "" {
		return lang
	}
	if config.AppConfig != nil {
		return config.AppConfig.DefaultLanguage
	}
	return "az"
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(c *fiber.Ctx, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperrors.E(apperrors.KindValidation, "invalid %s, expected YYYY-MM-DD", name)
	}
	return d, nil
}
