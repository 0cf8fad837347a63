package routes

import (
	"condo-app/audit"
	"condo-app/notify"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup registers every API group.
func Setup(app *fiber.App, db *gorm.DB, recorder audit.Recorder, notifier *notify.MailNotifier) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true})
	})

	SetupAuthRoutes(app, db)
	SetupCondominiumRoutes(app, db)
	SetupOwnershipUnitRoutes(app, db, recorder, notifier)
}
