package routes

import (
	"condo-app/audit"
	"condo-app/config"
	"condo-app/controllers"
	"condo-app/middleware"
	"condo-app/notify"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupCondominiumRoutes(app *fiber.App, db *gorm.DB) {
	controller := controllers.NewCondominiumController(db)
	// Per-route middleware: a group Use on this prefix would also run for
	// every /condominiums/:condoId/units route.
	api := app.Group(config.MAIN_ROUTES + "/condominiums")
	api.Get("/", middleware.AuthMiddleware, controller.GetAllCondominiums)
	api.Post("/", middleware.AuthMiddleware, controller.CreateCondominium)
}

func SetupOwnershipUnitRoutes(app *fiber.App, db *gorm.DB, recorder audit.Recorder, notifier *notify.MailNotifier) {
	controller := controllers.NewOwnershipUnitController(db, recorder, notifier)
	api := app.Group(config.MAIN_ROUTES+"/condominiums/:condoId/units", middleware.AuthMiddleware)

	api.Get("/", controller.GetAllUnits)
	api.Post("/", controller.CreateUnit)
	api.Delete("/", controller.ClearAllUnits)
	api.Post("/upload-excel", controller.UploadUnitsFromExcel)
	api.Get("/template", controller.DownloadTemplate)
	api.Get("/history", controller.GetHistory)
	api.Get("/:id", controller.GetUnitByID)
	api.Put("/:id", controller.UpdateUnit)
	api.Delete("/:id", controller.DeleteUnit)
}
