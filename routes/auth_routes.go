package routes

import (
	"condo-app/config"
	"condo-app/controllers"
	"condo-app/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authController := controllers.NewAuthController(db)

	api := app.Group(config.MAIN_ROUTES + "/auth")
	api.Post("/login", authController.Login)
	api.Post("/refresh", authController.RefreshToken)
	api.Get("/logout", middleware.AuthMiddleware, authController.Logout)
	api.Get("/profile", middleware.AuthMiddleware, authController.GetProfile)
}
