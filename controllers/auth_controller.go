package controllers

import (
	"errors"
	"time"

	"condo-app/config"
	"condo-app/middleware"
	"condo-app/repositories"
	"condo-app/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	Users *services.UserService
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{
		Users: services.NewUserService(
			repositories.NewUserRepository(db),
			config.JWTSecret,
			time.Duration(config.AccessTTL)*time.Second,
			time.Duration(config.JWTExpiration)*time.Second,
		),
	}
}

func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request",
		})
	}

	if input.Email == "" || input.Password == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Missing required fields",
		})
	}

	user, tokens, err := c.Users.Login(ctx.UserContext(), input.Email, input.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		config.Logger.WithField("login", input.Email).WithField("ip", ctx.IP()).Info("login failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid username or password",
		})
	}
	if err != nil {
		return respondError(ctx, err)
	}

	ctx.Cookie(config.GetTokenCookie(tokens.Refresh))

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Login successfully",
		"x_token": tokens.Access,
		"user":    user,
	})
}

func (c *AuthController) RefreshToken(ctx *fiber.Ctx) error {
	tokenString := ctx.Cookies("refresh_token")
	if tokenString == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized - refresh token not found",
		})
	}

	access, err := c.Users.Refresh(tokenString)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Unauthorized",
		})
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":      true,
		"message":      "Token refreshed successfully",
		"access_token": access,
	})
}

func (c *AuthController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(config.GetTokenCookie(""))

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Logout successful",
	})
}

func (c *AuthController) GetProfile(ctx *fiber.Ctx) error {
	user, err := c.Users.GetUserByID(ctx.UserContext(), uint(middleware.UserID(ctx)))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "User not found"})
	}
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "data": user})
}
