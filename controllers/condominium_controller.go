package controllers

import (
	"condo-app/middleware"
	"condo-app/models"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CondominiumController struct {
	DB *gorm.DB
}

type condominiumInput struct {
	Name    string `json:"name" validate:"required,min=3,max=255"`
	Address string `json:"address" validate:"max=512"`
}

func NewCondominiumController(db *gorm.DB) *CondominiumController {
	return &CondominiumController{DB: db}
}

func (c *CondominiumController) GetAllCondominiums(ctx *fiber.Ctx) error {
	var condominiums []models.Condominium
	if err := c.DB.WithContext(ctx.UserContext()).Order("name ASC").Find(&condominiums).Error; err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "Condominiums found", "data": condominiums})
}

func (c *CondominiumController) CreateCondominium(ctx *fiber.Ctx) error {
	var input condominiumInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	var count int64
	if err := c.DB.WithContext(ctx.UserContext()).Model(&models.Condominium{}).Where("name = ?", input.Name).Count(&count).Error; err != nil {
		return respondError(ctx, err)
	}
	if count > 0 {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "error": "Condominium already exists"})
	}

	condo := models.Condominium{
		Name:      input.Name,
		Address:   input.Address,
		CreatedBy: middleware.UserID(ctx),
		UpdatedBy: middleware.UserID(ctx),
	}
	if err := c.DB.WithContext(ctx.UserContext()).Create(&condo).Error; err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "Condominium created successfully", "data": condo})
}
