package database

import (
	"errors"

	"condo-app/config"
	"condo-app/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RunSeeders inserts the reference data a fresh install needs.
func RunSeeders(db *gorm.DB) error {
	if err := SeedAdminUser(db); err != nil {
		return err
	}
	return SeedCondominiums(db)
}

// SeedAdminUser creates the first administrator when the users table is
// empty and ADMIN_PASSWORD is set.
func SeedAdminUser(db *gorm.DB) error {
	if config.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(config.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Username: config.AdminUsername,
		Email:    config.AdminEmail,
		Password: string(hash),
		Name:     "Administrator",
		Role:     "admin",
	}
	return db.Create(&admin).Error
}

func SeedCondominiums(db *gorm.DB) error {
	condominiums := []models.Condominium{
		{Name: "Condominio Demo", Address: "Av. Providencia 1234, Santiago"},
	}

	for _, c := range condominiums {
		var existing models.Condominium
		err := db.Where("name = ?", c.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&c).Error; err != nil {
			return err
		}
	}
	return nil
}
