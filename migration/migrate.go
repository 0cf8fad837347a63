package migration

import (
	"condo-app/database"
	"condo-app/models"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Condominium{},
		&models.OwnershipUnit{},
		&models.UnitHistory{},
		&models.RegistryFile{},
		&models.FileLog{},
		&models.User{},
	); err != nil {
		return err
	}
	return database.InstallClearProcedure(db)
}
