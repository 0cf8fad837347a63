package models

import (
	"condo-app/controllers/idgen"
	"condo-app/types"
	"time"

	"gorm.io/gorm"
)

const (
	RegistryFileInscription = "inscription"
	RegistryFileValidity    = "validity"
)

// RegistryFile points at a registry certificate kept in object storage.
type RegistryFile struct {
	ID         types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UnitID     types.SnowflakeID `json:"unit_id" gorm:"index;not null"`
	Kind       string            `json:"kind" gorm:"size:32"`
	StorageKey string            `json:"storage_key" gorm:"size:512"`
	CreatedAt  time.Time         `json:"created_at"`
	CreatedBy  int               `json:"created_by"`
}

func (f *RegistryFile) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == 0 {
		f.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
