package models

import (
	"condo-app/controllers/idgen"
	"condo-app/types"
	"time"

	"gorm.io/gorm"
)

type Condominium struct {
	ID        types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name      string            `json:"name" gorm:"size:255;unique;not null"`
	Address   string            `json:"address"`
	Units     []OwnershipUnit   `json:"units,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `json:"created_at"`
	CreatedBy int               `json:"created_by"`
	UpdatedAt time.Time         `json:"updated_at"`
	UpdatedBy int               `json:"updated_by"`
}

func (c *Condominium) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == 0 {
		c.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
