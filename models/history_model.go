package models

import (
	"condo-app/controllers/idgen"
	"condo-app/types"
	"time"

	"gorm.io/gorm"
)

// UnitHistory is the append-only audit trail of unit changes. UnitID is zero
// for condominium-wide actions such as imports and clear-all.
type UnitHistory struct {
	ID            types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CondominiumID types.SnowflakeID `json:"condominium_id" gorm:"index"`
	UnitID        types.SnowflakeID `json:"unit_id" gorm:"index"`
	UnitCode      string            `json:"unit_code"`
	Action        string            `json:"action" gorm:"size:32"`
	Before        string            `json:"before"`
	After         string            `json:"after"`
	CreatedAt     time.Time         `json:"created_at"`
	CreatedBy     int               `json:"created_by"`
}

func (h *UnitHistory) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == 0 {
		h.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
