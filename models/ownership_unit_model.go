package models

import (
	"condo-app/controllers/idgen"
	"condo-app/types"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type HolderKind string

const (
	HolderNaturalPerson HolderKind = "NaturalPerson"
	HolderLegalEntity   HolderKind = "LegalEntity"
)

type UsageType string

const (
	UsageApartment   UsageType = "Apartment"
	UsageStorage     UsageType = "Storage"
	UsageParkingSpot UsageType = "ParkingSpot"
)

// UsageTypes lists every accepted usage type in display order.
var UsageTypes = []UsageType{UsageApartment, UsageStorage, UsageParkingSpot}

// RegistryRole is a land-registry cross reference (fojas, número, año).
type RegistryRole struct {
	Page      string      `json:"page"`
	Number    string      `json:"number"`
	Year      string      `json:"year"`
	AppliesTo []UsageType `json:"applies_to"`
}

type CoHolder struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// OwnershipUnit is one co-owned parcel of a condominium. OwnershipShare is
// kept as a fraction of the whole building, so 1.5% is stored as 0.015.
type OwnershipUnit struct {
	ID              types.SnowflakeID   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CondominiumID   types.SnowflakeID   `json:"condominium_id" gorm:"not null;uniqueIndex:idx_units_condo_code"`
	UnitCode        string              `json:"unit_code" gorm:"size:64;not null;uniqueIndex:idx_units_condo_code"`
	OwnershipShare  decimal.NullDecimal `json:"ownership_share" gorm:"type:decimal(13,12)"`
	HolderKind      HolderKind          `json:"holder_kind" gorm:"size:32"`
	HolderName      string              `json:"holder_name" gorm:"size:255;not null"`
	UsageTypes      []UsageType         `json:"usage_types" gorm:"serializer:json"`
	RegistryRoles   []RegistryRole      `json:"registry_roles" gorm:"serializer:json"`
	InscriptionFile string              `json:"inscription_file" gorm:"size:512"`
	ValidityFile    string              `json:"validity_file" gorm:"size:512"`
	CoHolders       []CoHolder          `json:"co_holders" gorm:"serializer:json"`
	Contact         *Contact            `json:"contact" gorm:"serializer:json"`
	Notes           string              `json:"notes"`
	CreatedAt       time.Time           `json:"created_at"`
	CreatedBy       int                 `json:"created_by"`
	UpdatedAt       time.Time           `json:"updated_at"`
	UpdatedBy       int                 `json:"updated_by"`
}

func (u *OwnershipUnit) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == 0 {
		u.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}
