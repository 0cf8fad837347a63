package models

import (
	"condo-app/types"
	"time"
)

// FileLog remembers spreadsheets already taken by the batch processor.
type FileLog struct {
	ID            uint              `gorm:"primaryKey"`
	Filename      string            `gorm:"unique;not null"`
	CondominiumID types.SnowflakeID `gorm:"index"`
	DateModified  time.Time
	Outcome       string
	Imported      int
	CreatedAt     time.Time
}
