package models

import "time"

// User is an administrator allowed to manage condominium units.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"size:64;unique;not null"`
	Email     string    `json:"email" gorm:"size:255;unique;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Name      string    `json:"name"`
	Role      string    `json:"role" gorm:"size:32;default:admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
