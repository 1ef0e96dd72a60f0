package models

import "time"

// User represents an account of the file service. Email is the login key.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email       string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Username    string    `json:"username" gorm:"uniqueIndex;type:varchar(150);not null"`
	Password    string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	PhoneNumber string    `json:"phone_number" gorm:"type:varchar(15)"`
	IsStaff     bool      `json:"is_staff" gorm:"default:false"`
	Addresses   []Address `json:"addresses" gorm:"constraint:OnDelete:CASCADE"`
	Files       []File    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
