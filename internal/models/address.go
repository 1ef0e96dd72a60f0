package models

import "time"

// Address is a postal address owned by a single user. At most one address
// per user carries IsDefault.
type Address struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"-" gorm:"index;type:varchar(36);not null"`
	Street     string    `json:"street" gorm:"type:varchar(255);not null"`
	City       string    `json:"city" gorm:"type:varchar(100);not null"`
	State      string    `json:"state" gorm:"type:varchar(100);not null"`
	Country    string    `json:"country" gorm:"type:varchar(100);not null"`
	PostalCode string    `json:"postal_code" gorm:"type:varchar(20);not null"`
	IsDefault  bool      `json:"is_default" gorm:"default:false"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}
