package models

import "time"

// File is the metadata record of an uploaded payload. FileType and FileSize
// are derived once at upload time.
type File struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string    `json:"-" gorm:"index;type:varchar(36);not null"`
	StorageKey string    `json:"-" gorm:"type:varchar(512);not null"`
	Filename   string    `json:"filename" gorm:"type:varchar(255);not null"`
	FileType   string    `json:"file_type" gorm:"type:varchar(10);index"`
	UploadDate time.Time `json:"upload_date" gorm:"index;not null"`
	FileSize   int64     `json:"file_size" gorm:"not null"`
}
