package models

import "time"

// Role is the access-level master record referenced by users. Seeded with
// "administrator" and "user" at startup.
type Role struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:32;uniqueIndex;not null"`
	Description string `gorm:"size:255"`
}
