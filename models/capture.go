package models

import "time"

// Capture represents one received screenshot file. Simplified to the fields
// the pipeline and review UI need.
type Capture struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	FileName      string `gorm:"size:255;not null;index"`
	StorePath     string `gorm:"column:store_path;size:512"` // relative path under the capture base
	UserID        uint   `gorm:"index;not null"`             // FK to users.id
	User          User   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ContentType   string `gorm:"size:128"`
	SourceLabel   string `gorm:"size:64"`
	Region        string `gorm:"size:64"`
	QueueID       string `gorm:"size:64;index"` // opaque queue item id handed back to the producer
	MemberStatsID *uint  `gorm:"index"`         // FK to member_stats.id (nullable)
	// Mark capture as failed in the pipeline (keep the record so the
	// front-end/admin can review)
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
