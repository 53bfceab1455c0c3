package models

import "time"

// MemberStats is one accepted extraction of a guild member's profile card.
// NetWorth, Prestige and Invested keep their thousands separators because
// the UI and exports show them verbatim.
type MemberStats struct {
	ID              uint `gorm:"primaryKey"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PlayerName      string `gorm:"size:255;not null;uniqueIndex:idx_player_file"`
	PlayerTag       string `gorm:"size:64;uniqueIndex:idx_player_file"`
	GuildName       string `gorm:"size:255;index"`
	Level           *int
	NetWorth        string `gorm:"size:32"`
	Prestige        string `gorm:"size:32"`
	Invested        string `gorm:"size:32"`
	Mastered        *int
	Helped          *int
	Ascensions      *int
	BountyTrophies  *int
	CollectionScore *int
	Confidence      float64
	Engine          string `gorm:"size:32"`
	FileName        string `gorm:"size:255;uniqueIndex:idx_player_file"`
}
