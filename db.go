package main

import (
	"log"
	"os"
	"strings"

	"guildtrack/models"
	"guildtrack/pkg/stats"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	// Ensure the roles master table exists first and seed it so users FK can be applied safely.
	if shouldMigrate {
		if err := db.AutoMigrate(&models.Role{}); err != nil {
			log.Printf("migration warning (roles): %v", err)
		}
	}
	seedRoles()

	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.MemberStats{}); err != nil {
			log.Printf("migration warning (member_stats): %v", err)
		}
		if err := db.AutoMigrate(&models.Capture{}); err != nil {
			log.Printf("migration warning (captures): %v", err)
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			log.Printf("migration warning (refresh_tokens): %v", err)
		}
		if err := ensureCaptureStatsFK(); err != nil {
			log.Printf("warning: ensuring captures->member_stats FK failed: %v", err)
		}
	}
	seedDB()
}

// ensureCaptureStatsFK adds the member_stats_id column and FK constraint if they are missing.
func ensureCaptureStatsFK() error {
	if err := db.Exec(`ALTER TABLE captures ADD COLUMN IF NOT EXISTS member_stats_id BIGINT`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_captures_member_stats_id ON captures(member_stats_id)`).Error; err != nil {
		return err
	}
	type cnt struct{ N int }
	var c cnt
	fkCheckSQL := `SELECT count(*) AS n
		FROM pg_constraint ct
		JOIN pg_class rel ON rel.oid = ct.conrelid
		WHERE rel.relname = 'captures' AND ct.contype = 'f'
		  AND pg_get_constraintdef(ct.oid) ILIKE '%member_stats_id%' AND pg_get_constraintdef(ct.oid) ILIKE '%member_stats%'`
	if err := db.Raw(fkCheckSQL).Scan(&c).Error; err != nil {
		return err
	}
	if c.N == 0 {
		if err := db.Exec(`ALTER TABLE captures
			ADD CONSTRAINT fk_captures_member_stats
			FOREIGN KEY (member_stats_id) REFERENCES member_stats(id)
			ON UPDATE CASCADE ON DELETE SET NULL`).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedRoles() {
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}

func seedDB() {
	seedRoles()

	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count == 0 {
		var role models.Role
		if err := db.Where("name = ?", "administrator").First(&role).Error; err != nil {
			log.Printf("failed to find administrator role: %v", err)
		}
		rid := role.ID
		admin := models.User{
			Username: "admin",
			RoleID:   &rid,
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: username=admin, password=admin123")
	}
	ensureCaptureBase()
}

// ensureCaptureBase creates the base captures directory.
func ensureCaptureBase() {
	base := captureBaseDir()
	if err := os.MkdirAll(base, 0755); err != nil {
		log.Printf("failed to create capture base dir %s: %v", base, err)
	}
}

// captureBaseDir returns the base directory for stored captures (configurable via CAPTURE_BASE env)
func captureBaseDir() string {
	if v := os.Getenv("CAPTURE_BASE"); v != "" {
		return v
	}
	return "captures"
}

// gormStore is the persistence collaborator handed to the pipeline.
type gormStore struct {
	db *gorm.DB
}

// SaveMemberStats inserts an accepted extraction. A duplicate (player, tag,
// file) is treated as already recorded, not an error, so re-enqueued
// captures stay idempotent.
func (s *gormStore) SaveMemberStats(p stats.Profile, engine, fileName string) (uint, error) {
	rec := models.MemberStats{
		PlayerName:      p.Name,
		PlayerTag:       p.Tag,
		GuildName:       p.GuildName,
		Level:           p.Level,
		NetWorth:        p.NetWorth,
		Prestige:        p.Prestige,
		Invested:        p.Invested,
		Mastered:        p.Mastered,
		Helped:          p.Helped,
		Ascensions:      p.Ascensions,
		BountyTrophies:  p.BountyTrophies,
		CollectionScore: p.CollectionScore,
		Confidence:      p.Confidence,
		Engine:          engine,
		FileName:        fileName,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		if isUniqueConstraintError(err) {
			var existing models.MemberStats
			if err2 := s.db.Where("player_name = ? AND player_tag = ? AND file_name = ?", p.Name, p.Tag, fileName).First(&existing).Error; err2 == nil {
				return existing.ID, nil
			}
		}
		return 0, err
	}
	return rec.ID, nil
}

// LinkCapture points the capture row at its accepted stats record.
func (s *gormStore) LinkCapture(fileName string, statsID uint) {
	s.db.Model(&models.Capture{}).Where("file_name = ?", fileName).
		Updates(map[string]any{"member_stats_id": statsID, "failed": false, "failed_reason": ""})
}

// MarkCaptureFailed records the failure reason on the capture row, if one
// exists (watcher-enqueued files have none).
func (s *gormStore) MarkCaptureFailed(fileName, reason string) {
	if len(reason) > 255 {
		reason = reason[:255]
	}
	s.db.Model(&models.Capture{}).Where("file_name = ?", fileName).
		Updates(map[string]any{"failed": true, "failed_reason": reason})
}
