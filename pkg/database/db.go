package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/arnavshah/callup-allocator-go/pkg/config"
)

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	Name       string     `gorm:"not null" json:"name"`
	KeyPreview string     `json:"key_preview"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`

	// Revoked keys stay soft-deleted so their signature is never re-registered.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// APIUsage represents the api_usage table, one row per key and day
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	TotalMatches int    `gorm:"default:0" json:"total_matches"`
	TotalPlayers int    `gorm:"default:0" json:"total_players"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AllocationRun is the history row written for every allocation request
type AllocationRun struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RunID         string    `gorm:"uniqueIndex;size:36;not null" json:"run_id"`
	KeyID         uint      `gorm:"index" json:"key_id"`
	Source        string    `json:"source"` // json or upload
	Sheet         string    `json:"sheet,omitempty"`
	Matches       int       `json:"matches"`
	Players       int       `json:"players"`
	Violations    int       `json:"violations"`
	FairnessScore float64   `json:"fairness_score"`
	CreatedAt     time.Time `json:"created_at"`
}

// InitDB opens Postgres when DATABASE_URL is set, SQLite at DATA_PATH
// otherwise, and migrates the schema.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var dialector gorm.Dialector
	if cfg.DatabaseURL != "" {
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		})
	} else {
		path := cfg.DataPath
		if path == "" {
			path = "api_keys.db"
		}
		dialector = sqlite.Open(path)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &MasterUser{}, &AllocationRun{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

// RecordUsage bumps today's counters for a key with a single upsert
func RecordUsage(db *gorm.DB, keyID uint, matches, players int) error {
	today := time.Now().Format("2006-01-02")

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"total_matches": gorm.Expr("total_matches + ?", matches),
			"total_players": gorm.Expr("total_players + ?", players),
		}),
	}).Create(&APIUsage{
		KeyID:        keyID,
		Date:         today,
		RequestCount: 1,
		TotalMatches: matches,
		TotalPlayers: players,
	}).Error
}

// UsageHistory returns the last 30 days of usage for a key, newest first
func UsageHistory(db *gorm.DB, keyID uint) ([]APIUsage, error) {
	var usage []APIUsage
	err := db.Where("key_id = ?", keyID).Order("date desc").Limit(30).Find(&usage).Error
	return usage, err
}

// RecentRuns lists allocation runs, newest first. keyID 0 means all keys.
func RecentRuns(db *gorm.DB, keyID uint, limit int) ([]AllocationRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := db.Order("id desc").Limit(limit)
	if keyID != 0 {
		q = q.Where("key_id = ?", keyID)
	}
	var runs []AllocationRun
	err := q.Find(&runs).Error
	return runs, err
}
