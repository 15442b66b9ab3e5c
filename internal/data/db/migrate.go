package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/sololev-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes creates indexes gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	if IsSQLite(db) {
		return nil
	}
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_task_user_completed", `CREATE INDEX IF NOT EXISTS idx_task_user_completed ON task(user_id) WHERE completed;`},
		{"idx_oauth_state_unused", `CREATE INDEX IF NOT EXISTS idx_oauth_state_unused ON oauth_state(provider, expires_at) WHERE used_at IS NULL;`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
