package db

import (
	"fmt"

	"github.com/promptline/smsrouter/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.ErrorLog{},
		&models.SystemMetric{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// ddl defines an index statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_tasks_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_tasks_user_id_created_at
				ON tasks (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_tasks_user_id_state",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_tasks_user_id_state
				ON tasks (user_id, state)
			`,
		},
		{
			name: "idx_tasks_user_id_truncated",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_tasks_user_id_truncated
				ON tasks (user_id, truncated, created_at DESC)
			`,
		},
		{
			name: "idx_error_logs_kind_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_error_logs_kind_created_at
				ON error_logs (kind, created_at DESC)
			`,
		},
		{
			name: "idx_system_metrics_name_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_system_metrics_name_created_at
				ON system_metrics (name, created_at DESC)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}
