package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/gamecafe-session-engine/internal/config"
)

// schema is written once with two dialect tokens: {{pk}} for the
// auto-increment primary key and {{fk}} for foreign key column types.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id {{pk}},
		username VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'MEMBER',
		tier VARCHAR(16) NOT NULL DEFAULT 'Bronze',
		balance DECIMAL(10,2) NOT NULL DEFAULT 0,
		points BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS terminals (
		id {{pk}},
		name VARCHAR(64) NOT NULL UNIQUE,
		status VARCHAR(16) NOT NULL DEFAULT 'Available',
		current_user_id {{fk}} NULL REFERENCES members(id),
		current_game VARCHAR(128) NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS time_packages (
		id {{pk}},
		name VARCHAR(64) NOT NULL,
		duration_hours INT NOT NULL DEFAULT 0,
		duration_minutes INT NOT NULL DEFAULT 0,
		price DECIMAL(10,2) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS happy_hours (
		id {{pk}},
		name VARCHAR(64) NOT NULL,
		days_of_week VARCHAR(32) NOT NULL,
		start_time CHAR(5) NOT NULL,
		end_time CHAR(5) NOT NULL,
		discount_percent INT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id {{pk}},
		member_id {{fk}} NOT NULL REFERENCES members(id),
		terminal_id {{fk}} NOT NULL REFERENCES terminals(id),
		start_time DATETIME NOT NULL,
		end_time DATETIME NULL,
		status VARCHAR(8) NOT NULL,
		duration_minutes INT NULL,
		total_cost DECIMAL(10,2) NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX idx_sessions_terminal_status ON sessions(terminal_id, status)`,
	`CREATE INDEX idx_sessions_member ON sessions(member_id)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id {{pk}},
		member_id {{fk}} NULL REFERENCES members(id),
		type VARCHAR(32) NOT NULL,
		title VARCHAR(128) NOT NULL,
		message VARCHAR(512) NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (
		id {{pk}},
		type VARCHAR(32) NOT NULL,
		user_id {{fk}} NULL,
		message VARCHAR(512) NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id {{pk}},
		member_id {{fk}} NOT NULL REFERENCES members(id),
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL
	)`,
}

// Migrate creates the schema for the given driver. It is idempotent:
// tables use IF NOT EXISTS and index creation errors for existing indexes
// are ignored.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var r *strings.Replacer
	switch driver {
	case config.DriverMySQL:
		r = strings.NewReplacer("{{pk}}", "BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY", "{{fk}}", "BIGINT UNSIGNED")
	case config.DriverSQLite:
		r = strings.NewReplacer("{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{{fk}}", "INTEGER")
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	for _, stmt := range schema {
		q := r.Replace(stmt)
		if strings.HasPrefix(q, "CREATE INDEX") {
			if driver == config.DriverSQLite {
				q = strings.Replace(q, "CREATE INDEX", "CREATE INDEX IF NOT EXISTS", 1)
			}
			// MySQL has no IF NOT EXISTS for indexes; a duplicate index is fine.
			_, _ = db.ExecContext(ctx, q)
			continue
		}
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
