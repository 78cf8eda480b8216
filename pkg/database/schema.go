package database

import (
	"context"
	"fmt"
)

// InitSchema creates the session and activity log tables. The key/value
// table is owned by the storage package.
func InitSchema(ctx context.Context, db Execer) error {
	// 1. Dashboard Sessions Table
	sessionsQuery := `
		CREATE TABLE IF NOT EXISTS dashboard_sessions (
			id UUID PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			closed_at TIMESTAMP WITH TIME ZONE
		);
	`
	if _, err := db.Exec(ctx, sessionsQuery); err != nil {
		return fmt.Errorf("failed to create dashboard_sessions table: %w", err)
	}

	// 2. Collaboration Logs Table
	logsQuery := `
		CREATE TABLE IF NOT EXISTS collaboration_logs (
			id SERIAL PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES dashboard_sessions(id) ON DELETE CASCADE,
			timestamp TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			metadata JSONB
		);
	`
	if _, err := db.Exec(ctx, logsQuery); err != nil {
		return fmt.Errorf("failed to create collaboration_logs table: %w", err)
	}

	if _, err := db.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_collaboration_logs_session_id ON collaboration_logs(session_id)"); err != nil {
		return fmt.Errorf("failed to create index on collaboration_logs: %w", err)
	}

	return nil
}
