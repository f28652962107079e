package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements 巡检规则与合规记录表结构
// compliance_records 的唯一约束是"每个发生最多一条记录"的最后防线
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rounds (
		round_id       TEXT PRIMARY KEY,
		name           TEXT,
		client         TEXT,
		site           TEXT,
		scheduled_time TEXT,
		tolerance      DOUBLE PRECISION,
		tolerance_unit TEXT,
		frequency      TEXT,
		created_at     TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS round_checkpoints (
		round_id          TEXT NOT NULL REFERENCES rounds(round_id) ON DELETE CASCADE,
		position          INTEGER NOT NULL,
		name              TEXT,
		qr_code           TEXT,
		requires_question BOOLEAN NOT NULL DEFAULT FALSE,
		questions         TEXT[],
		PRIMARY KEY (round_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS compliance_records (
		record_id               TEXT PRIMARY KEY,
		round_id                TEXT NOT NULL,
		round_name              TEXT,
		client                  TEXT,
		site                    TEXT,
		status                  VARCHAR(20) NOT NULL,
		window_start            TIMESTAMPTZ NOT NULL,
		window_end              TIMESTAMPTZ NOT NULL,
		scheduled_time          TEXT NOT NULL,
		tolerance               DOUBLE PRECISION,
		tolerance_unit          TEXT,
		checkpoint_results      JSONB NOT NULL DEFAULT '{}'::jsonb,
		record_date             TEXT NOT NULL,
		cadence                 TEXT,
		generated_automatically BOOLEAN NOT NULL DEFAULT FALSE,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_compliance_occurrence
		ON compliance_records (round_id, record_date, scheduled_time)`,
	`CREATE INDEX IF NOT EXISTS ix_compliance_round_window
		ON compliance_records (round_id, window_start DESC)`,
}

// EnsureSchema 按需建表（幂等）
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
