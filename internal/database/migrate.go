package database

import (
	"context"
	"fmt"
)

// migrations 按顺序执行, 语句同时兼容 PostgreSQL 和 SQLite
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		venue TEXT NOT NULL DEFAULT '',
		range_from TEXT NOT NULL,
		range_to TEXT NOT NULL,
		employees INTEGER NOT NULL,
		open_slots INTEGER NOT NULL,
		payload TEXT NOT NULL,
		stored_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		snapshot_id TEXT NOT NULL,
		venue TEXT NOT NULL DEFAULT '',
		profile TEXT NOT NULL,
		range_from TEXT NOT NULL,
		range_to TEXT NOT NULL,
		assigned_slots INTEGER NOT NULL,
		unassigned_slots INTEGER NOT NULL,
		total_slots INTEGER NOT NULL,
		fill_rate DOUBLE PRECISION NOT NULL,
		payload TEXT NOT NULL,
		generated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plans_snapshot ON plans(snapshot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_plans_generated ON plans(generated_at)`,
	`CREATE TABLE IF NOT EXISTS plan_assignments (
		plan_id TEXT NOT NULL,
		assignment_id TEXT NOT NULL,
		slot_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		employee_name TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		hours DOUBLE PRECISION NOT NULL,
		score DOUBLE PRECISION NOT NULL,
		kind TEXT NOT NULL,
		PRIMARY KEY (plan_id, assignment_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_assignments_employee ON plan_assignments(employee_id, date)`,
}

// Migrate 创建表结构, 可重复执行
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("执行迁移 #%d 失败: %w", i+1, err)
		}
	}
	return nil
}
