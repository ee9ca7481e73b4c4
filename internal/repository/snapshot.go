package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/model"
)

// SnapshotRepository 快照仓储
type SnapshotRepository struct {
	db  DB
	now func() time.Time
}

// NewSnapshotRepository 创建快照仓储
func NewSnapshotRepository(db DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

var snapshotColumns = map[string]string{
	"venue": "venue",
}

// SaveSnapshot 保存快照, 相同ID覆盖
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snap *model.Snapshot) (model.SnapshotSummary, error) {
	if snap.SnapshotID == "" {
		return model.SnapshotSummary{}, errors.InvalidInput("snapshot_id", "不能为空")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return model.SnapshotSummary{}, errors.Wrap(err, errors.CodeStorageError, "序列化快照失败")
	}
	storedAt := r.now()

	query := `
		INSERT INTO snapshots (id, venue, range_from, range_to, employees, open_slots, payload, stored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			venue = excluded.venue, range_from = excluded.range_from, range_to = excluded.range_to,
			employees = excluded.employees, open_slots = excluded.open_slots,
			payload = excluded.payload, stored_at = excluded.stored_at
	`
	if _, err := r.db.ExecContext(ctx, query,
		snap.SnapshotID, snap.Venue, snap.Range.From, snap.Range.To,
		len(snap.Employees), len(snap.OpenSlots), string(payload), formatTime(storedAt),
	); err != nil {
		return model.SnapshotSummary{}, errors.Wrap(err, errors.CodeDatabaseError, "保存快照失败")
	}
	return snap.Summarize(storedAt.UTC()), nil
}

// GetSnapshot 按ID读取快照, id 为空时读取最近保存的快照
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	query, args := "SELECT payload FROM snapshots WHERE id = $1", []interface{}{id}
	if id == "" {
		query, args = "SELECT payload FROM snapshots ORDER BY stored_at DESC, id LIMIT 1", nil
	}
	var payload string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		if id == "" {
			return nil, errors.New(errors.CodeSnapshotNotFound, "尚未保存任何快照")
		}
		return nil, errors.New(errors.CodeSnapshotNotFound, fmt.Sprintf("快照 '%s' 不存在", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询快照失败")
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("快照 '%s' 数据损坏", id))
	}
	return &snap, nil
}

// ListSnapshots 按保存时间倒序列出快照摘要
func (r *SnapshotRepository) ListSnapshots(ctx context.Context, filter ListFilter) ([]model.SnapshotSummary, error) {
	whereClause, args := filter.where(snapshotColumns)
	limitClause, args := filter.limitClause(args)

	query := fmt.Sprintf(`
		SELECT id, venue, range_from, range_to, employees, open_slots, stored_at
		FROM snapshots %s
		ORDER BY stored_at DESC, id
		%s
	`, whereClause, limitClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询快照列表失败")
	}
	defer rows.Close()

	out := []model.SnapshotSummary{}
	for rows.Next() {
		var (
			s        model.SnapshotSummary
			storedAt string
		)
		if err := rows.Scan(&s.SnapshotID, &s.Venue, &s.Range.From, &s.Range.To, &s.Employees, &s.OpenSlots, &storedAt); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "扫描快照失败")
		}
		t, err := parseTime(storedAt)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeStorageError, "快照时间无效")
		}
		s.StoredAt = t
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "遍历快照列表失败")
	}
	return out, nil
}
