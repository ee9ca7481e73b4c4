// Package repository 提供快照和方案的数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"
)

// DB 数据库接口, *database.DB 和 *sql.Tx 都满足
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxDB 支持事务的数据库
type TxDB interface {
	DB
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}

// ListFilter 列表查询过滤器
type ListFilter struct {
	SnapshotID string `json:"snapshot_id,omitempty"`
	Venue      string `json:"venue,omitempty"`
	Profile    string `json:"profile,omitempty"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 20}
}

// WithLimit 设置限制
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset 设置偏移
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

// WithSnapshot 按快照过滤
func (f ListFilter) WithSnapshot(snapshotID string) ListFilter {
	f.SnapshotID = snapshotID
	return f
}

// WithProfile 按配置过滤
func (f ListFilter) WithProfile(profile string) ListFilter {
	f.Profile = profile
	return f
}

// Page 对已排序的切片应用偏移和限制
func (f ListFilter) Page(n int) (start, end int) {
	start = f.Offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = n
	if f.Limit > 0 && start+f.Limit < n {
		end = start + f.Limit
	}
	return start, end
}

// where 按过滤器生成条件, columns 为字段到列名的映射
func (f ListFilter) where(columns map[string]string) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(field, value string) {
		column, ok := columns[field]
		if !ok || value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("snapshot_id", f.SnapshotID)
	add("venue", f.Venue)
	add("profile", f.Profile)

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// limitClause 追加 LIMIT/OFFSET, 未设置限制时取 math.MaxInt32
func (f ListFilter) limitClause(args []interface{}) (string, []interface{}) {
	limit := f.Limit
	if limit <= 0 {
		limit = math.MaxInt32
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

// timeLayout 定长 UTC 文本, 两种驱动按字符串排序即按时间排序
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("解析时间 %q 失败: %w", s, err)
	}
	return t, nil
}

// Store 同一数据库上的快照和方案仓储
type Store struct {
	*SnapshotRepository
	*PlanRepository
}

// NewStore 创建组合仓储
func NewStore(db TxDB) *Store {
	return &Store{
		SnapshotRepository: NewSnapshotRepository(db),
		PlanRepository:     NewPlanRepository(db),
	}
}
