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

// StoredAssignment 方案中的单条分配, 用于按员工查询
type StoredAssignment struct {
	PlanID       string               `json:"plan_id"`
	AssignmentID string               `json:"assignment_id"`
	SlotID       string               `json:"slot_id"`
	EmployeeID   string               `json:"employee_id"`
	EmployeeName string               `json:"employee_name"`
	Date         string               `json:"date"`
	Start        string               `json:"start"`
	End          string               `json:"end"`
	Hours        float64              `json:"hours"`
	Score        float64              `json:"score"`
	Kind         model.AssignmentKind `json:"assignment_kind"`
}

// PlanRepository 方案仓储
type PlanRepository struct {
	db  TxDB
	now func() time.Time
}

// NewPlanRepository 创建方案仓储
func NewPlanRepository(db TxDB) *PlanRepository {
	return &PlanRepository{db: db, now: time.Now}
}

var planColumns = map[string]string{
	"snapshot_id": "snapshot_id",
	"venue":       "venue",
	"profile":     "profile",
}

// SavePlan 保存方案, 相同 plan_id 覆盖旧记录
func (r *PlanRepository) SavePlan(ctx context.Context, plan *model.Plan) (model.PlanSummary, error) {
	payload, err := json.Marshal(plan)
	if err != nil {
		return model.PlanSummary{}, errors.Wrap(err, errors.CodeStorageError, "序列化方案失败")
	}
	generatedAt := r.now()

	err = r.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO plans (
				id, snapshot_id, venue, profile, range_from, range_to,
				assigned_slots, unassigned_slots, total_slots, fill_rate, payload, generated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				snapshot_id = excluded.snapshot_id, venue = excluded.venue, profile = excluded.profile,
				range_from = excluded.range_from, range_to = excluded.range_to,
				assigned_slots = excluded.assigned_slots, unassigned_slots = excluded.unassigned_slots,
				total_slots = excluded.total_slots, fill_rate = excluded.fill_rate,
				payload = excluded.payload, generated_at = excluded.generated_at
		`
		if _, err := tx.ExecContext(ctx, query,
			plan.PlanID, plan.SnapshotID, plan.Venue, plan.Profile, plan.Range.From, plan.Range.To,
			plan.Metrics.AssignedSlots, plan.Metrics.UnassignedSlots, plan.Metrics.TotalSlots, plan.Metrics.FillRate,
			string(payload), formatTime(generatedAt),
		); err != nil {
			return fmt.Errorf("保存方案失败: %w", err)
		}

		// 先删除旧分配再写入
		if _, err := tx.ExecContext(ctx, "DELETE FROM plan_assignments WHERE plan_id = $1", plan.PlanID); err != nil {
			return fmt.Errorf("删除方案分配失败: %w", err)
		}
		for _, a := range plan.Assignments {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO plan_assignments (
					plan_id, assignment_id, slot_id, employee_id, employee_name,
					date, start_time, end_time, hours, score, kind
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				plan.PlanID, a.AssignmentID, a.SlotID, a.EmployeeID, a.EmployeeName,
				a.Date, a.Start, a.End, a.Hours, a.Score, string(a.Kind),
			); err != nil {
				return fmt.Errorf("保存分配 %s 失败: %w", a.AssignmentID, err)
			}
		}
		return nil
	})
	if err != nil {
		return model.PlanSummary{}, errors.Wrap(err, errors.CodeDatabaseError, "保存方案失败")
	}
	return plan.Summarize(generatedAt.UTC()), nil
}

// GetPlan 按ID读取方案, id 为空时读取最近生成的方案
func (r *PlanRepository) GetPlan(ctx context.Context, id string) (*model.Plan, error) {
	var (
		payload string
		err     error
	)
	if id == "" {
		err = r.db.QueryRowContext(ctx,
			"SELECT payload FROM plans ORDER BY generated_at DESC, id LIMIT 1").Scan(&payload)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT payload FROM plans WHERE id = $1", id).Scan(&payload)
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		if id == "" {
			return nil, errors.New(errors.CodePlanNotFound, "尚未保存任何方案")
		}
		return nil, errors.New(errors.CodePlanNotFound, fmt.Sprintf("方案 '%s' 不存在", id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询方案失败")
	}

	var plan model.Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("方案 '%s' 数据损坏", id))
	}
	return &plan, nil
}

// ListPlans 按生成时间倒序列出方案摘要
func (r *PlanRepository) ListPlans(ctx context.Context, filter ListFilter) ([]model.PlanSummary, error) {
	whereClause, args := filter.where(planColumns)
	limitClause, args := filter.limitClause(args)

	query := fmt.Sprintf(`
		SELECT id, snapshot_id, venue, profile, range_from, range_to,
			assigned_slots, unassigned_slots, total_slots, fill_rate, generated_at
		FROM plans %s
		ORDER BY generated_at DESC, id
		%s
	`, whereClause, limitClause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询方案列表失败")
	}
	defer rows.Close()

	summaries := []model.PlanSummary{}
	for rows.Next() {
		s, err := scanPlanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "遍历方案列表失败")
	}
	return summaries, nil
}

func scanPlanSummary(row Scanner) (model.PlanSummary, error) {
	var (
		s           model.PlanSummary
		generatedAt string
	)
	if err := row.Scan(
		&s.PlanID, &s.SnapshotID, &s.Venue, &s.Profile, &s.Range.From, &s.Range.To,
		&s.Metrics.AssignedSlots, &s.Metrics.UnassignedSlots, &s.Metrics.TotalSlots, &s.Metrics.FillRate,
		&generatedAt,
	); err != nil {
		return s, errors.Wrap(err, errors.CodeDatabaseError, "扫描方案失败")
	}
	t, err := parseTime(generatedAt)
	if err != nil {
		return s, errors.Wrap(err, errors.CodeStorageError, "方案时间无效")
	}
	s.GeneratedAt = t
	return s, nil
}

// DeletePlan 删除方案及其分配
func (r *PlanRepository) DeletePlan(ctx context.Context, id string) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM plan_assignments WHERE plan_id = $1", id); err != nil {
			return fmt.Errorf("删除方案分配失败: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM plans WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("删除方案失败: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.New(errors.CodePlanNotFound, fmt.Sprintf("方案 '%s' 不存在", id))
		}
		return nil
	})
}

// AssignmentsByEmployee 员工在日期范围内 (含两端) 的所有已保存分配
func (r *PlanRepository) AssignmentsByEmployee(ctx context.Context, employeeID string, rng model.DateRange) ([]StoredAssignment, error) {
	query := `
		SELECT plan_id, assignment_id, slot_id, employee_id, employee_name,
			date, start_time, end_time, hours, score, kind
		FROM plan_assignments
		WHERE employee_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, start_time, plan_id
	`
	rows, err := r.db.QueryContext(ctx, query, employeeID, rng.From, rng.To)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "查询员工分配失败")
	}
	defer rows.Close()

	out := []StoredAssignment{}
	for rows.Next() {
		var (
			a    StoredAssignment
			kind string
		)
		if err := rows.Scan(
			&a.PlanID, &a.AssignmentID, &a.SlotID, &a.EmployeeID, &a.EmployeeName,
			&a.Date, &a.Start, &a.End, &a.Hours, &a.Score, &kind,
		); err != nil {
			return nil, errors.Wrap(err, errors.CodeDatabaseError, "扫描员工分配失败")
		}
		a.Kind = model.AssignmentKind(kind)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "遍历员工分配失败")
	}
	return out, nil
}
