package scoring

import (
	"reflect"
	"testing"

	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

func scoreOne(emp model.Employee, rule *model.EmployeeRule, shifts []model.AssignedShift, slot model.Slot) Result {
	snap := &model.Snapshot{Employees: []model.Employee{emp}, AssignedShifts: shifts}
	profile := model.NewProfile("test")
	if rule != nil {
		profile.EmployeeRules[emp.FullName] = *rule
	}
	ctx := constraint.NewContext(snap, profile)
	st := constraint.NewRunningState(ctx)
	return NewDefaultScorer().Score(ctx, st, ctx.Candidate(emp.ID), &slot)
}

func mondaySlot(applicants ...string) model.Slot {
	return model.Slot{
		SlotID:       "s1",
		Date:         "2024-01-15",
		Start:        "09:00",
		End:          "15:00",
		ShiftType:    "frueh",
		ApplicantIDs: applicants,
	}
}

func TestWeights(t *testing.T) {
	w := DefaultWeights()
	if w.MaxScore() != 209 {
		t.Errorf("MaxScore() = %v, want 209", w.MaxScore())
	}
	if w.MinScore() != -2 {
		t.Errorf("MinScore() = %v, want -2", w.MinScore())
	}
}

func TestScorer_Score(t *testing.T) {
	f := model.Float64Ptr
	history := []model.AssignedShift{
		{EmployeeID: "e1", Date: "2023-12-04", Start: "09:00", End: "15:00"},
		{EmployeeID: "e1", Date: "2023-12-11", Start: "09:00", End: "15:00"},
		{EmployeeID: "e1", Date: "2023-12-18", Start: "09:00", End: "15:00"},
	}

	tests := []struct {
		name    string
		emp     model.Employee
		rule    *model.EmployeeRule
		shifts  []model.AssignedShift
		slot    model.Slot
		want    model.ScoreBreakdown
		total   float64
		reasons []string
	}{
		{
			name:    "申请人, 角色匹配",
			emp:     model.Employee{ID: "e1", FullName: "Anna", Role: "Service"},
			slot:    mondaySlot("e1"),
			want:    model.ScoreBreakdown{Applicant: 80, Rest: 40, Fairness: 30, Role: 20},
			total:   190,
			reasons: []string{ReasonApplied, ReasonRemaining, ReasonFair},
		},
		{
			name:   "满分",
			emp:    model.Employee{ID: "e1", FullName: "Anna", Role: "service", Skills: []string{"Früh"}},
			rule:   &model.EmployeeRule{Notes: "lieber früh"},
			shifts: history,
			slot: model.Slot{
				SlotID: "s1", Date: "2024-01-15", Start: "09:00", End: "15:00",
				ShiftType: "frueh", WorkingArea: "fruh", ApplicantIDs: []string{"e1"},
			},
			want:    model.ScoreBreakdown{Applicant: 80, Rest: 40, Fairness: 30, Role: 20, Skill: 12, Fixed: 12, Preference: 15},
			total:   209,
			reasons: []string{ReasonApplied, ReasonRemaining, ReasonFair},
		},
		{
			name:  "没有目标工时取中值",
			emp:   model.Employee{ID: "e1", FullName: "Anna"},
			rule:  &model.EmployeeRule{DisableMaxHours: true},
			slot:  mondaySlot(),
			want:  model.ScoreBreakdown{Rest: 20, Fairness: 30, Role: 10},
			total: 60,
		},
		{
			name: "目标工时部分完成",
			emp:  model.Employee{ID: "e1", FullName: "Anna"},
			rule: &model.EmployeeRule{TargetMonthlyHours: f(40)},
			shifts: []model.AssignedShift{
				{EmployeeID: "e1", Date: "2024-01-02", Start: "08:00", End: "18:00"},
			},
			slot:  mondaySlot(),
			want:  model.ScoreBreakdown{Rest: 30, Fairness: 30, Role: 10},
			total: 70,
		},
		{
			name: "本周已有两个班次",
			emp:  model.Employee{ID: "e1", FullName: "Anna"},
			rule: &model.EmployeeRule{TargetMonthlyHours: f(100)},
			shifts: []model.AssignedShift{
				{EmployeeID: "e1", Date: "2024-01-17", Start: "09:00", End: "14:00"},
				{EmployeeID: "e1", Date: "2024-01-18", Start: "09:00", End: "14:00"},
			},
			slot:  mondaySlot(),
			want:  model.ScoreBreakdown{Rest: 36, Fairness: 18, Role: 10},
			total: 64,
		},
		{
			name: "接近工资上限",
			emp:  model.Employee{ID: "e1", FullName: "Anna", HourlyWage: 10, MaxSalary: 100},
			rule: &model.EmployeeRule{DisableMaxHours: true},
			shifts: []model.AssignedShift{
				{EmployeeID: "e1", Date: "2024-01-02", Start: "08:00", End: "12:00"},
			},
			slot:    mondaySlot(),
			want:    model.ScoreBreakdown{Rest: 20, Fairness: 30, Role: 10, Salary: -12},
			total:   48,
			reasons: []string{ReasonFair, ReasonRemaining, ReasonNearSalaryCap},
		},
		{
			name:  "配置中的偏好班次类型",
			emp:   model.Employee{ID: "e1", FullName: "Anna"},
			rule:  &model.EmployeeRule{DisableMaxHours: true, PreferredShiftTypes: []string{"Frueh"}},
			slot:  mondaySlot(),
			want:  model.ScoreBreakdown{Rest: 20, Fairness: 30, Role: 10, Preference: 7.5},
			total: 67.5,
		},
		{
			name:  "备注偏好优先于配置偏好, 不叠加",
			emp:   model.Employee{ID: "e1", FullName: "Anna"},
			rule:  &model.EmployeeRule{DisableMaxHours: true, Notes: "bevorzugt früh", PreferredShiftTypes: []string{"frueh"}},
			slot:  mondaySlot(),
			want:  model.ScoreBreakdown{Rest: 20, Fairness: 30, Role: 10, Preference: 15},
			total: 75,
		},
		{
			name:  "偏好工作区域",
			emp:   model.Employee{ID: "e1", FullName: "Anna"},
			rule:  &model.EmployeeRule{DisableMaxHours: true, PreferredWorkingAreas: []string{"Terrasse"}},
			slot:  model.Slot{SlotID: "s1", Date: "2024-01-15", Start: "09:00", End: "15:00", WorkingArea: "terrasse"},
			want:  model.ScoreBreakdown{Rest: 20, Fairness: 30, Role: 10, Skill: 12},
			total: 72,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreOne(tt.emp, tt.rule, tt.shifts, tt.slot)
			if got.Breakdown != tt.want {
				t.Errorf("Breakdown = %+v, want %+v", got.Breakdown, tt.want)
			}
			if got.Total != tt.total {
				t.Errorf("Total = %v, want %v", got.Total, tt.total)
			}
			if tt.reasons != nil && !reflect.DeepEqual(got.Reasons, tt.reasons) {
				t.Errorf("Reasons = %v, want %v", got.Reasons, tt.reasons)
			}
		})
	}
}

func TestScorer_ScoreDetails(t *testing.T) {
	emp := model.Employee{ID: "e1", FullName: "Anna", HourlyWage: 12.5, MaxSalary: 538}
	shifts := []model.AssignedShift{{EmployeeID: "e1", Date: "2024-01-10", Start: "10:00", End: "14:00"}}
	got := scoreOne(emp, nil, shifts, mondaySlot("e1"))

	if !got.IsApplicant {
		t.Errorf("IsApplicant = false")
	}
	if got.ExistingMonthHours != 4 || got.RunMonthHours != 0 {
		t.Errorf("月工时 = (%v, %v), want (4, 0)", got.ExistingMonthHours, got.RunMonthHours)
	}
	if got.WeekShifts != 0 {
		t.Errorf("WeekShifts = %d, want 0", got.WeekShifts)
	}
	if got.ProjectedSalary == nil || *got.ProjectedSalary != 125 {
		t.Errorf("ProjectedSalary = %v, want 125", got.ProjectedSalary)
	}
	// 标准员工: 538 / 12.5 = 43.04
	if got.TargetHours == nil || *got.TargetHours != 43.04 {
		t.Errorf("TargetHours = %v, want 43.04", got.TargetHours)
	}
}

func TestRoleScore(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name  string
		role  string
		typ   string
		score float64
	}{
		{"完全相同", "Bar", "bar", 20},
		{"亲和表", "Service", "frueh", 20},
		{"角色包含亲和表的键", "Servicekraft", "theke", 20},
		{"班次类型包含角色", "koch", "kochen", 20},
		{"不匹配", "koch", "bar", 10},
		{"没有角色", "", "frueh", 10},
		{"没有类型", "service", "", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleScore(w, tt.role, tt.typ); got != tt.score {
				t.Errorf("RoleScore(%q, %q) = %v, want %v", tt.role, tt.typ, got, tt.score)
			}
		})
	}
}

func TestReasons(t *testing.T) {
	tests := []struct {
		name string
		b    model.ScoreBreakdown
		want []string
	}{
		{
			name: "按绝对值排序, 工资扣分也是理由",
			b:    model.ScoreBreakdown{Role: 10, Salary: -12, Rest: 5},
			want: []string{ReasonNearSalaryCap, ReasonRoleMatch, ReasonRemaining},
		},
		{
			name: "零分项不作为理由",
			b:    model.ScoreBreakdown{Role: 10},
			want: []string{ReasonRoleMatch},
		},
		{
			name: "同分保持固定顺序",
			b:    model.ScoreBreakdown{Skill: 12, Fixed: 12, Role: 20, Fairness: 12},
			want: []string{ReasonRoleMatch, ReasonFair, ReasonSkillMatch},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reasons(tt.b); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reasons() = %v, want %v", got, tt.want)
			}
		})
	}
}
