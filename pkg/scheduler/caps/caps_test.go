package caps

import (
	"math"
	"testing"

	"github.com/paiban/allocator/pkg/model"
)

func f(v float64) *float64 { return &v }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMonthlyCap(t *testing.T) {
	standard := &model.Employee{ID: "e1", FullName: "A", Employment: "Vollzeit", HourlyWage: 15, MaxSalary: 2400}
	mini := &model.Employee{ID: "e2", FullName: "B", Employment: "Minijob", HourlyWage: 14, MaxSalary: 538}
	student := &model.Employee{ID: "e3", FullName: "C", Employment: "Werkstudent"}
	noWage := &model.Employee{ID: "e4", FullName: "D"}

	tests := []struct {
		name     string
		emp      *model.Employee
		rule     model.EmployeeRule
		expected *float64
	}{
		{"关闭上限", standard, model.EmployeeRule{DisableMaxHours: true, MaxMonthlyHours: f(10)}, nil},
		{"明确月上限优先", standard, model.EmployeeRule{MaxMonthlyHours: f(40), TargetMonthlyHours: f(60)}, f(40)},
		{"月目标", standard, model.EmployeeRule{TargetMonthlyHours: f(60), TargetWeeklyHours: f(10)}, f(60)},
		{"周目标换算", standard, model.EmployeeRule{TargetWeeklyHours: f(10)}, f(43.3)},
		{"Minijob 按工资上限", mini, model.EmployeeRule{}, f(538.0 / 14)},
		{"Minijob 无工资", &model.Employee{Employment: "Minijob"}, model.EmployeeRule{}, f(43)},
		{"Minijob 工资很低取43", &model.Employee{Employment: "mini", HourlyWage: 5, MaxSalary: 538}, model.EmployeeRule{}, f(43)},
		{"Werkstudent", student, model.EmployeeRule{}, f(86.6)},
		{"工资上限", standard, model.EmployeeRule{}, f(160)},
		{"兜底", noWage, model.EmployeeRule{}, f(160)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyCap(tt.emp, &tt.rule, true)
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("MonthlyCap() = %v, expected %v", got, tt.expected)
			}
			if got != nil && !approx(*got, *tt.expected) {
				t.Errorf("MonthlyCap() = %v, expected %v", *got, *tt.expected)
			}
		})
	}
}

// 目标工时默认同时是硬上限; 关闭 targets_are_caps 后目标只影响评分.
func TestMonthlyCap_TargetsAreCapsFlag(t *testing.T) {
	emp := &model.Employee{ID: "e1", FullName: "A", HourlyWage: 15, MaxSalary: 2400}
	rule := &model.EmployeeRule{TargetMonthlyHours: f(60)}

	coupled := Resolve(emp, rule, model.DefaultPolicy())
	if coupled.Monthly == nil || *coupled.Monthly != 60 {
		t.Errorf("默认策略下目标应成为上限, got %v", coupled.Monthly)
	}

	policy := model.DefaultPolicy()
	policy.TargetsAreCaps = false
	decoupled := Resolve(emp, rule, policy)
	if decoupled.Monthly == nil || *decoupled.Monthly != 160 {
		t.Errorf("关闭后应使用用工类别上限, got %v", decoupled.Monthly)
	}
	if decoupled.Target == nil || *decoupled.Target != 60 {
		t.Errorf("评分目标不受影响, got %v", decoupled.Target)
	}
}

func TestWeeklyCap(t *testing.T) {
	tests := []struct {
		name     string
		emp      model.Employee
		rule     model.EmployeeRule
		expected float64
	}{
		{"明确周上限", model.Employee{Employment: "Werkstudent"}, model.EmployeeRule{MaxWeeklyHours: f(15)}, 15},
		{"Werkstudent", model.Employee{Employment: "Werkstudent"}, model.EmployeeRule{}, 20},
		{"werki", model.Employee{Employment: "Werki"}, model.EmployeeRule{}, 20},
		{"法定上限", model.Employee{Employment: "Teilzeit"}, model.EmployeeRule{}, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeeklyCap(&tt.emp, &tt.rule); got != tt.expected {
				t.Errorf("WeeklyCap() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestScoringTarget(t *testing.T) {
	emp := &model.Employee{Employment: "Minijob", HourlyWage: 13.5, MaxSalary: 538}

	tests := []struct {
		name     string
		rule     model.EmployeeRule
		expected *float64
	}{
		{"月目标", model.EmployeeRule{TargetMonthlyHours: f(30), TargetWeeklyHours: f(5)}, f(30)},
		{"周目标", model.EmployeeRule{TargetWeeklyHours: f(5)}, f(21.65)},
		{"月上限", model.EmployeeRule{MaxMonthlyHours: f(25)}, f(25)},
		{"关闭上限但有月上限", model.EmployeeRule{DisableMaxHours: true, MaxMonthlyHours: f(25)}, f(25)},
		{"用工类别", model.EmployeeRule{}, f(538 / 13.5)},
		{"关闭上限无目标", model.EmployeeRule{DisableMaxHours: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoringTarget(emp, &tt.rule)
			if (got == nil) != (tt.expected == nil) {
				t.Fatalf("ScoringTarget() = %v, expected %v", got, tt.expected)
			}
			if got != nil && !approx(*got, *tt.expected) {
				t.Errorf("ScoringTarget() = %v, expected %v", *got, *tt.expected)
			}
		})
	}
}

func TestResolve_NilRule(t *testing.T) {
	emp := &model.Employee{Employment: "Werkstudent"}
	l := Resolve(emp, nil, model.DefaultPolicy())
	if l.Weekly != 20 || l.Monthly == nil || !approx(*l.Monthly, 86.6) {
		t.Errorf("Resolve(nil rule) = %+v", l)
	}
}
