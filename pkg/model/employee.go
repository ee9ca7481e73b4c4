package model

import (
	"strings"
)

// EmploymentCategory 用工类别
type EmploymentCategory string

const (
	EmploymentMini     EmploymentCategory = "mini"     // Minijob
	EmploymentStudent  EmploymentCategory = "student"  // Werkstudent
	EmploymentStandard EmploymentCategory = "standard" // 其他
)

// Employee 员工
type Employee struct {
	ID         string   `json:"employee_id" validate:"required"`
	FirstName  string   `json:"first_name,omitempty"`
	LastName   string   `json:"last_name,omitempty"`
	FullName   string   `json:"full_name" validate:"required"`
	Username   string   `json:"username,omitempty"`
	Role       string   `json:"role,omitempty"`
	Employment string   `json:"employment,omitempty"`
	HourlyWage float64  `json:"hourly_wage" validate:"gte=0"`
	MaxSalary  float64  `json:"max_salary" validate:"gte=0"`
	Skills     []string `json:"skills,omitempty"`
}

// NameKey 规范化全名
func (e *Employee) NameKey() string {
	return CanonicalName(e.FullName)
}

// FirstNameKey 规范化名, 未提供时取全名第一个词
func (e *Employee) FirstNameKey() string {
	if e.FirstName != "" {
		return CanonicalName(e.FirstName)
	}
	if fields := strings.Fields(e.NameKey()); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// AliasKey 规范化用户名
func (e *Employee) AliasKey() string {
	return CanonicalName(e.Username)
}

// Category 根据用工类型文本推断类别
func (e *Employee) Category() EmploymentCategory {
	key := CanonicalName(e.Employment)
	switch {
	case strings.Contains(key, "mini"):
		return EmploymentMini
	case strings.Contains(key, "werk"):
		return EmploymentStudent
	default:
		return EmploymentStandard
	}
}

// HasSalaryCap 工资和工资上限都大于零
func (e *Employee) HasSalaryCap() bool {
	return e.HourlyWage > 0 && e.MaxSalary > 0
}
