package constraints

import (
	"testing"

	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

func TestGetLibrary(t *testing.T) {
	lib := GetLibrary()
	if len(lib) != len(constraint.AllCodes()) {
		t.Fatalf("约束数量 = %d, expected %d", len(lib), len(constraint.AllCodes()))
	}
	for i, code := range constraint.AllCodes() {
		if lib[i].Code != code {
			t.Errorf("第 %d 项 = %s, expected %s", i, lib[i].Code, code)
		}
		if lib[i].Params == nil {
			t.Errorf("%s 的 Params 不应为 nil", code)
		}
	}

	// 返回副本
	lib[0].Params = append(lib[0].Params, ConstraintParam{Name: "x"})
	if len(GetLibrary()[0].Params) != 1 {
		t.Error("修改返回值不应影响目录")
	}
}

func TestGetByCategory(t *testing.T) {
	tests := []struct {
		name     string
		category constraint.Category
		expected int
	}{
		{"全部", "", 16},
		{"法定约束", constraint.CategoryObligatory, 9},
		{"软约束", constraint.CategorySoft, 7},
		{"未知类别", constraint.Category("other"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(GetByCategory(tt.category)); got != tt.expected {
				t.Errorf("GetByCategory(%q) = %d 项, expected %d", tt.category, got, tt.expected)
			}
		})
	}
}

func TestNewLibraryResponse(t *testing.T) {
	resp := NewLibraryResponse(GetLibrary())
	if resp.Total != 16 || resp.Obligatory != 9 || resp.Soft != 7 {
		t.Errorf("响应计数 = %d/%d/%d", resp.Total, resp.Obligatory, resp.Soft)
	}
}

func TestParamSources(t *testing.T) {
	tests := []struct {
		code   constraint.Code
		source string
	}{
		{constraint.CodeDailyHours, SourceFixed},
		{constraint.CodeRest, SourceFixed},
		{constraint.CodeConsecutiveDays, SourcePolicy},
		{constraint.CodeMaxAdditionalMonthlyHours, SourceEmployeeRule},
		{constraint.CodeStartsTooEarly, SourceNotes},
	}

	lib := GetLibrary()
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			for _, d := range lib {
				if d.Code == tt.code {
					if len(d.Params) == 0 || d.Params[0].Source != tt.source {
						t.Errorf("%s 参数来源不是 %s", tt.code, tt.source)
					}
					return
				}
			}
			t.Errorf("目录中缺少 %s", tt.code)
		})
	}
}
