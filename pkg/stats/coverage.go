package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paiban/allocator/pkg/model"
)

// 热力图单元状态
const (
	CellFilled   = "filled"
	CellPartial  = "partial"
	CellUnfilled = "unfilled"
)

// topBlockedReasons 未分配分析中保留的拦截原因数量
const topBlockedReasons = 10

// CoverageMetrics 覆盖情况
type CoverageMetrics struct {
	TotalSlots      int     `json:"total_slots"`
	AssignedSlots   int     `json:"assigned_slots"`
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	Heatmap           []CoverageCell     `json:"heatmap"`             // 日期 × 班次类型
	DailyCoverage     []DayCoverage      `json:"daily_coverage"`      // 每日覆盖情况
	ShiftTypeCoverage map[string]float64 `json:"shift_type_coverage"` // 按班次类型覆盖率
}

// CoverageCell 热力图单元
type CoverageCell struct {
	Date      string `json:"date"`
	ShiftType string `json:"shift_type"`
	Total     int    `json:"total"`
	Assigned  int    `json:"assigned"`
	Status    string `json:"status"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalSlots   int     `json:"total_slots"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	StaffCount   int     `json:"staff_count"`
	TotalHours   float64 `json:"total_hours"`
}

// UnassignedAnalysis 未分配班次分析
type UnassignedAnalysis struct {
	Count              int            `json:"count"`
	ReasonDistribution map[string]int `json:"reason_distribution"`
	ByShiftType        map[string]int `json:"by_shift_type"`
	ByDate             map[string]int `json:"by_date"`
	TopBlockedReasons  []CodeCount    `json:"top_blocked_reasons"`
}

// CodeCount 拦截代码及出现次数
type CodeCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

type cellKey struct {
	date      string
	shiftType string
}

// Analyze 分析方案的班次覆盖
func (c *CoverageAnalyzer) Analyze(plan *model.Plan) CoverageMetrics {
	metrics := CoverageMetrics{
		Heatmap:           []CoverageCell{},
		DailyCoverage:     []DayCoverage{},
		ShiftTypeCoverage: map[string]float64{},
	}
	if plan == nil {
		return metrics
	}

	cells := make(map[cellKey]*CoverageCell)
	daily := make(map[string]*DayCoverage)
	staff := make(map[string]map[string]bool)
	typeTotals := make(map[string]int)
	typeAssigned := make(map[string]int)

	cellFor := func(date, shiftType string) *CoverageCell {
		key := cellKey{date, shiftType}
		cell, ok := cells[key]
		if !ok {
			cell = &CoverageCell{Date: date, ShiftType: shiftType}
			cells[key] = cell
		}
		return cell
	}
	dayFor := func(date string) *DayCoverage {
		day, ok := daily[date]
		if !ok {
			day = &DayCoverage{Date: date}
			daily[date] = day
			staff[date] = make(map[string]bool)
		}
		return day
	}

	for _, a := range plan.Assignments {
		cell := cellFor(a.Date, a.ShiftType)
		cell.Total++
		cell.Assigned++

		day := dayFor(a.Date)
		day.TotalSlots++
		day.Assigned++
		day.TotalHours += a.Hours
		staff[a.Date][a.EmployeeID] = true

		typeTotals[a.ShiftType]++
		typeAssigned[a.ShiftType]++
	}
	for _, u := range plan.Unassigned {
		cellFor(u.Date, u.ShiftType).Total++
		dayFor(u.Date).TotalSlots++
		typeTotals[u.ShiftType]++
	}

	metrics.AssignedSlots = len(plan.Assignments)
	metrics.TotalSlots = len(plan.Assignments) + len(plan.Unassigned)
	metrics.OverallCoverage = percent(metrics.AssignedSlots, metrics.TotalSlots)

	for _, cell := range cells {
		switch {
		case cell.Assigned == cell.Total:
			cell.Status = CellFilled
		case cell.Assigned > 0:
			cell.Status = CellPartial
		default:
			cell.Status = CellUnfilled
		}
		metrics.Heatmap = append(metrics.Heatmap, *cell)
	}
	sort.Slice(metrics.Heatmap, func(i, j int) bool {
		if metrics.Heatmap[i].Date != metrics.Heatmap[j].Date {
			return metrics.Heatmap[i].Date < metrics.Heatmap[j].Date
		}
		return metrics.Heatmap[i].ShiftType < metrics.Heatmap[j].ShiftType
	})

	for date, day := range daily {
		day.StaffCount = len(staff[date])
		day.TotalHours = model.Round2(day.TotalHours)
		day.CoverageRate = percent(day.Assigned, day.TotalSlots)
		metrics.DailyCoverage = append(metrics.DailyCoverage, *day)
	}
	sort.Slice(metrics.DailyCoverage, func(i, j int) bool {
		return metrics.DailyCoverage[i].Date < metrics.DailyCoverage[j].Date
	})

	for shiftType, total := range typeTotals {
		metrics.ShiftTypeCoverage[shiftType] = percent(typeAssigned[shiftType], total)
	}
	return metrics
}

// AnalyzeUnassigned 按原因、班次类型和日期统计未分配班次, 并汇总接近候选人的拦截原因
func (c *CoverageAnalyzer) AnalyzeUnassigned(plan *model.Plan) UnassignedAnalysis {
	analysis := UnassignedAnalysis{
		ReasonDistribution: map[string]int{},
		ByShiftType:        map[string]int{},
		ByDate:             map[string]int{},
		TopBlockedReasons:  []CodeCount{},
	}
	if plan == nil {
		return analysis
	}

	blocked := make(map[string]int)
	for _, u := range plan.Unassigned {
		analysis.Count++
		analysis.ReasonDistribution[string(u.Reason)]++
		analysis.ByShiftType[u.ShiftType]++
		analysis.ByDate[u.Date]++
		for _, nm := range u.TopCandidates {
			for _, code := range nm.BlockedReasons {
				blocked[code]++
			}
		}
	}

	analysis.TopBlockedReasons = rankCounts(blocked, topBlockedReasons)
	return analysis
}

// rankCounts 按次数降序, 次数相同按代码
func rankCounts(counts map[string]int, limit int) []CodeCount {
	out := make([]CodeCount, 0, len(counts))
	for code, n := range counts {
		out = append(out, CodeCount{Code: code, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GenerateCoverageReport 生成覆盖率文本报告
func (c *CoverageAnalyzer) GenerateCoverageReport(metrics CoverageMetrics) string {
	var b strings.Builder
	b.WriteString("=== 覆盖率分析报告 ===\n\n")

	b.WriteString("【整体覆盖情况】\n")
	fmt.Fprintf(&b, "  总班次数: %d\n", metrics.TotalSlots)
	fmt.Fprintf(&b, "  已分配班次: %d\n", metrics.AssignedSlots)
	fmt.Fprintf(&b, "  覆盖率: %.1f%%\n\n", metrics.OverallCoverage)

	var gaps []CoverageCell
	for _, cell := range metrics.Heatmap {
		if cell.Status != CellFilled {
			gaps = append(gaps, cell)
		}
	}
	if len(gaps) > 0 {
		b.WriteString("【未覆盖时段】\n")
		for _, cell := range gaps {
			fmt.Fprintf(&b, "  - %s %s (%d/%d)\n", cell.Date, cell.ShiftType, cell.Assigned, cell.Total)
		}
		b.WriteString("\n")
	}

	if len(metrics.DailyCoverage) > 0 {
		b.WriteString("【每日覆盖】\n")
		for _, day := range metrics.DailyCoverage {
			fmt.Fprintf(&b, "  %s  %d/%d  %.1f%%  %d人  %.2f小时\n",
				day.Date, day.Assigned, day.TotalSlots, day.CoverageRate, day.StaffCount, day.TotalHours)
		}
	}

	return b.String()
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return model.Round1(float64(part) / float64(total) * 100)
}
