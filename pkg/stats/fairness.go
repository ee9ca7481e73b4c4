// Package stats 提供分配方案的统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/paiban/allocator/pkg/model"
)

// FairnessMetrics 工时公平性指标
type FairnessMetrics struct {
	// 工时分布
	Gini      float64 `json:"gini"`       // 工时基尼系数 (0=完全平均)
	StdDev    float64 `json:"std_dev"`    // 工时样本标准差
	MeanHours float64 `json:"mean_hours"` // 人均工时
	MaxHours  float64 `json:"max_hours"`
	MinHours  float64 `json:"min_hours"`

	WeekendGini  float64 `json:"weekend_gini"`  // 周末班次基尼系数
	OverallScore float64 `json:"overall_score"` // 综合公平性评分 (0-100)

	EmployeeCount int            `json:"employee_count"`
	PerEmployee   []EmployeeStat `json:"per_employee"`
}

// EmployeeStat 员工工时统计
type EmployeeStat struct {
	EmployeeID    string   `json:"employee_id"`
	EmployeeName  string   `json:"employee_name"`
	AssignedHours float64  `json:"assigned_hours"`
	AssignedSlots int      `json:"assigned_slots"`
	WeekendSlots  int      `json:"weekend_slots"`
	TargetHours   *float64 `json:"target_hours,omitempty"`
	Delta         *float64 `json:"delta,omitempty"`
	Deviation     float64  `json:"deviation"` // 相对人均工时偏差 (%)
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 按方案中的分配统计每个员工的工时
func (f *FairnessAnalyzer) Analyze(plan *model.Plan) FairnessMetrics {
	metrics := FairnessMetrics{PerEmployee: []EmployeeStat{}}
	if plan == nil || len(plan.Assignments) == 0 {
		metrics.OverallScore = 100
		return metrics
	}

	employeeStats := f.calculateEmployeeStats(plan.Assignments)

	hours := make([]float64, len(employeeStats))
	weekend := make([]float64, len(employeeStats))
	for i, stat := range employeeStats {
		hours[i] = stat.AssignedHours
		weekend[i] = float64(stat.WeekendSlots)
	}

	mean := Mean(hours)
	for i := range employeeStats {
		if mean > 0 {
			employeeStats[i].Deviation = model.Round2((employeeStats[i].AssignedHours - mean) / mean * 100)
		}
	}
	maxHours, minHours := valueRange(hours)
	stdDev := SampleStdDev(hours)
	gini := Gini(hours)
	weekendGini := Gini(weekend)

	metrics.Gini = round4(gini)
	metrics.StdDev = model.Round2(stdDev)
	metrics.MeanHours = model.Round2(mean)
	metrics.MaxHours = model.Round2(maxHours)
	metrics.MinHours = model.Round2(minHours)
	metrics.WeekendGini = round4(weekendGini)
	metrics.OverallScore = model.Round1(f.calculateOverallScore(gini, weekendGini, stdDev, mean))
	metrics.EmployeeCount = len(employeeStats)
	metrics.PerEmployee = employeeStats
	return metrics
}

// calculateEmployeeStats 汇总员工工时, 目标取最后一个非空值
func (f *FairnessAnalyzer) calculateEmployeeStats(assignments []model.Assignment) []EmployeeStat {
	statMap := make(map[string]*EmployeeStat)
	for _, a := range assignments {
		stat, ok := statMap[a.EmployeeID]
		if !ok {
			stat = &EmployeeStat{EmployeeID: a.EmployeeID, EmployeeName: a.EmployeeName}
			statMap[a.EmployeeID] = stat
		}
		stat.AssignedHours += a.Hours
		stat.AssignedSlots++
		if model.IsWeekend(a.Date) {
			stat.WeekendSlots++
		}
		if a.TargetHours != nil {
			stat.TargetHours = model.Float64Ptr(*a.TargetHours)
		}
	}

	result := make([]EmployeeStat, 0, len(statMap))
	for _, stat := range statMap {
		stat.AssignedHours = model.Round2(stat.AssignedHours)
		if stat.TargetHours != nil {
			stat.Delta = model.Float64Ptr(model.Round2(stat.AssignedHours - *stat.TargetHours))
		}
		result = append(result, *stat)
	}

	// 按工时降序, 工时相同按员工ID
	sort.Slice(result, func(i, j int) bool {
		if result[i].AssignedHours != result[j].AssignedHours {
			return result[i].AssignedHours > result[j].AssignedHours
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})
	return result
}

// calculateOverallScore 综合公平性评分
func (f *FairnessAnalyzer) calculateOverallScore(gini, weekendGini, stdDev, mean float64) float64 {
	const (
		workloadWeight = 0.6
		weekendWeight  = 0.25
		cvWeight       = 0.15
	)

	// 基尼系数转换为分数 (0=100分, 1=0分)
	workloadScore := (1 - gini) * 100
	weekendScore := (1 - weekendGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if mean > 0 {
		cvScore = math.Max(0, 100-stdDev/mean*200)
	}

	score := workloadWeight*workloadScore + weekendWeight*weekendScore + cvWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

// Gini 非负数值的基尼系数, 空输入或全零返回 0
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// Mean 平均值
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStdDev 样本标准差, 少于两个值时为 0
func SampleStdDev(values []float64) float64 {
	return math.Sqrt(SampleVariance(values))
}

// SampleVariance 样本方差 (n-1)
func SampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values)-1)
}

// Median 中位数
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
