package stats

import (
	"github.com/paiban/allocator/pkg/model"
)

// ApplicantDominanceThreshold 申请加分占总分比例超过此值视为由申请主导
const ApplicantDominanceThreshold = 0.4

// 评分一致性分析使用的分项
var (
	stableComponents  = []string{"role", "skill"}
	dynamicComponents = []string{"rest", "fairness"}
)

// ScoreStats 分数分布
type ScoreStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// NewScoreStats 计算分布, 结果保留两位小数
func NewScoreStats(values []float64) ScoreStats {
	if len(values) == 0 {
		return ScoreStats{}
	}
	maxV, minV := valueRange(values)
	return ScoreStats{
		Count:  len(values),
		Mean:   model.Round2(Mean(values)),
		Median: model.Round2(Median(values)),
		StdDev: model.Round2(SampleStdDev(values)),
		Min:    model.Round2(minV),
		Max:    model.Round2(maxV),
	}
}

// ScoringDistribution 总分及各分项分布, 全为零的分项省略
type ScoringDistribution struct {
	Overall      ScoreStats            `json:"overall"`
	PerComponent map[string]ScoreStats `json:"per_component"`
}

// ApplicantDominance 申请加分对总分的影响
type ApplicantDominance struct {
	DrivenCount        int     `json:"applicant_driven_count"`
	DrivenPct          float64 `json:"applicant_driven_pct"`
	AvgApplicantShare  float64 `json:"avg_applicant_share"`
	WithApplicantBonus int     `json:"total_with_applicant_bonus"`
}

// ScoringConsistency 同一员工多次分配时各分项的平均方差
type ScoringConsistency struct {
	EmployeesWithMultiple int                `json:"employees_with_multiple"`
	Stable                map[string]float64 `json:"stable_components"`
	Dynamic               map[string]float64 `json:"dynamic_components"`
}

// FillRate 填充情况
type FillRate struct {
	TotalSlots int     `json:"total_slots"`
	Assigned   int     `json:"assigned"`
	Unassigned int     `json:"unassigned"`
	Pct        float64 `json:"fill_rate_pct"`
}

// Evaluation 方案质量评估
type Evaluation struct {
	PlanID     string          `json:"plan_id"`
	SnapshotID string          `json:"snapshot_id"`
	Profile    string          `json:"profile"`
	Range      model.DateRange `json:"range"`

	FillRate    FillRate                     `json:"fill_rate"`
	Kinds       map[model.AssignmentKind]int `json:"assignment_kinds"`
	Scoring     ScoringDistribution          `json:"scoring_distribution"`
	Dominance   ApplicantDominance           `json:"applicant_dominance"`
	Consistency ScoringConsistency           `json:"scoring_consistency"`
	Unassigned  UnassignedAnalysis           `json:"unassigned_analysis"`
	Coverage    CoverageMetrics              `json:"coverage"`
	Fairness    FairnessMetrics              `json:"fairness"`
}

// Evaluate 计算方案质量指标, 只读取方案本身
func Evaluate(plan *model.Plan) *Evaluation {
	if plan == nil {
		plan = &model.Plan{}
	}
	coverage := NewCoverageAnalyzer()

	total := len(plan.Assignments) + len(plan.Unassigned)
	eval := &Evaluation{
		PlanID:     plan.PlanID,
		SnapshotID: plan.SnapshotID,
		Profile:    plan.Profile,
		Range:      plan.Range,
		FillRate: FillRate{
			TotalSlots: total,
			Assigned:   len(plan.Assignments),
			Unassigned: len(plan.Unassigned),
			Pct:        percent(len(plan.Assignments), total),
		},
		Kinds:       kindCounts(plan.Assignments),
		Scoring:     scoringDistribution(plan.Assignments),
		Dominance:   applicantDominance(plan.Assignments),
		Consistency: scoringConsistency(plan.Assignments),
		Unassigned:  coverage.AnalyzeUnassigned(plan),
		Coverage:    coverage.Analyze(plan),
		Fairness:    NewFairnessAnalyzer().Analyze(plan),
	}
	return eval
}

func kindCounts(assignments []model.Assignment) map[model.AssignmentKind]int {
	counts := make(map[model.AssignmentKind]int, len(model.AssignmentKinds))
	for _, kind := range model.AssignmentKinds {
		counts[kind] = 0
	}
	for _, a := range assignments {
		counts[a.Kind]++
	}
	return counts
}

func scoringDistribution(assignments []model.Assignment) ScoringDistribution {
	scores := make([]float64, len(assignments))
	components := make(map[string][]float64)
	for i, a := range assignments {
		scores[i] = a.Score
		for _, c := range a.Breakdown.Components() {
			components[c.Name] = append(components[c.Name], c.Value)
		}
	}

	dist := ScoringDistribution{
		Overall:      NewScoreStats(scores),
		PerComponent: map[string]ScoreStats{},
	}
	for name, values := range components {
		if anyNonZero(values) {
			dist.PerComponent[name] = NewScoreStats(values)
		}
	}
	return dist
}

func applicantDominance(assignments []model.Assignment) ApplicantDominance {
	var d ApplicantDominance
	if len(assignments) == 0 {
		return d
	}

	var shares []float64
	for _, a := range assignments {
		if a.Score <= 0 || a.Breakdown.Applicant <= 0 {
			continue
		}
		share := a.Breakdown.Applicant / a.Score
		shares = append(shares, share)
		if share > ApplicantDominanceThreshold {
			d.DrivenCount++
		}
	}
	d.WithApplicantBonus = len(shares)
	d.DrivenPct = percent(d.DrivenCount, len(assignments))
	d.AvgApplicantShare = round4(Mean(shares))
	return d
}

func scoringConsistency(assignments []model.Assignment) ScoringConsistency {
	c := ScoringConsistency{Stable: map[string]float64{}, Dynamic: map[string]float64{}}

	byEmployee := make(map[string][]model.ScoreBreakdown)
	for _, a := range assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a.Breakdown)
	}

	variances := make(map[string][]float64)
	for _, details := range byEmployee {
		if len(details) < 2 {
			continue
		}
		c.EmployeesWithMultiple++
		values := make(map[string][]float64)
		for _, d := range details {
			for _, comp := range d.Components() {
				values[comp.Name] = append(values[comp.Name], comp.Value)
			}
		}
		for name, vs := range values {
			variances[name] = append(variances[name], SampleVariance(vs))
		}
	}
	if c.EmployeesWithMultiple == 0 {
		return c
	}

	for _, name := range stableComponents {
		c.Stable[name] = round4(Mean(variances[name]))
	}
	for _, name := range dynamicComponents {
		c.Dynamic[name] = round4(Mean(variances[name]))
	}
	return c
}

func anyNonZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return true
		}
	}
	return false
}
