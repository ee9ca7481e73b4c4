package model

import "time"

// AssignmentKind 分配类型, 说明为什么选中该员工
type AssignmentKind string

const (
	KindApplicant         AssignmentKind = "applicant"
	KindWithoutApplicant  AssignmentKind = "recommendation_without_applicant"
	KindDespiteApplicants AssignmentKind = "recommendation_despite_applicants"
)

// AssignmentKinds 所有分配类型, 顺序固定
var AssignmentKinds = []AssignmentKind{KindApplicant, KindWithoutApplicant, KindDespiteApplicants}

// UnassignedReason 无法分配的原因
type UnassignedReason string

const (
	ReasonNoCandidates         UnassignedReason = "no_candidates_available"
	ReasonAllApplicantsBlocked UnassignedReason = "all_applicants_blocked"
	ReasonAllBlocked           UnassignedReason = "all_candidates_blocked_by_constraints"
	ReasonNoValidCandidate     UnassignedReason = "no_valid_candidate"
)

// ScoreBreakdown 八项评分明细
type ScoreBreakdown struct {
	Applicant  float64 `json:"applicant"`
	Rest       float64 `json:"rest"`
	Fairness   float64 `json:"fairness"`
	Role       float64 `json:"role"`
	Skill      float64 `json:"skill"`
	Fixed      float64 `json:"fixed"`
	Preference float64 `json:"preference"`
	Salary     float64 `json:"salary"`
}

// Total 八项之和
func (b ScoreBreakdown) Total() float64 {
	return Round2(b.Applicant + b.Rest + b.Fairness + b.Role + b.Skill + b.Fixed + b.Preference + b.Salary)
}

// Components 按固定顺序返回 (名称, 分值)
func (b ScoreBreakdown) Components() []ScoreComponent {
	return []ScoreComponent{
		{"applicant", b.Applicant},
		{"rest", b.Rest},
		{"fairness", b.Fairness},
		{"role", b.Role},
		{"skill", b.Skill},
		{"fixed", b.Fixed},
		{"preference", b.Preference},
		{"salary", b.Salary},
	}
}

// ScoreComponent 单项评分
type ScoreComponent struct {
	Name  string
	Value float64
}

// CandidateEvaluation 某员工对某班次的评估结果
type CandidateEvaluation struct {
	EmployeeID         string         `json:"employee_id"`
	EmployeeName       string         `json:"employee_name"`
	NameKey            string         `json:"-"`
	Score              float64        `json:"score"`
	PotentialScore     float64        `json:"potential_score"`
	Blocked            bool           `json:"blocked"`
	BlockedReasons     []string       `json:"blocked_reasons"`
	IsApplicant        bool           `json:"is_applicant"`
	Reasons            []string       `json:"reasons"`
	Breakdown          ScoreBreakdown `json:"score_detail"`
	WeekShifts         int            `json:"week_shifts"`
	ExistingMonthHours float64        `json:"existing_month_hours"`
	RunMonthHours      float64        `json:"run_month_hours"`
	TargetHours        *float64       `json:"target_hours"`
	ProjectedSalary    *float64       `json:"projected_salary"`
}

// Assignment 一次分配
type Assignment struct {
	AssignmentID        string                `json:"assignment_id"`
	SlotID              string                `json:"slot_id"`
	ShiftID             string                `json:"shift_id,omitempty"`
	Date                string                `json:"date"`
	Start               string                `json:"start"`
	End                 string                `json:"end"`
	Hours               float64               `json:"hours"`
	ShiftType           string                `json:"shift_type"`
	WorkingArea         string                `json:"working_area,omitempty"`
	EmployeeID          string                `json:"employee_id"`
	EmployeeName        string                `json:"employee_name"`
	Score               float64               `json:"score"`
	IsApplicant         bool                  `json:"is_applicant"`
	Kind                AssignmentKind        `json:"assignment_kind"`
	Reasons             []string              `json:"reasons"`
	Breakdown           ScoreBreakdown        `json:"score_detail"`
	WeekShifts          int                   `json:"week_shifts"`
	ExistingMonthHours  float64               `json:"existing_month_hours"`
	RunMonthHoursBefore float64               `json:"run_month_hours_before"`
	TargetHours         *float64              `json:"target_hours"`
	ProjectedSalary     *float64              `json:"projected_salary"`
	Alternatives        []CandidateEvaluation `json:"alternatives"`
}

// AssignmentID 由班次ID和员工ID组成
func AssignmentID(slotID, employeeID string) string {
	return slotID + "::" + employeeID
}

// NearMiss 未分配班次的接近候选人
type NearMiss struct {
	EmployeeID     string   `json:"employee_id"`
	EmployeeName   string   `json:"employee_name"`
	BlockedReasons []string `json:"blocked_reasons"`
	Score          float64  `json:"score"`
	PotentialScore float64  `json:"potential_score"`
	IsApplicant    bool     `json:"is_applicant"`
}

// UnassignedSlot 无法分配的班次及诊断
type UnassignedSlot struct {
	SlotID        string           `json:"slot_id"`
	ShiftID       string           `json:"shift_id,omitempty"`
	Date          string           `json:"date"`
	Start         string           `json:"start"`
	End           string           `json:"end"`
	ShiftType     string           `json:"shift_type"`
	WorkingArea   string           `json:"working_area,omitempty"`
	HasApplicants bool             `json:"has_applicants"`
	Reason        UnassignedReason `json:"reason"`
	TopCandidates []NearMiss       `json:"top_candidates"`
}

// Metrics 方案汇总
type Metrics struct {
	AssignedSlots   int                    `json:"assigned_slots"`
	UnassignedSlots int                    `json:"unassigned_slots"`
	TotalSlots      int                    `json:"total_slots"`
	FillRate        float64                `json:"fill_rate"`
	KindCounts      map[AssignmentKind]int `json:"assignment_kind_counts"`
}

// FairnessRow 员工工时与目标对比
type FairnessRow struct {
	EmployeeID    string   `json:"employee_id"`
	EmployeeName  string   `json:"employee_name"`
	AssignedHours float64  `json:"assigned_hours"`
	AssignedSlots int      `json:"assigned_slots"`
	TargetHours   *float64 `json:"target_hours"`
	DeltaToTarget *float64 `json:"delta_to_target"`
}

// Plan 分配方案, 不含生成时间以保证相同输入输出完全一致
type Plan struct {
	PlanID             string                           `json:"plan_id"`
	SnapshotID         string                           `json:"snapshot_id"`
	Venue              string                           `json:"venue,omitempty"`
	Range              DateRange                        `json:"range"`
	Profile            string                           `json:"profile"`
	ProfileDescription string                           `json:"profile_description,omitempty"`
	Policy             Policy                           `json:"constraint_policy"`
	Assignments        []Assignment                     `json:"assignments"`
	Unassigned         []UnassignedSlot                 `json:"unassigned"`
	Metrics            Metrics                          `json:"metrics"`
	Fairness           []FairnessRow                    `json:"fairness"`
	EvaluationMatrix   map[string][]CandidateEvaluation `json:"evaluation_matrix,omitempty"`
}

// FindAssignment 按 assignment_id 查找
func (p *Plan) FindAssignment(assignmentID string) (*Assignment, bool) {
	for i := range p.Assignments {
		if p.Assignments[i].AssignmentID == assignmentID {
			return &p.Assignments[i], true
		}
	}
	return nil, false
}

// AssignmentForSlot 按 slot_id 查找
func (p *Plan) AssignmentForSlot(slotID string) (*Assignment, bool) {
	for i := range p.Assignments {
		if p.Assignments[i].SlotID == slotID {
			return &p.Assignments[i], true
		}
	}
	return nil, false
}

// PlanSummary 存储层列表使用的方案摘要
type PlanSummary struct {
	PlanID      string    `json:"plan_id"`
	SnapshotID  string    `json:"snapshot_id"`
	Venue       string    `json:"venue,omitempty"`
	Profile     string    `json:"profile"`
	Range       DateRange `json:"range"`
	Metrics     Metrics   `json:"metrics"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Summarize 生成摘要
func (p *Plan) Summarize(generatedAt time.Time) PlanSummary {
	return PlanSummary{
		PlanID:      p.PlanID,
		SnapshotID:  p.SnapshotID,
		Venue:       p.Venue,
		Profile:     p.Profile,
		Range:       p.Range,
		Metrics:     p.Metrics,
		GeneratedAt: generatedAt,
	}
}

// SnapshotSummary 快照摘要
type SnapshotSummary struct {
	SnapshotID string    `json:"snapshot_id"`
	Venue      string    `json:"venue,omitempty"`
	Range      DateRange `json:"range"`
	Employees  int       `json:"employees"`
	OpenSlots  int       `json:"open_shifts"`
	StoredAt   time.Time `json:"stored_at"`
}

// Summarize 生成摘要
func (s *Snapshot) Summarize(storedAt time.Time) SnapshotSummary {
	return SnapshotSummary{
		SnapshotID: s.SnapshotID,
		Venue:      s.Venue,
		Range:      s.Range,
		Employees:  len(s.Employees),
		OpenSlots:  len(s.OpenSlots),
		StoredAt:   storedAt,
	}
}
