// Package solver 提供单轮贪心分配求解器
package solver

import (
	"context"
	"time"

	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/logger"
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
	"github.com/paiban/allocator/pkg/scheduler/constraint/builtin"
	"github.com/paiban/allocator/pkg/scheduler/scoring"
)

const (
	// DefaultAlternativeLimit 每个分配保留的备选人数
	DefaultAlternativeLimit = 7
	// DefaultNearMissLimit 未分配班次保留的接近候选人数
	DefaultNearMissLimit = 5
)

// Options 求解选项
type Options struct {
	AlternativeLimit        int
	NearMissLimit           int
	IncludeEvaluationMatrix bool
	// StrictProfile 配置中存在未知策略键时拒绝计算
	StrictProfile bool
	// Workers 并行评估候选人的协程数, <=1 时顺序评估
	Workers int
	// OnStep 每处理完一个班次后回调, 用于观察中间状态
	OnStep func(Step)
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{
		AlternativeLimit: DefaultAlternativeLimit,
		NearMissLimit:    DefaultNearMissLimit,
		Workers:          1,
	}
}

// Step 一个班次的处理结果
type Step struct {
	Index      int
	Slot       model.Slot
	Assignment *model.Assignment
	Unassigned *model.UnassignedSlot
	// State 处理完该班次后的运行状态副本
	State *constraint.RunningState
}

// Allocator 贪心分配器: 按优先级逐个处理班次, 每个班次选出得分最高的未阻断候选人,
// 选中后立即更新运行状态, 不回溯.
type Allocator struct {
	evaluator *constraint.Evaluator
	scorer    *scoring.Scorer
	opts      Options
	logger    *logger.AllocationLogger
}

// NewAllocator 创建分配器
func NewAllocator(ev *constraint.Evaluator, scorer *scoring.Scorer, opts Options) *Allocator {
	if opts.AlternativeLimit < 0 {
		opts.AlternativeLimit = 0
	}
	if opts.NearMissLimit < 0 {
		opts.NearMissLimit = 0
	}
	return &Allocator{
		evaluator: ev,
		scorer:    scorer,
		opts:      opts,
		logger:    logger.NewAllocationLogger(),
	}
}

// NewDefaultAllocator 使用内置约束和默认权重
func NewDefaultAllocator() *Allocator {
	return NewAllocator(builtin.NewDefaultEvaluator(), scoring.NewDefaultScorer(), DefaultOptions())
}

// Options 当前选项
func (a *Allocator) Options() Options {
	return a.opts
}

// Evaluator 约束评估器
func (a *Allocator) Evaluator() *constraint.Evaluator {
	return a.evaluator
}

// Allocate 为范围内的空缺班次生成分配方案. 输入不会被修改;
// 相同输入总是得到完全相同的方案. 输入有问题时在分配开始前返回错误.
func (a *Allocator) Allocate(ctx context.Context, snap *model.Snapshot, rng model.DateRange, profile *model.Profile) (*model.Plan, error) {
	if snap == nil {
		return nil, errors.InvalidInput("snapshot", "不能为空")
	}
	if profile == nil {
		return nil, errors.InvalidInput("profile", "不能为空")
	}
	if err := rng.Validate(); err != nil {
		return nil, errors.InvalidTimeRange(rng.From, rng.To, err.Error())
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if len(profile.UnknownPolicyKeys) > 0 {
		if a.opts.StrictProfile {
			return nil, errors.UnknownPolicyKeys(profile.Name, profile.UnknownPolicyKeys)
		}
		a.logger.UnknownPolicyKeys(profile.Name, profile.UnknownPolicyKeys)
	}

	planID, err := PlanID(snap, rng, profile)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	slots := PrioritizeSlots(snap.SlotsInRange(rng))
	a.logger.StartRun(planID, profile.Name, len(snap.Employees), len(slots))

	cctx := constraint.NewContext(snap, profile)
	if unmatched := cctx.Rules().Unmatched(snap.Employees); len(unmatched) > 0 {
		a.logger.UnmatchedRules(profile.Name, unmatched)
	}
	st := constraint.NewRunningState(cctx)

	plan := &model.Plan{
		PlanID:             planID,
		SnapshotID:         snap.SnapshotID,
		Venue:              snap.Venue,
		Range:              rng,
		Profile:            profile.Name,
		ProfileDescription: profile.Description,
		Policy:             profile.Policy,
		Assignments:        make([]model.Assignment, 0),
		Unassigned:         make([]model.UnassignedSlot, 0),
	}
	if a.opts.IncludeEvaluationMatrix {
		plan.EvaluationMatrix = make(map[string][]model.CandidateEvaluation, len(slots))
	}

	for i := range slots {
		if err := ctx.Err(); err != nil {
			return nil, errors.Cancelled(err)
		}
		slot := &slots[i]

		evals := a.evaluateSlot(cctx, st, slot)
		if plan.EvaluationMatrix != nil {
			plan.EvaluationMatrix[slot.SlotID] = evals
		}

		step := Step{Index: i, Slot: *slot}
		if winner, ok := selectWinner(cctx.Policy, slot, evals); ok {
			assignment := a.buildAssignment(slot, winner, evals)
			st.Record(winner.EmployeeID, slot)
			plan.Assignments = append(plan.Assignments, assignment)
			step.Assignment = &assignment
			a.logger.SlotAssigned(slot.SlotID, winner.EmployeeID, winner.Score, string(assignment.Kind))
		} else {
			unassigned := a.diagnose(slot, evals)
			plan.Unassigned = append(plan.Unassigned, unassigned)
			step.Unassigned = &unassigned
			a.logger.SlotUnassigned(slot.SlotID, string(unassigned.Reason), len(unassigned.TopCandidates))
		}

		if a.opts.OnStep != nil {
			step.State = st.Clone()
			a.opts.OnStep(step)
		}
	}

	plan.Metrics = buildMetrics(plan)
	plan.Fairness = buildFairness(plan)

	a.logger.RunComplete(planID, time.Since(startTime), plan.Metrics.FillRate)
	return plan, nil
}

// selectWinner 从未阻断的候选人中选出第一名. 有申请人且策略优先申请人时,
// 只要还有未阻断的申请人就只在申请人中选.
func selectWinner(policy model.Policy, slot *model.Slot, evals []model.CandidateEvaluation) (*model.CandidateEvaluation, bool) {
	var pool []*model.CandidateEvaluation
	for i := range evals {
		if !evals[i].Blocked {
			pool = append(pool, &evals[i])
		}
	}
	if slot.HasApplicants() && policy.PreferApplicants {
		var applicants []*model.CandidateEvaluation
		for _, e := range pool {
			if e.IsApplicant {
				applicants = append(applicants, e)
			}
		}
		if len(applicants) > 0 {
			pool = applicants
		}
	}
	if len(pool) == 0 {
		return nil, false
	}
	return pool[0], true
}

func assignmentKind(slot *model.Slot, winner *model.CandidateEvaluation) model.AssignmentKind {
	switch {
	case winner.IsApplicant:
		return model.KindApplicant
	case !slot.HasApplicants():
		return model.KindWithoutApplicant
	default:
		return model.KindDespiteApplicants
	}
}

func (a *Allocator) buildAssignment(slot *model.Slot, winner *model.CandidateEvaluation, evals []model.CandidateEvaluation) model.Assignment {
	return model.Assignment{
		AssignmentID:        model.AssignmentID(slot.SlotID, winner.EmployeeID),
		SlotID:              slot.SlotID,
		ShiftID:             slot.ShiftID,
		Date:                slot.Date,
		Start:               slot.Start,
		End:                 slot.End,
		Hours:               model.Round2(slot.Hours()),
		ShiftType:           slot.TypeKey(),
		WorkingArea:         slot.WorkingArea,
		EmployeeID:          winner.EmployeeID,
		EmployeeName:        winner.EmployeeName,
		Score:               winner.Score,
		IsApplicant:         winner.IsApplicant,
		Kind:                assignmentKind(slot, winner),
		Reasons:             winner.Reasons,
		Breakdown:           winner.Breakdown,
		WeekShifts:          winner.WeekShifts,
		ExistingMonthHours:  winner.ExistingMonthHours,
		RunMonthHoursBefore: winner.RunMonthHours,
		TargetHours:         winner.TargetHours,
		ProjectedSalary:     winner.ProjectedSalary,
		Alternatives:        alternatives(evals, winner.EmployeeID, a.opts.AlternativeLimit),
	}
}

// alternatives 取前 limit+1 个评估结果, 去掉被选中的人
func alternatives(evals []model.CandidateEvaluation, winnerID string, limit int) []model.CandidateEvaluation {
	out := make([]model.CandidateEvaluation, 0, limit)
	for i := 0; i < len(evals) && i < limit+1; i++ {
		if evals[i].EmployeeID == winnerID {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, evals[i])
	}
	return out
}
