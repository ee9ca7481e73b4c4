package solver

import (
	"sort"
	"sync"

	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

// evaluateSlot 评估全部员工对一个班次的适合程度, 返回排序后的结果.
// 评估期间运行状态只读, 因此可以并行.
func (a *Allocator) evaluateSlot(cctx *constraint.Context, st *constraint.RunningState, slot *model.Slot) []model.CandidateEvaluation {
	employees := cctx.Employees()
	evals := make([]model.CandidateEvaluation, len(employees))

	if a.opts.Workers <= 1 || len(employees) < 2 {
		for i, emp := range employees {
			evals[i] = a.evaluateCandidate(cctx, st, cctx.Candidate(emp.ID), slot)
		}
	} else {
		a.evaluateParallel(cctx, st, slot, evals)
	}

	SortEvaluations(evals)
	return evals
}

// evaluateParallel 按下标写回结果, 与顺序评估得到的结果完全相同
func (a *Allocator) evaluateParallel(cctx *constraint.Context, st *constraint.RunningState, slot *model.Slot, evals []model.CandidateEvaluation) {
	employees := cctx.Employees()
	jobs := make(chan int, len(employees))

	var wg sync.WaitGroup
	workers := min(a.opts.Workers, len(employees))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				evals[i] = a.evaluateCandidate(cctx, st, cctx.Candidate(employees[i].ID), slot)
			}
		}()
	}

	for i := range employees {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// evaluateCandidate 检查约束并评分. 被阻断的候选人得分为 0,
// 但保留评分明细, PotentialScore 为不考虑阻断时的得分.
func (a *Allocator) evaluateCandidate(cctx *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) model.CandidateEvaluation {
	blocked := a.evaluator.Evaluate(cctx, st, cand, slot)
	res := a.scorer.Score(cctx, st, cand, slot)

	eval := model.CandidateEvaluation{
		EmployeeID:         cand.Employee.ID,
		EmployeeName:       cand.DisplayName(),
		NameKey:            cand.NameKey,
		Score:              res.Total,
		PotentialScore:     res.Total,
		Blocked:            len(blocked) > 0,
		BlockedReasons:     blocked,
		IsApplicant:        res.IsApplicant,
		Reasons:            res.Reasons,
		Breakdown:          res.Breakdown,
		WeekShifts:         res.WeekShifts,
		ExistingMonthHours: res.ExistingMonthHours,
		RunMonthHours:      res.RunMonthHours,
		TargetHours:        res.TargetHours,
		ProjectedSalary:    res.ProjectedSalary,
	}
	if eval.Blocked {
		eval.Score = 0
	}
	return eval
}

// SortEvaluations 未阻断在前, 然后按得分降序、规范化姓名、员工ID
func SortEvaluations(evals []model.CandidateEvaluation) {
	sort.SliceStable(evals, func(i, j int) bool {
		a, b := &evals[i], &evals[j]
		if a.Blocked != b.Blocked {
			return !a.Blocked
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.NameKey != b.NameKey {
			return a.NameKey < b.NameKey
		}
		return a.EmployeeID < b.EmployeeID
	})
}
