package solver

import (
	"github.com/paiban/allocator/pkg/model"
)

// diagnose 为无法分配的班次生成诊断
func (a *Allocator) diagnose(slot *model.Slot, evals []model.CandidateEvaluation) model.UnassignedSlot {
	return model.UnassignedSlot{
		SlotID:        slot.SlotID,
		ShiftID:       slot.ShiftID,
		Date:          slot.Date,
		Start:         slot.Start,
		End:           slot.End,
		ShiftType:     slot.TypeKey(),
		WorkingArea:   slot.WorkingArea,
		HasApplicants: slot.HasApplicants(),
		Reason:        ClassifyUnassigned(slot, evals),
		TopCandidates: NearMisses(evals, a.opts.NearMissLimit),
	}
}

// ClassifyUnassigned 按顺序取第一个成立的原因
func ClassifyUnassigned(slot *model.Slot, evals []model.CandidateEvaluation) model.UnassignedReason {
	if len(evals) == 0 {
		return model.ReasonNoCandidates
	}

	applicantsBlocked, othersBlocked := true, true
	applicants := 0
	for i := range evals {
		if evals[i].IsApplicant {
			applicants++
			if !evals[i].Blocked {
				applicantsBlocked = false
			}
		} else if !evals[i].Blocked {
			othersBlocked = false
		}
	}

	switch {
	case slot.HasApplicants() && applicants > 0 && applicantsBlocked && othersBlocked:
		return model.ReasonAllApplicantsBlocked
	case applicantsBlocked && othersBlocked:
		return model.ReasonAllBlocked
	default:
		return model.ReasonNoValidCandidate
	}
}

// NearMisses 排序后的前 limit 个候选人及其全部阻断原因
func NearMisses(evals []model.CandidateEvaluation, limit int) []model.NearMiss {
	n := min(limit, len(evals))
	out := make([]model.NearMiss, 0, n)
	for _, e := range evals[:n] {
		out = append(out, model.NearMiss{
			EmployeeID:     e.EmployeeID,
			EmployeeName:   e.EmployeeName,
			BlockedReasons: e.BlockedReasons,
			Score:          e.Score,
			PotentialScore: e.PotentialScore,
			IsApplicant:    e.IsApplicant,
		})
	}
	return out
}
