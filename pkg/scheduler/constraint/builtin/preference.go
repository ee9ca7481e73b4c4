package builtin

import (
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

// NoWeekendBlocker 备注要求不上周末
type NoWeekendBlocker struct {
	*BaseBlocker
}

// NewNoWeekendBlocker 创建不上周末约束
func NewNoWeekendBlocker() *NoWeekendBlocker {
	return &NoWeekendBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeNoWeekend)}
}

// Blocks 周末班次
func (b *NoWeekendBlocker) Blocks(_ *constraint.Context, _ *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	return cand.Prefs.NoWeekend && model.IsWeekend(slot.Date)
}

// OnlyWeekendBlocker 备注要求只上周末
type OnlyWeekendBlocker struct {
	*BaseBlocker
}

// NewOnlyWeekendBlocker 创建只上周末约束
func NewOnlyWeekendBlocker() *OnlyWeekendBlocker {
	return &OnlyWeekendBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeOnlyWeekend)}
}

// Blocks 工作日班次
func (b *OnlyWeekendBlocker) Blocks(_ *constraint.Context, _ *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	return cand.Prefs.OnlyWeekend && !model.IsWeekend(slot.Date)
}

// EarliestStartBlocker 开始时间不能早于备注中的 "ab X Uhr"
type EarliestStartBlocker struct {
	*BaseBlocker
}

// NewEarliestStartBlocker 创建最早开始约束
func NewEarliestStartBlocker() *EarliestStartBlocker {
	return &EarliestStartBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeStartsTooEarly)}
}

// Blocks 班次开始早于最早时间
func (b *EarliestStartBlocker) Blocks(_ *constraint.Context, _ *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	earliest := cand.Prefs.EarliestMinute
	return earliest != nil && slot.StartMinute() < *earliest
}

// LatestEndBlocker 结束时间不能晚于备注中的 "bis X Uhr"
type LatestEndBlocker struct {
	*BaseBlocker
}

// NewLatestEndBlocker 创建最晚结束约束
func NewLatestEndBlocker() *LatestEndBlocker {
	return &LatestEndBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeEndsTooLate)}
}

// Blocks 班次结束晚于最晚时间
func (b *LatestEndBlocker) Blocks(_ *constraint.Context, _ *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	latest := cand.Prefs.LatestMinute
	return latest != nil && slot.EndMinute() > *latest
}
