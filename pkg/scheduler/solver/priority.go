package solver

import (
	"sort"

	"github.com/paiban/allocator/pkg/model"
)

// PrioritizeSlots 返回排序后的副本: 有申请人的班次在前, 然后按日期、开始时间、班次ID
func PrioritizeSlots(slots []model.Slot) []model.Slot {
	out := make([]model.Slot, len(slots))
	copy(out, slots)
	sort.SliceStable(out, func(i, j int) bool {
		return slotLess(&out[i], &out[j])
	})
	return out
}

func slotLess(a, b *model.Slot) bool {
	if a.HasApplicants() != b.HasApplicants() {
		return a.HasApplicants()
	}
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if sa, sb := a.StartMinute(), b.StartMinute(); sa != sb {
		return sa < sb
	}
	return a.SlotID < b.SlotID
}
