package solver

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/model"
)

// planNamespace 方案ID的 UUIDv5 命名空间
var planNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://paiban.dev/allocator/plan"))

// PlanID 由输入内容确定的方案ID, 相同输入得到相同ID
func PlanID(snap *model.Snapshot, rng model.DateRange, profile *model.Profile) (string, error) {
	payload, err := json.Marshal(struct {
		Snapshot *model.Snapshot `json:"snapshot"`
		Range    model.DateRange `json:"range"`
		Profile  *model.Profile  `json:"profile"`
	}{snap, rng, profile})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "计算方案ID失败")
	}
	return uuid.NewSHA1(planNamespace, payload).String(), nil
}

func buildMetrics(plan *model.Plan) model.Metrics {
	m := model.Metrics{
		AssignedSlots:   len(plan.Assignments),
		UnassignedSlots: len(plan.Unassigned),
		KindCounts:      make(map[model.AssignmentKind]int, len(model.AssignmentKinds)),
	}
	m.TotalSlots = m.AssignedSlots + m.UnassignedSlots
	for _, k := range model.AssignmentKinds {
		m.KindCounts[k] = 0
	}
	for _, a := range plan.Assignments {
		m.KindCounts[a.Kind]++
	}
	if m.TotalSlots > 0 {
		m.FillRate = model.Round1(float64(m.AssignedSlots) / float64(m.TotalSlots) * 100)
	}
	return m
}

// buildFairness 每个被分配员工的工时与目标对比, 按工时降序
func buildFairness(plan *model.Plan) []model.FairnessRow {
	rows := make(map[string]*model.FairnessRow)
	order := make([]string, 0)
	for _, a := range plan.Assignments {
		row, ok := rows[a.EmployeeID]
		if !ok {
			row = &model.FairnessRow{EmployeeID: a.EmployeeID, EmployeeName: a.EmployeeName}
			rows[a.EmployeeID] = row
			order = append(order, a.EmployeeID)
		}
		row.AssignedHours += a.Hours
		row.AssignedSlots++
		if a.TargetHours != nil {
			row.TargetHours = model.Float64Ptr(*a.TargetHours)
		}
	}

	out := make([]model.FairnessRow, 0, len(order))
	for _, id := range order {
		row := rows[id]
		row.AssignedHours = model.Round2(row.AssignedHours)
		if row.TargetHours != nil && *row.TargetHours > 0 {
			row.DeltaToTarget = model.Float64Ptr(model.Round2(row.AssignedHours - *row.TargetHours))
		} else {
			row.TargetHours = nil
		}
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AssignedHours != out[j].AssignedHours {
			return out[i].AssignedHours > out[j].AssignedHours
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}
