package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/allocator/internal/artifact"
	"github.com/paiban/allocator/internal/config"
	"github.com/paiban/allocator/internal/constraints"
	"github.com/paiban/allocator/internal/planner"
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/profile"
)

const snapshotJSON = `{
	"snapshot_id": "snap-march",
	"venue": "Kneipe Mitte",
	"range": {"from": "2026-03-01", "to": "2026-03-31"},
	"employees": [
		{"employee_id": "e1", "full_name": "Anna Schmidt", "hourly_wage": 14, "max_salary": 0},
		{"employee_id": "e2", "full_name": "Ben Meyer", "hourly_wage": 14, "max_salary": 0}
	],
	"assigned_shifts": [],
	"open_shifts": [
		{"slot_id": "s1", "date": "2026-03-02", "start": "10:00", "end": "16:00", "applicant_employee_ids": ["e1"]},
		{"slot_id": "s2", "date": "2026-03-02", "start": "17:00", "end": "23:00"},
		{"slot_id": "s3", "date": "2026-03-04", "start": "10:00", "end": "16:00"}
	],
	"absences": []
}`

const profileYAML = `
short_weeks:
  description: Höchstens vier Tage am Stück
  policy:
    max_consecutive_days: 4
`

type fixture struct {
	app      *AppContext
	dir      string
	snapshot string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := artifact.NewStore(filepath.Join(dir, "artifacts"))
	require.NoError(t, err)

	snapPath := filepath.Join(dir, "snapshot.json")
	require.NoError(t, os.WriteFile(snapPath, []byte(snapshotJSON), 0o644))

	return &fixture{
		app: &AppContext{
			Ctx:     context.Background(),
			Cfg:     &config.Config{},
			Service: planner.NewService(profile.DefaultSet(), store, nil, planner.DefaultOptions()),
			Format:  FormatText,
		},
		dir:      dir,
		snapshot: snapPath,
	}
}

// run 每次构造新的命令树, 避免标志值残留
func (f *fixture) run(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	f.app.Format = format
	root := &cobra.Command{Use: "allocctl", SilenceUsage: true, SilenceErrors: true}
	Register(root, f.app)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func (f *fixture) allocate(t *testing.T) model.Plan {
	t.Helper()
	out, err := f.run(t, FormatJSON, "allocate", "--snapshot", f.snapshot)
	require.NoError(t, err, out)
	var plan model.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan), out)
	return plan
}

func TestAllocateCmd(t *testing.T) {
	f := newFixture(t)

	plan := f.allocate(t)
	assert.Equal(t, "snap-march", plan.SnapshotID)
	assert.Equal(t, 3, plan.Metrics.AssignedSlots)
	s1, ok := plan.AssignmentForSlot("s1")
	require.True(t, ok)
	assert.Equal(t, "e1", s1.EmployeeID)

	t.Run("文本输出", func(t *testing.T) {
		out, err := f.run(t, FormatText, "allocate", "--snapshot-id", "snap-march", "--no-persist")
		require.NoError(t, err, out)
		assert.Contains(t, out, "snap-march")
		assert.Contains(t, out, "Anna Schmidt")
		assert.Contains(t, out, "3/3")
		assert.NotContains(t, out, "已保存")
	})

	t.Run("写入文件", func(t *testing.T) {
		path := filepath.Join(f.dir, "plan.json")
		_, err := f.run(t, FormatText, "allocate", "--snapshot", f.snapshot, "--no-persist", "-o", path)
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("快照参数互斥", func(t *testing.T) {
		_, err := f.run(t, FormatText, "allocate", "--snapshot", f.snapshot, "--snapshot-id", "snap-march")
		assert.Error(t, err)
	})

	t.Run("未知配置回退到默认配置", func(t *testing.T) {
		out, err := f.run(t, FormatJSON, "allocate", "--snapshot", f.snapshot, "--no-persist", "--profile", "missing")
		require.NoError(t, err, out)
		var p model.Plan
		require.NoError(t, json.Unmarshal([]byte(out), &p))
		assert.Equal(t, profile.DefaultName, p.Profile)
	})

	t.Run("配置文件不存在", func(t *testing.T) {
		_, err := f.run(t, FormatText, "allocate", "--snapshot", f.snapshot, "--profile-file", filepath.Join(f.dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("配置文件", func(t *testing.T) {
		path := filepath.Join(f.dir, "profiles.yaml")
		require.NoError(t, os.WriteFile(path, []byte(profileYAML), 0o644))
		out, err := f.run(t, FormatJSON, "allocate", "--snapshot", f.snapshot, "--no-persist", "--profile-file", path)
		require.NoError(t, err, out)
		var p model.Plan
		require.NoError(t, json.Unmarshal([]byte(out), &p))
		assert.Equal(t, "short_weeks", p.Profile)
	})
}

func TestExplainCmd(t *testing.T) {
	f := newFixture(t)
	plan := f.allocate(t)

	out, err := f.run(t, FormatText, "explain", "s1::e1", "--plan", plan.PlanID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "s1::e1")
	assert.Contains(t, out, "Anna Schmidt")
	assert.Contains(t, out, "applicant")

	// 默认使用最近的方案
	out, err = f.run(t, FormatJSON, "explain", "s1::e1")
	require.NoError(t, err, out)
	var exp map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &exp))
	assert.Equal(t, "e1", exp["employee_id"])

	_, err = f.run(t, FormatText, "explain", "s1::e9")
	assert.Error(t, err)

	_, err = f.run(t, FormatText, "explain")
	assert.Error(t, err)
}

func TestAuditCmd(t *testing.T) {
	f := newFixture(t)
	plan := f.allocate(t)

	out, err := f.run(t, FormatText, "audit", "--plan", plan.PlanID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "通过")

	// 手工把 s2 改给 e1
	for i := range plan.Assignments {
		if plan.Assignments[i].SlotID == "s2" {
			plan.Assignments[i].EmployeeID = "e1"
		}
	}
	data, err := json.Marshal(plan)
	require.NoError(t, err)
	path := filepath.Join(f.dir, "edited.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err = f.run(t, FormatText, "audit", "--plan-file", path)
	assert.Error(t, err)
	assert.Contains(t, out, "未通过")
	assert.Contains(t, out, "s2")
}

func TestEvaluateCmd(t *testing.T) {
	f := newFixture(t)
	plan := f.allocate(t)

	out, err := f.run(t, FormatText, "evaluate", "--plan", plan.PlanID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "3/3")
	assert.Contains(t, out, "覆盖率分析报告")

	out, err = f.run(t, FormatJSON, "evaluate")
	require.NoError(t, err, out)
	var ev struct {
		PlanID   string `json:"plan_id"`
		FillRate struct {
			TotalSlots int `json:"total_slots"`
		} `json:"fill_rate"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.Equal(t, plan.PlanID, ev.PlanID)
	assert.Equal(t, 3, ev.FillRate.TotalSlots)
}

func TestCompareCmd(t *testing.T) {
	f := newFixture(t)
	a := f.allocate(t)

	path := filepath.Join(f.dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profileYAML), 0o644))
	out, err := f.run(t, FormatJSON, "allocate", "--snapshot", f.snapshot, "--profile-file", path)
	require.NoError(t, err, out)
	var b model.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	require.NotEqual(t, a.PlanID, b.PlanID, "不同配置生成不同的方案ID")

	out, err = f.run(t, FormatText, "compare", a.PlanID, b.PlanID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "班次一致率")
	assert.Contains(t, out, "short_weeks")

	out, err = f.run(t, FormatJSON, "compare", a.PlanID, b.PlanID)
	require.NoError(t, err, out)
	var cmp struct {
		Slots struct {
			TotalSlots        int `json:"total_slots"`
			SameEmployee      int `json:"same_employee"`
			DifferentEmployee int `json:"different_employee"`
		} `json:"slot_divergence"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cmp))
	assert.Equal(t, 3, cmp.Slots.TotalSlots)
	assert.Equal(t, 3, cmp.Slots.SameEmployee+cmp.Slots.DifferentEmployee)

	_, err = f.run(t, FormatText, "compare", a.PlanID, b.PlanID, "--diff")
	assert.NoError(t, err)

	_, err = f.run(t, FormatText, "compare", a.PlanID)
	assert.Error(t, err)
}

func TestCatalogCmds(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, FormatText, "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, profile.DefaultName)

	out, err = f.run(t, FormatJSON, "constraints", "--category", "obligatory")
	require.NoError(t, err)
	var resp constraints.LibraryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 9, resp.Total)
	assert.Equal(t, 0, resp.Soft)

	out, err = f.run(t, FormatText, "constraints")
	require.NoError(t, err)
	assert.Contains(t, out, "共 16 个约束")

	_, err = f.run(t, FormatText, "constraints", "--category", "hard")
	assert.Error(t, err)
}

func TestPlansAndSnapshotsCmds(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, FormatText, "plans", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "没有已保存的方案")

	out, err = f.run(t, FormatText, "snapshots", "import", f.snapshot)
	require.NoError(t, err, out)
	assert.Contains(t, out, "snap-march")

	plan := f.allocate(t)

	out, err = f.run(t, FormatJSON, "plans", "list", "--snapshot-id", "snap-march")
	require.NoError(t, err)
	var plans []model.PlanSummary
	require.NoError(t, json.Unmarshal([]byte(out), &plans))
	require.Len(t, plans, 1)
	assert.Equal(t, plan.PlanID, plans[0].PlanID)

	out, err = f.run(t, FormatText, "snapshots", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Kneipe Mitte")

	out, err = f.run(t, FormatJSON, "snapshots", "list", "--venue", "Anderswo")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}
