package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/allocator/internal/repository"
	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	return s
}

func samplePlan(id, snapshotID, profile string) *model.Plan {
	return &model.Plan{
		PlanID:     id,
		SnapshotID: snapshotID,
		Range:      model.DateRange{From: "2026-03-01", To: "2026-03-31"},
		Profile:    profile,
		Assignments: []model.Assignment{
			{AssignmentID: "s1::e1", SlotID: "s1", EmployeeID: "e1", EmployeeName: "Anna", Date: "2026-03-02", Hours: 6},
		},
		Metrics: model.Metrics{AssignedSlots: 1, TotalSlots: 1, FillRate: 100},
	}
}

func TestStore_Plans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []*model.Plan{
		samplePlan("p1", "snap-1", "default"),
		samplePlan("p2", "snap-2", "default"),
		samplePlan("p3", "snap-1", "strict"),
	} {
		_, err := s.SavePlan(ctx, p)
		require.NoError(t, err)
	}

	got, err := s.GetPlan(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "snap-2", got.SnapshotID)
	require.Len(t, got.Assignments, 1)

	latest, err := s.GetPlan(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "p3", latest.PlanID)

	_, err = s.GetPlan(ctx, "missing")
	assert.True(t, errors.Is(err, errors.CodePlanNotFound))

	tests := []struct {
		name   string
		filter repository.ListFilter
		want   []string
	}{
		{"倒序", repository.DefaultListFilter(), []string{"p3", "p2", "p1"}},
		{"限制", repository.DefaultListFilter().WithLimit(2), []string{"p3", "p2"}},
		{"偏移", repository.DefaultListFilter().WithOffset(2), []string{"p1"}},
		{"按快照", repository.DefaultListFilter().WithSnapshot("snap-1"), []string{"p3", "p1"}},
		{"按配置", repository.DefaultListFilter().WithProfile("default"), []string{"p2", "p1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListPlans(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(list))
			for _, m := range list {
				ids = append(ids, m.PlanID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStore_PlanManifest(t *testing.T) {
	s := newTestStore(t)
	summary, err := s.SavePlan(context.Background(), samplePlan("p1", "snap-1", "default"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(s.Root(), "plans", "p1", "manifest.json"))
	require.NoError(t, err)

	var manifest map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, "p1", manifest["plan_id"])
	assert.Equal(t, "snap-1", manifest["snapshot_id"])
	assert.Equal(t, filepath.Join(s.Root(), "plans", "p1"), manifest["path"])
	assert.Contains(t, manifest, "generated_at")
	assert.False(t, summary.GeneratedAt.IsZero())

	latest, err := os.ReadFile(filepath.Join(s.Root(), "plans", "latest.json"))
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(latest))
}

func TestStore_Snapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetSnapshot(ctx, "")
	assert.True(t, errors.Is(err, errors.CodeSnapshotNotFound))

	for _, snap := range []*model.Snapshot{
		{SnapshotID: "snap-1", Venue: "Kneipe", Employees: []model.Employee{{ID: "e1", FullName: "Anna"}}},
		{SnapshotID: "snap-2", Venue: "Biergarten"},
	} {
		summary, err := s.SaveSnapshot(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, len(snap.Employees), summary.Employees)
	}

	got, err := s.GetSnapshot(ctx, "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Employees[0].FullName)

	latest, err := s.GetSnapshot(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "snap-2", latest.SnapshotID)

	filter := repository.DefaultListFilter()
	filter.Venue = "Kneipe"
	list, err := s.ListSnapshots(ctx, filter)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "snap-1", list[0].SnapshotID)

	all, err := s.ListSnapshots(ctx, repository.DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "snap-2", all[0].SnapshotID)
}

func TestStore_SkipsBrokenManifests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SavePlan(ctx, samplePlan("p1", "snap-1", "default"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), "plans", "broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "plans", "broken", "manifest.json"), []byte("{"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), "plans", "empty"), 0o755))

	list, err := s.ListPlans(ctx, repository.DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].PlanID)
}

func TestStore_RejectsUnsafeIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		_, err := s.SavePlan(ctx, samplePlan(id, "snap-1", "default"))
		assert.True(t, errors.Is(err, errors.CodeInvalidInput), "id %q", id)
	}
	_, err := s.GetPlan(ctx, "../plans")
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestStore_Cancelled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SavePlan(ctx, samplePlan("p1", "snap-1", "default"))
	assert.True(t, errors.Is(err, errors.CodeCancelled))
	_, err = s.ListPlans(ctx, repository.DefaultListFilter())
	assert.True(t, errors.Is(err, errors.CodeCancelled))
}
