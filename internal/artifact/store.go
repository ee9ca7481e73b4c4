// Package artifact 把快照和方案以 JSON 文件形式保存在本地目录
//
// 目录结构:
//
//	<root>/snapshots/<snapshot_id>/snapshot.json
//	<root>/snapshots/<snapshot_id>/manifest.json
//	<root>/snapshots/latest.json
//	<root>/plans/<plan_id>/plan.json
//	<root>/plans/<plan_id>/manifest.json
//	<root>/plans/latest.json
package artifact

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/paiban/allocator/internal/repository"
	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/logger"
	"github.com/paiban/allocator/pkg/model"
)

const (
	snapshotsDir = "snapshots"
	plansDir     = "plans"
	manifestFile = "manifest.json"
	latestFile   = "latest.json"
	snapshotFile = "snapshot.json"
	planFile     = "plan.json"
)

// SnapshotManifest 快照清单
type SnapshotManifest struct {
	model.SnapshotSummary
	Path string `json:"path"`
}

// PlanManifest 方案清单
type PlanManifest struct {
	model.PlanSummary
	Path string `json:"path"`
}

// Store 文件存储
type Store struct {
	root string
	now  func() time.Time
	mu   sync.Mutex
}

// NewStore 创建文件存储, 目录不存在时创建
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, errors.InvalidInput("artifact_dir", "不能为空")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "解析存储目录失败")
	}
	for _, dir := range []string{snapshotsDir, plansDir} {
		if err := os.MkdirAll(filepath.Join(abs, dir), 0o755); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorageError, "创建存储目录失败")
		}
	}
	return &Store{root: abs, now: time.Now}, nil
}

// Root 存储根目录
func (s *Store) Root() string {
	return s.root
}

// SaveSnapshot 保存快照并更新 latest.json
func (s *Store) SaveSnapshot(ctx context.Context, snap *model.Snapshot) (model.SnapshotSummary, error) {
	if err := ctx.Err(); err != nil {
		return model.SnapshotSummary{}, errors.Cancelled(err)
	}
	if err := checkID("snapshot_id", snap.SnapshotID); err != nil {
		return model.SnapshotSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, snapshotsDir, snap.SnapshotID)
	manifest := SnapshotManifest{
		SnapshotSummary: snap.Summarize(s.now().UTC()),
		Path:            dir,
	}
	if err := writeJSON(filepath.Join(dir, snapshotFile), snap); err != nil {
		return model.SnapshotSummary{}, err
	}
	if err := writeJSON(filepath.Join(dir, manifestFile), manifest); err != nil {
		return model.SnapshotSummary{}, err
	}
	if err := writeJSON(filepath.Join(s.root, snapshotsDir, latestFile), manifest); err != nil {
		return model.SnapshotSummary{}, err
	}

	logger.Debug().Str("snapshot_id", snap.SnapshotID).Str("path", dir).Msg("快照已保存")
	return manifest.SnapshotSummary, nil
}

// GetSnapshot 读取快照, id 为空时读取最近保存的快照
func (s *Store) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}
	if id == "" {
		var latest SnapshotManifest
		if err := readJSON(filepath.Join(s.root, snapshotsDir, latestFile), &latest); err != nil {
			return nil, notFound(err, errors.CodeSnapshotNotFound, "尚未保存任何快照")
		}
		id = latest.SnapshotID
	}
	if err := checkID("snapshot_id", id); err != nil {
		return nil, err
	}

	var snap model.Snapshot
	if err := readJSON(filepath.Join(s.root, snapshotsDir, id, snapshotFile), &snap); err != nil {
		return nil, notFound(err, errors.CodeSnapshotNotFound, fmt.Sprintf("快照 '%s' 不存在", id))
	}
	return &snap, nil
}

// ListSnapshots 按保存时间倒序列出快照清单, 无法读取的清单跳过
func (s *Store) ListSnapshots(ctx context.Context, filter repository.ListFilter) ([]model.SnapshotSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}
	var manifests []model.SnapshotSummary
	err := s.eachManifest(snapshotsDir, func(data []byte) {
		var m SnapshotManifest
		if json.Unmarshal(data, &m) != nil {
			return
		}
		if filter.Venue != "" && m.Venue != filter.Venue {
			return
		}
		manifests = append(manifests, m.SnapshotSummary)
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(manifests, func(i, j int) bool {
		if !manifests[i].StoredAt.Equal(manifests[j].StoredAt) {
			return manifests[i].StoredAt.After(manifests[j].StoredAt)
		}
		return manifests[i].SnapshotID < manifests[j].SnapshotID
	})
	start, end := filter.Page(len(manifests))
	return append([]model.SnapshotSummary{}, manifests[start:end]...), nil
}

// SavePlan 保存方案并更新 latest.json
func (s *Store) SavePlan(ctx context.Context, plan *model.Plan) (model.PlanSummary, error) {
	if err := ctx.Err(); err != nil {
		return model.PlanSummary{}, errors.Cancelled(err)
	}
	if err := checkID("plan_id", plan.PlanID); err != nil {
		return model.PlanSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, plansDir, plan.PlanID)
	manifest := PlanManifest{
		PlanSummary: plan.Summarize(s.now().UTC()),
		Path:        dir,
	}
	if err := writeJSON(filepath.Join(dir, planFile), plan); err != nil {
		return model.PlanSummary{}, err
	}
	if err := writeJSON(filepath.Join(dir, manifestFile), manifest); err != nil {
		return model.PlanSummary{}, err
	}
	if err := writeJSON(filepath.Join(s.root, plansDir, latestFile), manifest); err != nil {
		return model.PlanSummary{}, err
	}

	logger.Debug().Str("plan_id", plan.PlanID).Str("path", dir).Msg("方案已保存")
	return manifest.PlanSummary, nil
}

// GetPlan 读取方案, id 为空时读取最近保存的方案
func (s *Store) GetPlan(ctx context.Context, id string) (*model.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}
	if id == "" {
		var latest PlanManifest
		if err := readJSON(filepath.Join(s.root, plansDir, latestFile), &latest); err != nil {
			return nil, notFound(err, errors.CodePlanNotFound, "尚未保存任何方案")
		}
		id = latest.PlanID
	}
	if err := checkID("plan_id", id); err != nil {
		return nil, err
	}

	var plan model.Plan
	if err := readJSON(filepath.Join(s.root, plansDir, id, planFile), &plan); err != nil {
		return nil, notFound(err, errors.CodePlanNotFound, fmt.Sprintf("方案 '%s' 不存在", id))
	}
	return &plan, nil
}

// ListPlans 按生成时间倒序列出方案清单
func (s *Store) ListPlans(ctx context.Context, filter repository.ListFilter) ([]model.PlanSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}
	var manifests []model.PlanSummary
	err := s.eachManifest(plansDir, func(data []byte) {
		var m PlanManifest
		if json.Unmarshal(data, &m) != nil {
			return
		}
		switch {
		case filter.SnapshotID != "" && m.SnapshotID != filter.SnapshotID:
			return
		case filter.Venue != "" && m.Venue != filter.Venue:
			return
		case filter.Profile != "" && m.Profile != filter.Profile:
			return
		}
		manifests = append(manifests, m.PlanSummary)
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(manifests, func(i, j int) bool {
		if !manifests[i].GeneratedAt.Equal(manifests[j].GeneratedAt) {
			return manifests[i].GeneratedAt.After(manifests[j].GeneratedAt)
		}
		return manifests[i].PlanID < manifests[j].PlanID
	})
	start, end := filter.Page(len(manifests))
	return append([]model.PlanSummary{}, manifests[start:end]...), nil
}

// eachManifest 遍历 kind 目录下每个子目录的 manifest.json
func (s *Store) eachManifest(kind string, fn func(data []byte)) error {
	entries, err := os.ReadDir(filepath.Join(s.root, kind))
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "读取存储目录失败")
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, kind, entry.Name(), manifestFile))
		if err != nil {
			continue
		}
		fn(data)
	}
	return nil
}

// checkID ID 作为目录名使用, 不能包含路径分隔符
func checkID(field, id string) error {
	if id == "" {
		return errors.InvalidInput(field, "不能为空")
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return errors.InvalidInput(field, fmt.Sprintf("%q 不能用作目录名", id))
	}
	return nil
}

func notFound(err error, code errors.Code, message string) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.New(code, message)
	}
	return errors.Wrap(err, errors.CodeStorageError, message)
}

// writeJSON 先写临时文件再重命名, 读者不会看到写了一半的文件
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "序列化失败")
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "创建目录失败")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "创建临时文件失败")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.CodeStorageError, "写入临时文件失败")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "关闭临时文件失败")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("写入 %s 失败", filepath.Base(path)))
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", filepath.Base(path), err)
	}
	return nil
}
