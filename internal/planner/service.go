// Package planner 组合配置、分配引擎、存储、审计和评估, 供 HTTP 和命令行使用
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/paiban/allocator/internal/config"
	"github.com/paiban/allocator/internal/metrics"
	"github.com/paiban/allocator/internal/repository"
	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/logger"
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/profile"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
	"github.com/paiban/allocator/pkg/scheduler/constraint/builtin"
	"github.com/paiban/allocator/pkg/scheduler/scoring"
	"github.com/paiban/allocator/pkg/scheduler/solver"
	"github.com/paiban/allocator/pkg/stats"
	"github.com/paiban/allocator/pkg/validator"
)

// 计算状态, 用作指标标签
const (
	StatusSuccess   = "success"
	StatusInvalid   = "invalid"
	StatusCancelled = "cancelled"
	StatusTimeout   = "timeout"
	StatusError     = "error"
)

// Store 快照和方案的存储, artifact.Store 和 repository.Store 都满足.
// Get 方法的 id 为空时返回最近保存的一条.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) (model.SnapshotSummary, error)
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	ListSnapshots(ctx context.Context, filter repository.ListFilter) ([]model.SnapshotSummary, error)
	SavePlan(ctx context.Context, plan *model.Plan) (model.PlanSummary, error)
	GetPlan(ctx context.Context, id string) (*model.Plan, error)
	ListPlans(ctx context.Context, filter repository.ListFilter) ([]model.PlanSummary, error)
}

// Options 服务选项
type Options struct {
	DefaultProfile          string
	StrictProfiles          bool
	AlternativeLimit        int
	NearMissLimit           int
	IncludeEvaluationMatrix bool
	Workers                 int
	Timeout                 time.Duration
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{
		DefaultProfile:   profile.DefaultName,
		AlternativeLimit: solver.DefaultAlternativeLimit,
		NearMissLimit:    solver.DefaultNearMissLimit,
		Workers:          1,
		Timeout:          30 * time.Second,
	}
}

// OptionsFromConfig 由配置生成选项
func OptionsFromConfig(cfg config.AllocatorConfig) Options {
	return Options{
		DefaultProfile:          cfg.DefaultProfile,
		StrictProfiles:          cfg.StrictProfiles,
		AlternativeLimit:        cfg.AlternativeLimit,
		NearMissLimit:           cfg.NearMissLimit,
		IncludeEvaluationMatrix: cfg.IncludeEvaluationMatrix,
		Workers:                 cfg.Workers,
		Timeout:                 cfg.Timeout,
	}
}

// Service 分配服务
type Service struct {
	profiles  *profile.Set
	store     Store
	metrics   *metrics.Registry
	allocator *solver.Allocator
	auditor   *validator.PlanAuditor
	opts      Options
}

// NewService 创建服务. store 为 nil 时不支持持久化相关操作, reg 为 nil 时使用全局注册表.
func NewService(profiles *profile.Set, store Store, reg *metrics.Registry, opts Options) *Service {
	if profiles == nil {
		profiles = profile.DefaultSet()
	}
	if reg == nil {
		reg = metrics.Default()
	}
	if opts.DefaultProfile == "" {
		opts.DefaultProfile = profile.DefaultName
	}

	evaluator := builtin.NewDefaultEvaluator()
	allocator := solver.NewAllocator(evaluator, scoring.NewDefaultScorer(), solver.Options{
		AlternativeLimit:        opts.AlternativeLimit,
		NearMissLimit:           opts.NearMissLimit,
		IncludeEvaluationMatrix: opts.IncludeEvaluationMatrix,
		StrictProfile:           opts.StrictProfiles,
		Workers:                 opts.Workers,
	})

	return &Service{
		profiles:  profiles,
		store:     store,
		metrics:   reg,
		allocator: allocator,
		auditor:   validator.NewPlanAuditor(evaluator, validator.Options{}),
		opts:      opts,
	}
}

// AllocateRequest 分配请求. Snapshot 与 SnapshotID 二选一.
// 配置优先级: Profile, InlineProfile, ProfileName.
type AllocateRequest struct {
	Snapshot    *model.Snapshot `json:"snapshot,omitempty"`
	SnapshotID  string          `json:"snapshot_id,omitempty"`
	Range       model.DateRange `json:"range"`
	ProfileName string          `json:"profile_name,omitempty"`
	// Profile 调用方已构造好的配置, 不经过解析
	Profile *model.Profile `json:"-"`
	// InlineProfile 请求体中的原始配置对象, 按配置文件的规则解析
	InlineProfile json.RawMessage `json:"profile,omitempty"`
	Persist       bool            `json:"persist,omitempty"`
}

// Allocate 执行一次分配, Persist 时保存快照 (内联提供时) 和方案
func (s *Service) Allocate(ctx context.Context, req AllocateRequest) (*model.Plan, error) {
	snap, err := s.resolveSnapshot(ctx, req)
	if err != nil {
		return nil, err
	}
	prof, err := s.resolveProfile(req)
	if err != nil {
		s.metrics.RecordRun(req.ProfileName, StatusInvalid, 0)
		return nil, err
	}

	rng := req.Range
	if rng.From == "" && rng.To == "" {
		rng = snap.Range
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	done := s.metrics.TrackRun()
	start := time.Now()
	plan, err := s.allocator.Allocate(ctx, snap, rng, prof)
	done()
	duration := time.Since(start)

	if err != nil {
		err = classifyRunError(ctx, err)
		s.metrics.RecordRun(prof.Name, runStatus(err), duration)
		logger.WithContext(ctx).Warn().Err(err).
			Str("snapshot_id", snap.SnapshotID).
			Str("profile", prof.Name).
			Msg("分配计算失败")
		return nil, err
	}

	s.metrics.RecordRun(prof.Name, StatusSuccess, duration)
	s.metrics.RecordPlan(prof.Name,
		plan.Metrics.AssignedSlots, plan.Metrics.UnassignedSlots,
		blockerCounts(plan), plan.Metrics.FillRate,
		stats.NewFairnessAnalyzer().Analyze(plan).Gini)

	logger.WithContext(ctx).Info().
		Str("plan_id", plan.PlanID).
		Str("snapshot_id", plan.SnapshotID).
		Str("profile", plan.Profile).
		Int("assigned", plan.Metrics.AssignedSlots).
		Int("unassigned", plan.Metrics.UnassignedSlots).
		Dur("duration", duration).
		Msg("方案已生成")

	if req.Persist {
		if err := s.persist(ctx, req.Snapshot, plan); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func (s *Service) resolveSnapshot(ctx context.Context, req AllocateRequest) (*model.Snapshot, error) {
	if req.Snapshot != nil {
		return req.Snapshot, nil
	}
	if s.store == nil {
		if req.SnapshotID == "" {
			return nil, errors.InvalidInput("snapshot", "未提供快照且未配置存储")
		}
		return nil, errNoStore()
	}
	return s.store.GetSnapshot(ctx, req.SnapshotID)
}

// inlineProfileName 内联配置未命名时的名称
const inlineProfileName = "inline"

func (s *Service) resolveProfile(req AllocateRequest) (*model.Profile, error) {
	if req.Profile != nil {
		p := *req.Profile
		if p.Name == "" {
			p.Name = inlineProfileName
		}
		return &p, nil
	}
	if raw := bytes.TrimSpace(req.InlineProfile); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		mode := profile.Permissive
		if s.opts.StrictProfiles {
			mode = profile.Strict
		}
		return profile.ParseProfile(raw, inlineProfileName, mode)
	}
	name := req.ProfileName
	if name == "" {
		name = s.opts.DefaultProfile
	}
	return s.profiles.Resolve(name)
}

func (s *Service) persist(ctx context.Context, inline *model.Snapshot, plan *model.Plan) error {
	if s.store == nil {
		return errNoStore()
	}
	if inline != nil {
		if _, err := s.store.SaveSnapshot(ctx, inline); err != nil {
			return err
		}
	}
	summary, err := s.store.SavePlan(ctx, plan)
	if err != nil {
		return err
	}
	logger.WithContext(ctx).Debug().
		Str("plan_id", summary.PlanID).
		Time("generated_at", summary.GeneratedAt).
		Msg("方案已保存")
	return nil
}

// classifyRunError 超时映射为 TIMEOUT, 其他取消保持 CANCELLED
func classifyRunError(ctx context.Context, err error) error {
	if errors.Is(err, errors.CodeCancelled) && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CodeTimeout, "分配计算超时, 请缩小日期范围")
	}
	return err
}

func runStatus(err error) string {
	switch errors.GetCode(err) {
	case errors.CodeCancelled:
		return StatusCancelled
	case errors.CodeTimeout:
		return StatusTimeout
	case errors.CodeInternal, errors.CodeUnknown:
		return StatusError
	default:
		return StatusInvalid
	}
}

// blockerCounts 未分配班次接近候选人上的阻断约束计数
func blockerCounts(plan *model.Plan) map[string]int {
	counts := make(map[string]int)
	for _, u := range plan.Unassigned {
		for _, nm := range u.TopCandidates {
			for _, code := range nm.BlockedReasons {
				counts[code]++
			}
		}
	}
	return counts
}

func errNoStore() error {
	return errors.New(errors.CodeStorageError, "未配置存储后端")
}

// ImportSnapshot 校验并保存快照
func (s *Service) ImportSnapshot(ctx context.Context, snap *model.Snapshot) (model.SnapshotSummary, error) {
	if s.store == nil {
		return model.SnapshotSummary{}, errNoStore()
	}
	if err := snap.Validate(); err != nil {
		return model.SnapshotSummary{}, err
	}
	return s.store.SaveSnapshot(ctx, snap)
}

// ListSnapshots 列出快照
func (s *Service) ListSnapshots(ctx context.Context, filter repository.ListFilter) ([]model.SnapshotSummary, error) {
	if s.store == nil {
		return nil, errNoStore()
	}
	return s.store.ListSnapshots(ctx, filter)
}

// Plan 读取方案, id 为空时为最近的方案
func (s *Service) Plan(ctx context.Context, id string) (*model.Plan, error) {
	if s.store == nil {
		return nil, errNoStore()
	}
	return s.store.GetPlan(ctx, id)
}

// ListPlans 列出方案
func (s *Service) ListPlans(ctx context.Context, filter repository.ListFilter) ([]model.PlanSummary, error) {
	if s.store == nil {
		return nil, errNoStore()
	}
	return s.store.ListPlans(ctx, filter)
}

// Explain 解释已保存方案中的一次分配
func (s *Service) Explain(ctx context.Context, planID, assignmentID string) (*solver.Explanation, error) {
	plan, err := s.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return solver.Explain(plan, assignmentID)
}

// AuditOptions 审计选项
type AuditOptions struct {
	IncludeSoft bool
	// Snapshot 为空时按方案的 snapshot_id 从存储读取
	Snapshot *model.Snapshot
}

// Audit 审计方案. 方案使用的配置仍存在时按其员工规则检查, 否则只用方案中的策略.
func (s *Service) Audit(ctx context.Context, plan *model.Plan, opts AuditOptions) (*validator.Report, error) {
	snap := opts.Snapshot
	if snap == nil {
		if s.store == nil {
			return nil, errNoStore()
		}
		var err error
		if snap, err = s.store.GetSnapshot(ctx, plan.SnapshotID); err != nil {
			return nil, err
		}
		if plan.SnapshotID == "" {
			logger.WithContext(ctx).Warn().Str("plan_id", plan.PlanID).Msg("方案没有 snapshot_id, 使用最近的快照审计")
		}
	}

	var prof *model.Profile
	if p, err := s.profiles.Get(plan.Profile); err == nil {
		prof = p
	}

	auditor := s.auditor
	if opts.IncludeSoft {
		auditor = validator.NewPlanAuditor(s.allocator.Evaluator(), validator.Options{IncludeSoft: true})
	}
	report, err := auditor.Audit(snap, prof, plan)
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Info().
		Str("plan_id", plan.PlanID).
		Bool("valid", report.Valid).
		Int("findings", len(report.Findings)).
		Msg("方案审计完成")
	return report, nil
}

// AuditStored 审计已保存的方案
func (s *Service) AuditStored(ctx context.Context, planID string, opts AuditOptions) (*validator.Report, error) {
	plan, err := s.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return s.Audit(ctx, plan, opts)
}

// Evaluate 评估已保存的方案
func (s *Service) Evaluate(ctx context.Context, planID string) (*stats.Evaluation, error) {
	plan, err := s.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return stats.Evaluate(plan), nil
}

// Compare 对比两个已保存的方案
func (s *Service) Compare(ctx context.Context, planA, planB string) (*stats.Comparison, error) {
	a, b, err := s.planPair(ctx, planA, planB)
	if err != nil {
		return nil, err
	}
	return stats.ComparePlans(a, b), nil
}

// Diff 两个已保存方案的统一格式差异
func (s *Service) Diff(ctx context.Context, planA, planB string) (string, error) {
	a, b, err := s.planPair(ctx, planA, planB)
	if err != nil {
		return "", err
	}
	return stats.DiffPlans(a, b)
}

func (s *Service) planPair(ctx context.Context, planA, planB string) (*model.Plan, *model.Plan, error) {
	if planA == "" || planB == "" {
		return nil, nil, errors.InvalidInput("plan_id", "对比需要两个方案ID")
	}
	a, err := s.Plan(ctx, planA)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.Plan(ctx, planB)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// Profiles 配置摘要
func (s *Service) Profiles() []profile.Summary {
	return s.profiles.Summaries()
}

// Constraints 阻断约束目录
func (s *Service) Constraints() []constraint.Definition {
	return constraint.Library()
}
