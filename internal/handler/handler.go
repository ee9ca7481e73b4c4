// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/paiban/allocator/internal/planner"
	"github.com/paiban/allocator/internal/repository"
	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/logger"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 16 << 20

// BuildInfo 构建信息
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}

// HealthChecker 存储健康检查, database.DB 满足
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler 分配服务的HTTP处理器
type Handler struct {
	svc         *planner.Service
	info        BuildInfo
	health      HealthChecker
	metrics     http.Handler
	metricsPath string
}

// New 创建处理器. health 和 metrics 可以为 nil.
func New(svc *planner.Service, info BuildInfo, health HealthChecker, metrics http.Handler) *Handler {
	if info.Service == "" {
		info.Service = "allocator"
	}
	return &Handler{svc: svc, info: info, health: health, metrics: metrics, metricsPath: "/metrics"}
}

// SetMetricsPath 修改指标端点路径
func (h *Handler) SetMetricsPath(path string) {
	if path != "" {
		h.metricsPath = path
	}
}

// Register 注册全部路由
func (h *Handler) Register(mux *http.ServeMux) {
	// 系统端点
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /version", h.Version)
	if h.metrics != nil {
		mux.Handle("GET "+h.metricsPath, h.metrics)
	}

	// 方案
	mux.HandleFunc("POST /api/v1/plans", h.CreatePlan)
	mux.HandleFunc("GET /api/v1/plans", h.ListPlans)
	mux.HandleFunc("GET /api/v1/plans/compare", h.ComparePlans)
	mux.HandleFunc("GET /api/v1/plans/{id}", h.GetPlan)
	mux.HandleFunc("GET /api/v1/plans/{id}/assignments/{assignment_id}", h.ExplainAssignment)
	mux.HandleFunc("POST /api/v1/plans/{id}/audit", h.AuditPlan)
	mux.HandleFunc("GET /api/v1/plans/{id}/evaluation", h.EvaluatePlan)

	// 快照
	mux.HandleFunc("POST /api/v1/snapshots", h.ImportSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots", h.ListSnapshots)

	// 目录
	mux.HandleFunc("GET /api/v1/profiles", h.ListProfiles)
	mux.HandleFunc("GET /api/v1/constraints/library", h.ConstraintLibrary)
}

// Health 健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok", "service": h.info.Service}
	if h.health != nil {
		if err := h.health.Health(r.Context()); err != nil {
			logger.WithContext(r.Context()).Error().Err(err).Msg("存储健康检查失败")
			resp["status"] = "degraded"
			resp["storage"] = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["storage"] = "ok"
	}
	respondJSON(w, http.StatusOK, resp)
}

// Version 版本信息
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.info)
}

// decodeBody 解析JSON请求体, 空请求体时 allowEmpty 决定是否报错
func decodeBody(r *http.Request, v interface{}, allowEmpty bool) *errors.AppError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF && allowEmpty {
			return nil
		}
		if err == io.EOF {
			return errors.New(errors.CodeInvalidInput, "请求体为空")
		}
		return errors.Wrap(err, errors.CodeInvalidInput, "无效的请求格式").WithDetails(err.Error())
	}
	return nil
}

// listFilter 从查询参数构造列表过滤器
func listFilter(r *http.Request) (repository.ListFilter, *errors.AppError) {
	q := r.URL.Query()
	filter := repository.DefaultListFilter()
	filter.SnapshotID = strings.TrimSpace(q.Get("snapshot_id"))
	filter.Venue = strings.TrimSpace(q.Get("venue"))
	filter.Profile = strings.TrimSpace(q.Get("profile"))

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errors.InvalidInput(p.name, "必须是非负整数")
		}
		*p.dst = n
	}
	return filter, nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	body := map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	}
	if len(err.Fields) > 0 {
		body["fields"] = err.Fields
	}
	respondJSON(w, err.HTTPStatus, body)
}

// respondErr 把任意错误转换为 AppError 返回, 服务端错误记录日志
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Wrap(err, errors.CodeInternal, "服务器内部错误")
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error().Err(err).
			Str("code", string(appErr.Code)).
			Str("path", r.URL.Path).
			Msg("请求处理失败")
	}
	respondError(w, appErr)
}
