package handler

import (
	"net/http"

	"github.com/paiban/allocator/internal/planner"
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/stats"
)

// CreatePlanRequest 方案生成请求
type CreatePlanRequest = planner.AllocateRequest

// AuditRequest 审计请求, Plan 为空时审计已保存的方案
type AuditRequest struct {
	IncludeSoft bool        `json:"include_soft"`
	Plan        *model.Plan `json:"plan,omitempty"`
}

// CompareResponse 方案对比响应
type CompareResponse struct {
	Comparison *stats.Comparison `json:"comparison"`
	Diff       string            `json:"diff,omitempty"`
}

// CreatePlan 生成方案. 未提供快照时使用最近保存的快照.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if appErr := decodeBody(r, &req, false); appErr != nil {
		respondError(w, appErr)
		return
	}
	plan, err := h.svc.Allocate(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	status := http.StatusOK
	if req.Persist {
		status = http.StatusCreated
		w.Header().Set("Location", "/api/v1/plans/"+plan.PlanID)
	}
	respondJSON(w, status, plan)
}

// ListPlans 方案列表
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	filter, appErr := listFilter(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	plans, err := h.svc.ListPlans(r.Context(), filter)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if plans == nil {
		plans = []model.PlanSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"plans":  plans,
		"count":  len(plans),
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetPlan 读取方案, id 为 latest 时返回最近的方案
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.Plan(r.Context(), planID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

// ExplainAssignment 解释一次分配
func (h *Handler) ExplainAssignment(w http.ResponseWriter, r *http.Request) {
	explanation, err := h.svc.Explain(r.Context(), planID(r), r.PathValue("assignment_id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, explanation)
}

// AuditPlan 审计方案. 请求体可以带修改后的方案, 快照沿用已保存方案的快照.
func (h *Handler) AuditPlan(w http.ResponseWriter, r *http.Request) {
	var req AuditRequest
	if appErr := decodeBody(r, &req, true); appErr != nil {
		respondError(w, appErr)
		return
	}

	stored, err := h.svc.Plan(r.Context(), planID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}

	plan := stored
	if req.Plan != nil {
		plan = req.Plan
		if plan.PlanID == "" {
			plan.PlanID = stored.PlanID
		}
		if plan.SnapshotID == "" {
			plan.SnapshotID = stored.SnapshotID
		}
		if plan.Profile == "" {
			plan.Profile = stored.Profile
			plan.Policy = stored.Policy
		}
	}

	report, err := h.svc.Audit(r.Context(), plan, planner.AuditOptions{IncludeSoft: req.IncludeSoft})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// EvaluatePlan 方案评估
func (h *Handler) EvaluatePlan(w http.ResponseWriter, r *http.Request) {
	evaluation, err := h.svc.Evaluate(r.Context(), planID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, evaluation)
}

// ComparePlans 对比两个方案, diff=true 时附带统一格式差异
func (h *Handler) ComparePlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b := q.Get("a"), q.Get("b")

	comparison, err := h.svc.Compare(r.Context(), a, b)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	resp := CompareResponse{Comparison: comparison}
	if q.Get("diff") == "true" {
		if resp.Diff, err = h.svc.Diff(r.Context(), a, b); err != nil {
			respondErr(w, r, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// planID 路径中的方案ID, latest 表示最近的方案
func planID(r *http.Request) string {
	id := r.PathValue("id")
	if id == "latest" {
		return ""
	}
	return id
}
