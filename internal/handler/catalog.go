package handler

import (
	"net/http"

	"github.com/paiban/allocator/internal/constraints"
	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

// ImportSnapshot 校验并保存快照
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap model.Snapshot
	if appErr := decodeBody(r, &snap, false); appErr != nil {
		respondError(w, appErr)
		return
	}
	summary, err := h.svc.ImportSnapshot(r.Context(), &snap)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, summary)
}

// ListSnapshots 快照列表
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	filter, appErr := listFilter(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	snaps, err := h.svc.ListSnapshots(r.Context(), filter)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []model.SnapshotSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snaps,
		"count":     len(snaps),
	})
}

// ListProfiles 配置列表
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := h.svc.Profiles()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// ConstraintLibrary 阻断约束目录, 可按 category 过滤
func (h *Handler) ConstraintLibrary(w http.ResponseWriter, r *http.Request) {
	category := constraint.Category(r.URL.Query().Get("category"))
	switch category {
	case "", constraint.CategoryObligatory, constraint.CategorySoft:
	default:
		respondError(w, errors.InvalidInput("category", "只能是 obligatory 或 soft"))
		return
	}
	respondJSON(w, http.StatusOK, constraints.NewLibraryResponse(constraints.GetByCategory(category)))
}
