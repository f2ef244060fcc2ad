package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eduline/homework-service/internal/models"
)

func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBranchRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	branch, err := h.branchService.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    branch,
	})
}

func (h *Handler) GetAllBranches(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	branches, total, err := h.branchService.GetAll(r.Context(), actorFrom(r), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"branches": branches,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

func (h *Handler) GetBranchByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Branch ID is required")
		return
	}

	branch, err := h.branchService.GetByID(r.Context(), actorFrom(r), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, branch)
}

func (h *Handler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateBranchRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	branch, err := h.branchService.Update(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, branch)
}

func (h *Handler) HideBranch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.branchService.Hide(r.Context(), actorFrom(r), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Branch hidden",
	})
}
