package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eduline/homework-service/internal/models"
)

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAssignmentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	assignment, err := h.assignmentService.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    assignment,
	})
}

func (h *Handler) GetAllAssignments(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	assignments, total, err := h.assignmentService.List(r.Context(), actorFrom(r), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"assignments": assignments,
		"total":       total,
		"page":        page,
		"limit":       limit,
	})
}

func (h *Handler) GetAssignmentByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	assignment, err := h.assignmentService.GetByID(r.Context(), actorFrom(r), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateAssignmentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	assignment, err := h.assignmentService.Update(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) HideAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.assignmentService.Hide(r.Context(), actorFrom(r), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Assignment hidden",
	})
}

func (h *Handler) GetSubmissionsByAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	response, err := h.submissionService.ListByAssignment(r.Context(), actorFrom(r), assignmentID, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}
