package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eduline/homework-service/internal/models"
)

func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClassRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	class, err := h.classService.Create(r.Context(), actorFrom(r), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    class,
	})
}

func (h *Handler) GetAllClasses(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	classes, total, err := h.classService.List(r.Context(), actorFrom(r), page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"classes": classes,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *Handler) GetClassByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Class ID is required")
		return
	}

	class, err := h.classService.GetByID(r.Context(), actorFrom(r), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, class)
}

func (h *Handler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateClassRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	class, err := h.classService.Update(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, class)
}

func (h *Handler) HideClass(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.classService.Hide(r.Context(), actorFrom(r), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Class hidden",
	})
}

func (h *Handler) SetClassTeacher(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	teacherID := chi.URLParam(r, "teacherId")

	var req models.SetClassTeacherRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	err := h.accessService.SetClassTeacher(r.Context(), actorFrom(r), classID, teacherID, req.HasAccess, req.IsLead)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Class teacher updated",
	})
}

func (h *Handler) EnrollStudent(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	studentID := chi.URLParam(r, "studentId")

	if err := h.accessService.EnrollStudent(r.Context(), actorFrom(r), classID, studentID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Student enrolled",
	})
}

func (h *Handler) UnenrollStudent(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")
	studentID := chi.URLParam(r, "studentId")

	if err := h.accessService.UnenrollStudent(r.Context(), actorFrom(r), classID, studentID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Student unenrolled",
	})
}

func (h *Handler) GetTeacherAuthority(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "id")

	authority, err := h.accessService.GetTeacherAuthority(r.Context(), actorFrom(r), teacherID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, authority)
}

func (h *Handler) UpdateTeacherAuthority(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "id")

	var req models.UpdateAuthorityRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	err := h.accessService.UpdateTeacherAuthority(r.Context(), actorFrom(r), teacherID, req.BranchIDs, req.ClassIDs)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Teacher authority updated",
	})
}
