package httpd

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eduline/homework-service/internal/models"
)

const maxUploadSize = 32 << 20 // 32MB

func (h *Handler) UploadSubmission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	imageContent, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read image")
		return
	}

	assignmentID := r.FormValue("assignmentId")
	studentID := r.FormValue("studentId")

	if assignmentID == "" || studentID == "" {
		writeError(w, http.StatusBadRequest, "assignmentId and studentId are required")
		return
	}
	if _, err := uuid.Parse(assignmentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignmentId format")
		return
	}
	if _, err := uuid.Parse(studentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid studentId format")
		return
	}

	req := &models.UploadSubmissionRequest{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		ImageContent: imageContent,
		ContentType:  header.Header.Get("Content-Type"),
	}

	submission, err := h.submissionService.Upload(r.Context(), actorFrom(r), req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    submission,
	})
}

func (h *Handler) ReviewAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentId")
	if assignmentID == "" {
		writeError(w, http.StatusBadRequest, "Assignment ID is required")
		return
	}

	processed, err := h.reviewService.ReviewAssignment(r.Context(), actorFrom(r), assignmentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, models.ReviewResponse{Processed: processed})
}

func (h *Handler) ReprocessSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Submission ID is required")
		return
	}

	submission, err := h.reviewService.Reprocess(r.Context(), actorFrom(r), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, submission)
}

func (h *Handler) GetSubmissionByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Submission ID is required")
		return
	}

	submission, err := h.submissionService.GetByID(r.Context(), actorFrom(r), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, submission)
}

func (h *Handler) GetSubmissionsByStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	response, err := h.submissionService.ListByStudent(r.Context(), actorFrom(r), studentID, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) PatchSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.PatchSubmissionRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	submission, err := h.submissionService.Patch(r.Context(), actorFrom(r), id, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, submission)
}

func (h *Handler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.submissionService.Delete(r.Context(), actorFrom(r), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Submission deleted",
	})
}

func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "id")

	comments, err := h.commentService.ListBySubmission(r.Context(), actorFrom(r), submissionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, comments)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "id")

	var req models.CreateCommentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	comment, err := h.commentService.Create(r.Context(), actorFrom(r), submissionID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    comment,
	})
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID := chi.URLParam(r, "commentId")

	if err := h.commentService.Delete(r.Context(), actorFrom(r), commentID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Comment deleted",
	})
}

func (h *Handler) GetSubmissionEvents(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "id")

	events, err := h.submissionService.GetEvents(r.Context(), actorFrom(r), submissionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, events)
}
