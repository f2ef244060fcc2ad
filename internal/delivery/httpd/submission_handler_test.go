package httpd

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduline/homework-service/internal/models"
)

type stubSubmissionService struct {
	uploaded *models.UploadSubmissionRequest
}

func (s *stubSubmissionService) Upload(_ context.Context, _ models.Actor, req *models.UploadSubmissionRequest) (*models.Submission, error) {
	s.uploaded = req
	return &models.Submission{
		ID:           "sub-1",
		AssignmentID: req.AssignmentID,
		StudentID:    req.StudentID,
		Status:       models.SubmissionStatusUploaded,
	}, nil
}

func (s *stubSubmissionService) GetByID(context.Context, models.Actor, string) (*models.Submission, error) {
	return nil, nil
}

func (s *stubSubmissionService) ListByAssignment(context.Context, models.Actor, string, int, int) (*models.SubmissionsResponse, error) {
	return nil, nil
}

func (s *stubSubmissionService) ListByStudent(context.Context, models.Actor, string, int, int) (*models.SubmissionsResponse, error) {
	return nil, nil
}

func (s *stubSubmissionService) Patch(context.Context, models.Actor, string, *models.PatchSubmissionRequest) (*models.Submission, error) {
	return nil, nil
}

func (s *stubSubmissionService) Delete(context.Context, models.Actor, string) error {
	return nil
}

func (s *stubSubmissionService) GetEvents(context.Context, models.Actor, string) ([]models.SubmissionEvent, error) {
	return nil, nil
}

func newUploadHandler(svc *stubSubmissionService) *Handler {
	return NewHandler(nil, nil, nil, nil, nil, svc, nil, nil, nil, "session", false, 0, zerolog.Nop())
}

func uploadRequest(t *testing.T, fields map[string]string, withFile bool) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if withFile {
		part, err := writer.CreateFormFile("file", "homework.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg bytes"))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/submissions/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadSubmissionFormFields(t *testing.T) {
	svc := &stubSubmissionService{}
	h := newUploadHandler(svc)

	assignmentID := uuid.New().String()
	studentID := uuid.New().String()

	rec := httptest.NewRecorder()
	h.UploadSubmission(rec, uploadRequest(t, map[string]string{
		"assignmentId": assignmentID,
		"studentId":    studentID,
	}, true))

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.uploaded)
	assert.Equal(t, assignmentID, svc.uploaded.AssignmentID)
	assert.Equal(t, studentID, svc.uploaded.StudentID)
	assert.Equal(t, []byte("jpeg bytes"), svc.uploaded.ImageContent)
}

func TestUploadSubmissionMissingFile(t *testing.T) {
	svc := &stubSubmissionService{}
	h := newUploadHandler(svc)

	rec := httptest.NewRecorder()
	h.UploadSubmission(rec, uploadRequest(t, map[string]string{
		"assignmentId": uuid.New().String(),
		"studentId":    uuid.New().String(),
	}, false))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.uploaded)
}

func TestUploadSubmissionMissingIDs(t *testing.T) {
	svc := &stubSubmissionService{}
	h := newUploadHandler(svc)

	rec := httptest.NewRecorder()
	h.UploadSubmission(rec, uploadRequest(t, map[string]string{
		"assignmentId": uuid.New().String(),
	}, true))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.uploaded)
}
