package httpd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/apperr"
	"github.com/eduline/homework-service/internal/service"
)

type Handler struct {
	authService       service.AuthService
	accessService     service.AccessService
	branchService     service.BranchService
	classService      service.ClassService
	assignmentService service.AssignmentService
	submissionService service.SubmissionService
	commentService    service.CommentService
	reviewService     service.ReviewService
	tokenAuth         *jwtauth.JWTAuth
	cookieName        string
	secureCookie      bool
	tokenTTL          time.Duration
	validate          *validator.Validate
	logger            zerolog.Logger
}

func NewHandler(
	authService service.AuthService,
	accessService service.AccessService,
	branchService service.BranchService,
	classService service.ClassService,
	assignmentService service.AssignmentService,
	submissionService service.SubmissionService,
	commentService service.CommentService,
	reviewService service.ReviewService,
	tokenAuth *jwtauth.JWTAuth,
	cookieName string,
	secureCookie bool,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		authService:       authService,
		accessService:     accessService,
		branchService:     branchService,
		classService:      classService,
		assignmentService: assignmentService,
		submissionService: submissionService,
		commentService:    commentService,
		reviewService:     reviewService,
		tokenAuth:         tokenAuth,
		cookieName:        cookieName,
		secureCookie:      secureCookie,
		tokenTTL:          tokenTTL,
		validate:          validator.New(),
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Group(func(r chi.Router) {
		r.Post("/api/register", h.Register)
		r.Post("/api/login", h.Login)
		r.Post("/api/logout", h.Logout)
	})

	router.Group(func(r chi.Router) {
		r.Use(jwtauth.Verify(h.tokenAuth, jwtauth.TokenFromHeader, h.tokenFromCookie))
		r.Use(h.ActorContext)

		r.Get("/api/user", h.CurrentUser)
		r.Get("/api/users", h.ListUsers)
		r.Put("/api/users/{id}", h.UpdateUser)
		r.Delete("/api/users/{id}", h.HideUser)

		r.Route("/api/branches", func(r chi.Router) {
			r.Post("/", h.CreateBranch)
			r.Get("/", h.GetAllBranches)
			r.Get("/{id}", h.GetBranchByID)
			r.Put("/{id}", h.UpdateBranch)
			r.Delete("/{id}", h.HideBranch)
		})

		r.Route("/api/classes", func(r chi.Router) {
			r.Post("/", h.CreateClass)
			r.Get("/", h.GetAllClasses)
			r.Get("/{id}", h.GetClassByID)
			r.Put("/{id}", h.UpdateClass)
			r.Delete("/{id}", h.HideClass)
			r.Put("/{id}/teachers/{teacherId}", h.SetClassTeacher)
			r.Put("/{id}/students/{studentId}", h.EnrollStudent)
			r.Delete("/{id}/students/{studentId}", h.UnenrollStudent)
		})

		r.Route("/api/teachers/{id}/authority", func(r chi.Router) {
			r.Get("/", h.GetTeacherAuthority)
			r.Put("/", h.UpdateTeacherAuthority)
		})

		r.Route("/api/assignments", func(r chi.Router) {
			r.Post("/", h.CreateAssignment)
			r.Get("/", h.GetAllAssignments)
			r.Get("/{id}", h.GetAssignmentByID)
			r.Put("/{id}", h.UpdateAssignment)
			r.Delete("/{id}", h.HideAssignment)
			r.Get("/{id}/submissions", h.GetSubmissionsByAssignment)
		})

		r.Get("/api/students/{id}/submissions", h.GetSubmissionsByStudent)

		r.Route("/api/submissions", func(r chi.Router) {
			r.Post("/upload", h.UploadSubmission)
			r.Post("/{assignmentId}/review", h.ReviewAssignment)
			r.Post("/{id}/reprocess", h.ReprocessSubmission)
			r.Get("/{id}", h.GetSubmissionByID)
			r.Patch("/{id}", h.PatchSubmission)
			r.Delete("/{id}", h.DeleteSubmission)
			r.Get("/{id}/comments", h.GetComments)
			r.Post("/{id}/comments", h.CreateComment)
			r.Delete("/{id}/comments/{commentId}", h.DeleteComment)
			r.Get("/{id}/events", h.GetSubmissionEvents)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "homework-service",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		return apperr.ValidationFields("request validation failed", fields)
	}
	return nil
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindAuthenticationRequired:
		writeError(w, http.StatusUnauthorized, err.Error())
	case apperr.KindForbidden:
		writeError(w, http.StatusForbidden, err.Error())
	case apperr.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case apperr.KindConflict:
		writeError(w, http.StatusConflict, err.Error())
	case apperr.KindExternal:
		switch apperr.ReasonOf(err) {
		case apperr.ExternalQuotaExceeded:
			writeError(w, http.StatusTooManyRequests, err.Error())
		case apperr.ExternalTimeout:
			writeError(w, http.StatusGatewayTimeout, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
	default:
		h.logger.Error().Err(err).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
