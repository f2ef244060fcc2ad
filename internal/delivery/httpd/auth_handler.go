package httpd

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eduline/homework-service/internal/models"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, user)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	user, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, user)
	writeSuccess(w, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	writeSuccess(w, map[string]interface{}{
		"message": "Logged out",
	})
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.UserID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.authService.GetUser(r.Context(), actor.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	users, total, err := h.authService.ListUsers(r.Context(), actorFrom(r), role, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	user, err := h.authService.UpdateUser(r.Context(), actorFrom(r), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, user)
}

func (h *Handler) HideUser(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.HideUser(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "User hidden",
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, user *models.User) {
	now := time.Now()
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(h.tokenTTL).Unix(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode session token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    tokenString,
		Path:     "/",
		Expires:  now.Add(h.tokenTTL),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
