package httpd

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/eduline/homework-service/internal/models"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorContext turns verified JWT claims into an Actor. Requests without a
// valid token still reach the services, which reject them with an
// authentication error; the HTTP layer never duplicates that decision.
func (h *Handler) ActorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := models.Actor{}

		token, claims, err := jwtauth.FromContext(r.Context())
		if err == nil && token != nil {
			if userID, ok := claims["user_id"].(string); ok {
				actor.UserID = userID
			}
			if role, ok := claims["role"].(string); ok {
				actor.Role = models.Role(role)
			}
		}

		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tokenFromCookie reads the session token from the configured cookie name.
func (h *Handler) tokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func actorFrom(r *http.Request) models.Actor {
	if actor, ok := r.Context().Value(actorKey).(models.Actor); ok {
		return actor
	}
	return models.Actor{}
}
