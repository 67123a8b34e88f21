// Package middleware содержит HTTP middleware тикет-бекофиса.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const sessionIDKey contextKey = "sessionID"

const (
	sessionCookieName = "backoffice_session"
	sessionCookieTTL  = 24 * time.Hour
)

// Session выдаёт cookie сессии оператора и кладёт её идентификатор в контекст
// запроса. Сессия не является аутентификацией: она лишь привязывает выбор
// количеств и результат оформления к конкретной вкладке оператора.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string

		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if parsed, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
				id = parsed.String()
			}
		}

		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().Add(sessionCookieTTL),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionIDFromContext извлекает идентификатор сессии из контекста запроса.
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok
}
