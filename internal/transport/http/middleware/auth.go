package httpmw

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	ctxKeyToken ctxKey = "token"
	ctxKeyUser  ctxKey = "user"
)

// Identity — пара, которую выдаёт внешний сессионный слой.
// Сам сервис cookie и сессии не читает.
type Identity struct {
	UserID string
	Name   string
}

// простая авторизация: требуем Bearer + X-User-ID + X-User-Name, без валидации токена
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
			return
		}

		uid := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if uid == "" {
			http.Error(w, `{"error":"missing X-User-ID"}`, http.StatusUnauthorized)
			return
		}
		name := strings.TrimSpace(r.Header.Get("X-User-Name"))
		if name == "" {
			http.Error(w, `{"error":"missing X-User-Name"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyToken, strings.TrimSpace(auth[7:]))
		ctx = context.WithValue(ctx, ctxKeyUser, Identity{UserID: uid, Name: name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserFromCtx(ctx context.Context) Identity {
	if v := ctx.Value(ctxKeyUser); v != nil {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}
