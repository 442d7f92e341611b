package httpmw

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HeartbeatMiddleware обновляет last_seen для {roomID,userID}, если roomID есть в пути.
type HeartbeatToucher interface {
	TouchHeartbeat(ctx context.Context, roomID, userID string)
}

func HeartbeatMiddleware(memberSvc HeartbeatToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromCtx(r.Context())
			if user.UserID != "" {
				if roomID := chi.URLParam(r, "id"); roomID != "" {
					// best-effort: не прерывает запрос
					memberSvc.TouchHeartbeat(r.Context(), roomID, user.UserID)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
