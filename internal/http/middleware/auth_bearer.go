package middleware

import (
	"net/http"
	"strings"
)

// TokenSink принимает актуальный токен пользователя (auth.Holder).
type TokenSink interface {
	Set(token string)
}

// AuthBearer берёт Bearer-токен из Authorization и передаёт его в sink:
// UI-оболочка присылает текущий токен с каждым вызовом, и исходящие запросы
// gateway и realtime-канал используют его же. Запрос без валидного заголовка
// токен не меняет.
func AuthBearer(sink TokenSink) Middleware {
	return func(next http.Handler) http.Handler {
		if sink == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "

			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, prefix) {
				if token := strings.TrimSpace(h[len(prefix):]); token != "" {
					sink.Set(token)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
