package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/go-social-client/pkg/log"
)

// Timeout ограничивает обработку запроса d, если у контекста ещё нет дедлайна.
// Дедлайн доходит до запросов к бэкенду (обновление комментариев, presence).
// Истёкший дедлайн отмечается в логе записью request_deadline_exceeded.
// d <= 0 отключает мидлвар.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logctx.From(ctx).Warn("request_deadline_exceeded",
					slog.String("path", r.URL.Path),
					slog.Duration("timeout", d),
				)
			}
		})
	}
}
