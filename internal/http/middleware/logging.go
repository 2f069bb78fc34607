package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	logctx "github.com/pribylovaa/go-social-client/pkg/log"
)

// Logging кладёт логгер запроса в контекст и по завершении пишет одну запись "http".
//
// route шаблон chi (/v1/interactions/{entity}/{id}/{kind}), чтобы записи
// по разным целям группировались; ответы 5xx пишутся с уровнем Error.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lg := l
			if rid := r.Header.Get("X-Request-Id"); rid != "" {
				lg = lg.With(slog.String("request_id", rid))
			}
			r = r.WithContext(logctx.Into(r.Context(), lg))

			rec := &responseRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			status := rec.status()
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", rec.bytes),
			}
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pattern := rc.RoutePattern(); pattern != "" {
					attrs = append(attrs, slog.String("route", pattern))
				}
			}

			lg.LogAttrs(r.Context(), level, "http", attrs...)
		})
	}
}
