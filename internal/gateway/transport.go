package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-social-client/internal/auth"
	"github.com/pribylovaa/go-social-client/pkg/log"
)

type CtxKey string

// CtxRequestID ключ контекста с id входящего запроса локального API.
// Его кладёт middleware.RequestID, а WithMetadata пробрасывает в X-Request-Id.
const CtxRequestID CtxKey = "request_id"

// Interceptor оборачивает http.RoundTripper.
type Interceptor func(http.RoundTripper) http.RoundTripper

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// ChainTransport применяет интерсепторы в порядке перечисления: первый самый внешний.
func ChainTransport(base http.RoundTripper, ics ...Interceptor) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	for i := len(ics) - 1; i >= 0; i-- {
		base = ics[i](base)
	}

	return base
}

// WithMetadata добавляет в исходящий запрос заголовки:
//   - X-Request-Id (если есть в контексте);
//   - Authorization: Bearer <token> (если источник отдал токен);
//   - User-Agent (если задан).
//
// Отсутствие токена не ошибка: запрос уходит анонимно, а сервер решает сам.
func WithMetadata(tokens auth.TokenSource, userAgent string) Interceptor {
	const op = "gateway/transport/WithMetadata"

	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())

			if v, _ := r.Context().Value(CtxRequestID).(string); v != "" && r.Header.Get("X-Request-Id") == "" {
				r.Header.Set("X-Request-Id", v)
			}

			if tokens != nil {
				tok, err := tokens.Token(r.Context())
				switch {
				case err == nil && tok != "":
					r.Header.Set("Authorization", "Bearer "+tok)
				case err != nil && !errors.Is(err, auth.ErrNoToken):
					return nil, fmt.Errorf("%s: %w", op, err)
				}
			}

			if userAgent != "" {
				r.Header.Set("User-Agent", userAgent)
			}

			return next.RoundTrip(r)
		})
	}
}

// WithTimeout навешивает таймаут d на запрос, если у контекста ещё нет дедлайна.
// Контекст отменяется при закрытии тела ответа, поэтому тело можно дочитать.
func WithTimeout(d time.Duration) Interceptor {
	return func(next http.RoundTripper) http.RoundTripper {
		if d <= 0 {
			return next
		}

		return roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if _, ok := r.Context().Deadline(); ok {
				return next.RoundTrip(r)
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			resp, err := next.RoundTrip(r.WithContext(ctx))
			if err != nil {
				cancel()
				return nil, err
			}

			resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		})
	}
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// WithLogging пишет одну запись уровня Info на исходящий запрос: msg="http", status, dur.
// Если X-Request-Id нет, генерирует его. Тело и заголовки авторизации не логируются.
func WithLogging(base *slog.Logger) Interceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			rid := r.Header.Get("X-Request-Id")
			if rid == "" {
				rid = uuid.NewString()
				r = r.Clone(r.Context())
				r.Header.Set("X-Request-Id", rid)
			}

			l := base.With(
				slog.String("request_id", rid),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			r = r.WithContext(log.Into(r.Context(), l))

			resp, err := next.RoundTrip(r)

			status := 0
			if resp != nil {
				status = resp.StatusCode
			}

			attrs := []slog.Attr{
				slog.Int("status", status),
				slog.Duration("dur", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.String("err", err.Error()))
			}

			l.LogAttrs(r.Context(), slog.LevelInfo, "http", attrs...)

			return resp, err
		})
	}
}
