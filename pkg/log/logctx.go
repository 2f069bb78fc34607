// log хранит request-scoped *slog.Logger в context.Context.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// Op возвращает логгер из контекста, обогащённый полем op и дополнительными атрибутами.
// Если в контексте логгера нет, используется fallback (или slog.Default(), если fallback == nil).
func Op(ctx context.Context, fallback *slog.Logger, op string, args ...any) *slog.Logger {
	l := fallback
	if v := ctx.Value(ctxKey{}); v != nil {
		if cl, ok := v.(*slog.Logger); ok && cl != nil {
			l = cl
		}
	}

	if l == nil {
		l = slog.Default()
	}

	return l.With(append([]any{"op", op}, args...)...)
}
