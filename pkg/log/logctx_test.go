package log

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// Тесты меняют slog.Default(), поэтому t.Parallel() не используется.

func newSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recHandler запоминает атрибуты последней записи.
type recHandler struct {
	base  []slog.Attr
	attrs map[string]any
}

func (h *recHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recHandler) Handle(_ context.Context, r slog.Record) error {
	h.attrs = make(map[string]any)
	for _, a := range h.base {
		h.attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		h.attrs[a.Key] = a.Value.Any()
		return true
	})
	return nil
}

func (h *recHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *recHandler) WithGroup(string) slog.Handler { return h }

func TestFrom_ReturnsDefault_WhenNoLoggerInContext(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	def := newSilent()
	slog.SetDefault(def)

	require.Equal(t, def, From(context.Background()))
}

func TestIntoAndFrom_RoundTrip(t *testing.T) {
	l := newSilent()
	ctx := Into(context.Background(), l)

	require.Equal(t, l, From(ctx))
}

func TestFrom_IgnoresNilLogger(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	def := newSilent()
	slog.SetDefault(def)

	var nilLogger *slog.Logger
	ctx := context.WithValue(context.Background(), ctxKey{}, nilLogger)
	require.Equal(t, def, From(ctx))
}

func TestOp_PrefersContextLogger(t *testing.T) {
	ctxHandler := &recHandler{}
	fbHandler := &recHandler{}

	ctx := Into(context.Background(), slog.New(ctxHandler))
	Op(ctx, slog.New(fbHandler), "reconciler/Toggle", "target_id", "42").Info("probe")

	require.Equal(t, "reconciler/Toggle", ctxHandler.attrs["op"])
	require.Equal(t, "42", ctxHandler.attrs["target_id"])
	require.Nil(t, fbHandler.attrs)
}

func TestOp_UsesFallbackWithoutContextLogger(t *testing.T) {
	fbHandler := &recHandler{}

	Op(context.Background(), slog.New(fbHandler), "presence/SetOnline").Info("probe")

	require.Equal(t, "presence/SetOnline", fbHandler.attrs["op"])
}
