package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-social-client/internal/auth"
)

type capHandler struct {
	base    []slog.Attr
	lastMsg string
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+4)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	h.count++
	h.lastMsg = r.Message
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

// recordingRT запоминает последний запрос и отвечает 200 с пустым телом.
type recordingRT struct {
	last *http.Request
	err  error
}

func (rt *recordingRT) RoundTrip(r *http.Request) (*http.Response, error) {
	rt.last = r
	if rt.err != nil {
		return nil, rt.err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     http.Header{},
		Request:    r,
	}, nil
}

func newReq(ctx context.Context) *http.Request {
	return httptest.NewRequest(http.MethodPost, "http://api.example.com/post/like/", nil).WithContext(ctx)
}

func TestWithMetadata_SetsHeaders(t *testing.T) {
	t.Parallel()

	rt := &recordingRT{}
	tr := ChainTransport(rt, WithMetadata(auth.NewHolder("tok-xyz"), "social-client"))

	ctx := context.WithValue(context.Background(), CtxRequestID, "rid-123")
	orig := newReq(ctx)
	_, err := tr.RoundTrip(orig)
	require.NoError(t, err)

	require.Equal(t, "rid-123", rt.last.Header.Get("X-Request-Id"))
	require.Equal(t, "Bearer tok-xyz", rt.last.Header.Get("Authorization"))
	require.Equal(t, "social-client", rt.last.Header.Get("User-Agent"))

	// Исходный запрос не модифицируется.
	require.Empty(t, orig.Header.Get("Authorization"))
}

func TestWithMetadata_NoTokenIsAnonymous(t *testing.T) {
	t.Parallel()

	rt := &recordingRT{}
	tr := ChainTransport(rt, WithMetadata(auth.NewHolder(""), ""))

	_, err := tr.RoundTrip(newReq(context.Background()))
	require.NoError(t, err)
	require.Empty(t, rt.last.Header.Get("Authorization"))
}

func TestWithMetadata_TokenSourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("keychain locked")
	rt := &recordingRT{}
	tr := ChainTransport(rt, WithMetadata(auth.TokenFunc(func(context.Context) (string, error) {
		return "", boom
	}), ""))

	_, err := tr.RoundTrip(newReq(context.Background()))
	require.ErrorIs(t, err, boom)
	require.Nil(t, rt.last)
}

func TestWithTimeout_SetsDeadlineWhenAbsent(t *testing.T) {
	t.Parallel()

	rt := &recordingRT{}
	tr := ChainTransport(rt, WithTimeout(50*time.Millisecond))

	resp, err := tr.RoundTrip(newReq(context.Background()))
	require.NoError(t, err)

	_, ok := rt.last.Context().Deadline()
	require.True(t, ok)

	require.NoError(t, resp.Body.Close())
	require.ErrorIs(t, rt.last.Context().Err(), context.Canceled)
}

func TestWithTimeout_KeepsExistingDeadline(t *testing.T) {
	t.Parallel()

	rt := &recordingRT{}
	tr := ChainTransport(rt, WithTimeout(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := tr.RoundTrip(newReq(ctx))
	require.NoError(t, err)

	parentDL, _ := ctx.Deadline()
	childDL, _ := rt.last.Context().Deadline()
	require.WithinDuration(t, parentDL, childDL, time.Millisecond)
}

func TestWithLogging_OneRecordWithRequestID(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	rt := &recordingRT{}
	tr := ChainTransport(rt, WithLogging(slog.New(h)))

	_, err := tr.RoundTrip(newReq(context.Background()))
	require.NoError(t, err)

	require.Equal(t, 1, h.count)
	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, int64(http.StatusOK), h.attrs["status"])
	require.Equal(t, "/post/like/", h.attrs["path"])

	rid := rt.last.Header.Get("X-Request-Id")
	require.NotEmpty(t, rid)
	require.Equal(t, rid, h.attrs["request_id"])
	require.NotContains(t, h.attrs, "authorization")
}

func TestWithLogging_TransportError(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	rt := &recordingRT{err: errors.New("dial tcp: refused")}
	tr := ChainTransport(rt, WithLogging(slog.New(h)))

	_, err := tr.RoundTrip(newReq(context.Background()))
	require.Error(t, err)
	require.Equal(t, int64(0), h.attrs["status"])
	require.Equal(t, "dial tcp: refused", h.attrs["err"])
}
