package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-social-client/internal/auth"
	"github.com/pribylovaa/go-social-client/internal/comments"
	"github.com/pribylovaa/go-social-client/internal/http/handlers"
	"github.com/pribylovaa/go-social-client/internal/models"
	"github.com/pribylovaa/go-social-client/internal/presence"
	"github.com/pribylovaa/go-social-client/internal/reconciler"
	"github.com/pribylovaa/go-social-client/mocks"
)

// stubRealtime аренда канала без сети: Ensure требует токен, как настоящий канал.
type stubRealtime struct {
	tokens *auth.Holder

	mu    sync.Mutex
	state models.ConnState
}

func (s *stubRealtime) Ensure(ctx context.Context) error {
	if _, err := s.tokens.Token(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = models.StateOpen
	s.mu.Unlock()
	return nil
}

func (s *stubRealtime) Close() {
	s.mu.Lock()
	s.state = models.StateClosed
	s.mu.Unlock()
}

func (s *stubRealtime) State() models.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

type fixture struct {
	api    *mocks.MockAPI
	rec    *reconciler.Reconciler
	pres   *presence.Manager
	roster *presence.Roster
	tokens *auth.Holder
	srv    http.Handler
}

func newFixture(t *testing.T, basePath string) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &fixture{api: mocks.NewMockAPI(ctrl)}
	f.rec = reconciler.New(f.api)
	f.pres = presence.New(f.api)
	f.roster = presence.NewRoster(nil)
	f.tokens = auth.NewHolder("")

	h := handlers.New(f.rec, comments.NewService(f.api), f.pres, &stubRealtime{tokens: f.tokens}, f.roster)
	f.srv = NewRouter(h, Options{BasePath: basePath, Tokens: f.tokens})

	t.Cleanup(f.rec.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rr := httptest.NewRecorder()
	f.srv.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestRouter_ToggleLoadAndGetInteraction(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	ref := models.TargetRef{Entity: models.EntityPost, ID: "7"}

	rr := f.do(t, http.MethodGet, "/v1/interactions/post/7/like", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodPut, "/v1/interactions/post/7/like", `{"count":5,"flag":false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 5.0, decode(t, rr)["count"])

	f.api.EXPECT().ToggleLike(gomock.Any(), ref).Return(models.Toggled{Total: 6, Flag: true}, nil)

	rr = f.do(t, http.MethodPost, "/v1/interactions/post/7/like", "")
	require.Equal(t, http.StatusAccepted, rr.Code)
	body := decode(t, rr)
	require.Equal(t, 6.0, body["count"])
	require.Equal(t, true, body["flag"])
	require.Equal(t, true, body["pending"])

	f.rec.Wait()

	rr = f.do(t, http.MethodGet, "/v1/interactions/post/7/like", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, false, decode(t, rr)["pending"])
	require.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestRouter_CommentLikeNeedsPostID(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "/api")

	rr := f.do(t, http.MethodPost, "/api/v1/interactions/comment/5/like", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	ref := models.TargetRef{Entity: models.EntityComment, ID: "5", PostID: "7"}
	f.api.EXPECT().ToggleLike(gomock.Any(), ref).Return(models.Toggled{Total: 1, Flag: true}, nil)

	rr = f.do(t, http.MethodPost, "/api/v1/interactions/comment/5/like", `{"post_id":"7"}`)
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, "7", decode(t, rr)["post_id"])
	f.rec.Wait()

	rr = f.do(t, http.MethodGet, "/api/v1/interactions/comment/5/like?post_id=7", "")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_InvalidInteractionRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")

	tcs := []struct {
		name, method, path, body string
	}{
		{"unknown_kind", http.MethodPost, "/v1/interactions/post/7/dislike", ""},
		{"unknown_entity", http.MethodPost, "/v1/interactions/story/7/like", ""},
		{"comment_save", http.MethodPost, "/v1/interactions/comment/5/save", `{"post_id":"7"}`},
		{"unknown_field", http.MethodPost, "/v1/interactions/post/7/like", `{"x":1}`},
		{"load_missing_count", http.MethodPut, "/v1/interactions/post/7/like", `{"flag":true}`},
		{"load_negative", http.MethodPut, "/v1/interactions/post/7/like", `{"count":-1,"flag":true}`},
		{"load_empty_body", http.MethodPut, "/v1/interactions/post/7/like", ""},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)

			var env struct {
				Error struct {
					Code      string `json:"code"`
					RequestID string `json:"request_id"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
			require.Equal(t, "invalid_argument", env.Error.Code)
			require.NotEmpty(t, env.Error.RequestID)
		})
	}
}

func TestRouter_CommentsFreshThenStale(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")

	gomock.InOrder(
		f.api.EXPECT().FetchComments(gomock.Any(), "9").Return([]models.Comment{
			{ID: "1", PostID: "9", Author: "ann", Body: "root"},
			{ID: "2", PostID: "9", ParentID: "1", Author: "bob", Body: "reply"},
			{ID: "3", PostID: "9", ParentID: "404", Body: "orphan"},
		}, nil),
		f.api.EXPECT().FetchComments(gomock.Any(), "9").Return(nil, errors.New("down")),
	)

	rr := f.do(t, http.MethodGet, "/v1/posts/9/comments", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var view struct {
		Total    int  `json:"total"`
		Depth    int  `json:"depth"`
		Stale    bool `json:"stale"`
		Comments []struct {
			ID       string `json:"id"`
			CanReply bool   `json:"can_reply"`
			Replies  []struct {
				ID    string `json:"id"`
				Level int    `json:"level"`
			} `json:"replies"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, 2, view.Total)
	require.Equal(t, 2, view.Depth)
	require.False(t, view.Stale)
	require.Len(t, view.Comments, 1)
	require.True(t, view.Comments[0].CanReply)
	require.Equal(t, "2", view.Comments[0].Replies[0].ID)
	require.Equal(t, 1, view.Comments[0].Replies[0].Level)

	rr = f.do(t, http.MethodGet, "/v1/posts/9/comments", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, decode(t, rr)["stale"])

	rr = f.do(t, http.MethodDelete, "/v1/posts/9/comments", "")
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRouter_CommentsFailureWithoutCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.api.EXPECT().FetchComments(gomock.Any(), "9").Return(nil, errors.New("down"))

	rr := f.do(t, http.MethodGet, "/v1/posts/9/comments", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRouter_Presence(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")

	gomock.InOrder(
		f.api.EXPECT().SetPresence(gomock.Any(), true).Return(nil),
		f.api.EXPECT().SetPresence(gomock.Any(), false).Return(errors.New("down")),
	)

	rr := f.do(t, http.MethodGet, "/v1/presence", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, false, decode(t, rr)["online"])

	rr = f.do(t, http.MethodPost, "/v1/presence/activity", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	require.Equal(t, true, body["online"])
	require.Equal(t, true, body["synced"])
	require.NotEmpty(t, body["last_activity"])

	rr = f.do(t, http.MethodPost, "/v1/presence/offline", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode(t, rr)
	require.Equal(t, false, body["online"])
	require.Equal(t, false, body["synced"])

	require.NoError(t, f.pres.Shutdown(context.Background()))
	rr = f.do(t, http.MethodPost, "/v1/presence/activity", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_RealtimeConnectNeedsToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")

	rr := f.do(t, http.MethodPost, "/v1/realtime/connect", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/realtime", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "closed", decode(t, rr)["state"])
}

func TestRouter_RealtimeAndBearer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.roster.Handle(models.Event{
		Type:    models.EventOnlineStatusUpdate,
		Payload: json.RawMessage(`{"type":"online_status_update","user_id":3,"is_online":true}`),
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/realtime/connect", nil)
	req.Header.Set("Authorization", "Bearer ui-token")
	rr := httptest.NewRecorder()
	f.srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	require.Equal(t, "open", body["state"])
	require.Equal(t, map[string]any{"3": true}, body["online_users"])

	tok, err := f.tokens.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ui-token", tok)

	rr = f.do(t, http.MethodPost, "/v1/realtime/disconnect", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "closed", decode(t, rr)["state"])
}

func TestRouter_UnknownRouteAndMethod(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")

	rr := f.do(t, http.MethodGet, "/v1/nope", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	rr = f.do(t, http.MethodPatch, "/v1/presence", "")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
