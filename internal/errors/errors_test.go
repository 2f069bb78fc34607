package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-social-client/internal/auth"
	"github.com/pribylovaa/go-social-client/internal/gateway"
	"github.com/pribylovaa/go-social-client/internal/presence"
	"github.com/pribylovaa/go-social-client/internal/realtime"
	"github.com/pribylovaa/go-social-client/internal/reconciler"
)

func TestToHTTP_Mapping(t *testing.T) {
	t.Parallel()

	wrap := func(err error) error { return fmt.Errorf("op: %w", err) }

	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
	}{
		{"invalid_argument", wrap(ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{"invalid_target", wrap(reconciler.ErrInvalidTarget), http.StatusBadRequest, "invalid_argument"},
		{"unsupported_target", wrap(gateway.ErrUnsupportedTarget), http.StatusBadRequest, "invalid_argument"},
		{"not_found", wrap(ErrNotFound), http.StatusNotFound, "not_found"},
		{"method_not_allowed", ErrMethodNotAllowed, http.StatusMethodNotAllowed, "method_not_allowed"},
		{"no_token", wrap(auth.ErrNoToken), http.StatusUnauthorized, "unauthenticated"},
		{"already_started", wrap(presence.ErrAlreadyStarted), http.StatusConflict, "already_exists"},
		{"closed", wrap(reconciler.ErrClosed), http.StatusServiceUnavailable, "unavailable"},
		{"stopped", wrap(presence.ErrStopped), http.StatusServiceUnavailable, "unavailable"},
		{"not_open", wrap(realtime.ErrNotOpen), http.StatusServiceUnavailable, "unavailable"},
		{"decode", wrap(gateway.ErrDecode), http.StatusBadGateway, "bad_gateway"},
		{"canceled", wrap(context.Canceled), StatusClientClosedRequest, "canceled"},
		{"deadline", wrap(context.DeadlineExceeded), http.StatusGatewayTimeout, "deadline_exceeded"},
		{"upstream_401", wrap(&gateway.StatusError{Code: 401}), http.StatusUnauthorized, "unauthenticated"},
		{"upstream_403", wrap(&gateway.StatusError{Code: 403}), http.StatusForbidden, "permission_denied"},
		{"upstream_404", wrap(&gateway.StatusError{Code: 404}), http.StatusNotFound, "not_found"},
		{"upstream_409", wrap(&gateway.StatusError{Code: 409}), http.StatusConflict, "already_exists"},
		{"upstream_429", wrap(&gateway.StatusError{Code: 429}), http.StatusTooManyRequests, "resource_exhausted"},
		{"upstream_422", wrap(&gateway.StatusError{Code: 422}), http.StatusBadRequest, "invalid_argument"},
		{"upstream_503", wrap(&gateway.StatusError{Code: 503}), http.StatusBadGateway, "bad_gateway"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, resp := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	t.Parallel()

	gotStatus, resp := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, "internal", resp.Error.Code)
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestWriteError_SetsHeadersBodyAndRequestID(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/presence", nil)
	req.Header.Set("X-Request-Id", "rid-42")

	WriteError(rr, req, ErrNotFound)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, "not_found", got.Error.Code)
	require.Equal(t, "rid-42", got.Error.RequestID)
}
