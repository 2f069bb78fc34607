// errors стандартизирует ответы об ошибках локального API.
// На вход принимает ошибку компонентов подсистемы или gateway, на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-social-client/internal/auth"
	"github.com/pribylovaa/go-social-client/internal/gateway"
	"github.com/pribylovaa/go-social-client/internal/presence"
	"github.com/pribylovaa/go-social-client/internal/realtime"
	"github.com/pribylovaa/go-social-client/internal/reconciler"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrInvalidArgument битый ввод локального запроса.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound запрошенного объекта нет в локальном состоянии.
	ErrNotFound = errors.New("not found")
	// ErrMethodNotAllowed маршрут есть, метода нет.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// APIError единый формат для UI.
// Code короткий стабильный код, Message безопасное описание,
// RequestID прокидывается из X-Request-Id.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil считается программной ошибкой: 500/internal;
//   - доменные sentinel-ошибки маппятся через errors.Is;
//   - *gateway.StatusError маппится по коду ответа сервера (5xx -> 502);
//   - всё прочее 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError хелпер для HTTP-хендлеров.
// Пишет статус и тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func classify(err error) (int, string, string) {
	if err == nil {
		return internal()
	}

	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, reconciler.ErrInvalidTarget),
		errors.Is(err, gateway.ErrUnsupportedTarget):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed"
	case errors.Is(err, auth.ErrNoToken):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case errors.Is(err, presence.ErrAlreadyStarted):
		return http.StatusConflict, "already_exists", "already started"
	case errors.Is(err, reconciler.ErrClosed), errors.Is(err, presence.ErrStopped),
		errors.Is(err, realtime.ErrNotOpen):
		return http.StatusServiceUnavailable, "unavailable", "service unavailable"
	case errors.Is(err, gateway.ErrDecode):
		return http.StatusBadGateway, "bad_gateway", "malformed upstream response"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	}

	if code := gateway.StatusCode(err); code != 0 {
		return fromUpstream(code)
	}

	return internal()
}

// fromUpstream маппинг кода ответа бэкенда:
//   - 400 -> 400, 401 -> 401, 403 -> 403, 404 -> 404, 409 -> 409, 429 -> 429;
//   - прочие 4xx -> 400;
//   - 5xx -> 502 (апстрим неисправен).
func fromUpstream(code int) (int, string, string) {
	switch {
	case code == http.StatusUnauthorized:
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case code == http.StatusForbidden:
		return http.StatusForbidden, "permission_denied", "permission denied"
	case code == http.StatusNotFound:
		return http.StatusNotFound, "not_found", "not found"
	case code == http.StatusConflict:
		return http.StatusConflict, "already_exists", "already exists"
	case code == http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "resource_exhausted", "resource exhausted"
	case code >= 400 && code < 500:
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case code >= 500:
		return http.StatusBadGateway, "bad_gateway", "upstream error"
	default:
		return internal()
	}
}

func internal() (int, string, string) {
	return http.StatusInternalServerError, "internal", "internal error"
}
