package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDecode ответ сервера не удалось разобрать или он не прошёл валидацию.
	ErrDecode = errors.New("gateway: malformed response")
	// ErrUnsupportedTarget у цели нет эндпойнта для запрошенного действия.
	ErrUnsupportedTarget = errors.New("gateway: unsupported target")
)

// StatusError ответ сервера с кодом вне 2xx.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway: %s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

// StatusCode возвращает HTTP-код из цепочки ошибок, 0 если его нет.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}

	return 0
}
