// middleware net/http-мидлвары локального API.
package middleware

import (
	"net/http"
)

// Middleware стандартный net/http мидлвар.
type Middleware func(http.Handler) http.Handler

// Chain оборачивает h так, что mws[0] оказывается внешним.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// responseRecorder запоминает код и объём ответа для журнала запросов.
// Код 0 означает, что обработчик ничего не записал (net/http ответит 200).
type responseRecorder struct {
	http.ResponseWriter
	code  int
	bytes int
}

func (rw *responseRecorder) WriteHeader(code int) {
	if rw.code == 0 {
		rw.code = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(p []byte) (int, error) {
	if rw.code == 0 {
		rw.code = http.StatusOK
	}

	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += n
	return n, err
}

// Unwrap нужен http.ResponseController.
func (rw *responseRecorder) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

func (rw *responseRecorder) status() int {
	if rw.code == 0 {
		return http.StatusOK
	}
	return rw.code
}
