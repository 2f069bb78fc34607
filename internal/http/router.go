// http собирает локальный REST API подсистемы на chi.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-social-client/internal/errors"
	"github.com/pribylovaa/go-social-client/internal/http/handlers"
	"github.com/pribylovaa/go-social-client/internal/http/middleware"
)

// Options параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой, роуты регистрируются на корне.
	// Tokens получает Bearer-токен из запросов UI-оболочки; nil отключает AuthBearer.
	Tokens middleware.TokenSink
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования, чтобы request_id попал в лог
		middleware.Logging(opts.Logger),
	)
	if opts.Tokens != nil {
		root.Use(middleware.AuthBearer(opts.Tokens))
	}
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	root.NotFound(notFound)
	root.MethodNotAllowed(methodNotAllowed)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		sub.NotFound(notFound)
		sub.MethodNotAllowed(methodNotAllowed)
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// interactions
	r.Post("/v1/interactions/{entity}/{id}/{kind}", h.ToggleInteraction)
	r.Get("/v1/interactions/{entity}/{id}/{kind}", h.GetInteraction)
	r.Put("/v1/interactions/{entity}/{id}/{kind}", h.LoadInteraction)

	// comments
	r.Get("/v1/posts/{id}/comments", h.ListComments)
	r.Delete("/v1/posts/{id}/comments", h.ForgetComments)

	// presence
	r.Get("/v1/presence", h.GetPresence)
	r.Post("/v1/presence/activity", h.RecordActivity)
	r.Post("/v1/presence/offline", h.GoOffline)

	// realtime
	r.Get("/v1/realtime", h.GetRealtime)
	r.Post("/v1/realtime/connect", h.ConnectRealtime)
	r.Post("/v1/realtime/disconnect", h.DisconnectRealtime)
}

// notFound и methodNotAllowed отвечают тем же JSON-конвертом, что и обработчики.
func notFound(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteError(w, r, apierrors.ErrNotFound)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteError(w, r, apierrors.ErrMethodNotAllowed)
}
