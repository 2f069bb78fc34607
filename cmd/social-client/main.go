package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-social-client/internal/auth"
	"github.com/pribylovaa/go-social-client/internal/comments"
	"github.com/pribylovaa/go-social-client/internal/config"
	"github.com/pribylovaa/go-social-client/internal/gateway"
	sochttp "github.com/pribylovaa/go-social-client/internal/http"
	"github.com/pribylovaa/go-social-client/internal/http/handlers"
	"github.com/pribylovaa/go-social-client/internal/metrics"
	"github.com/pribylovaa/go-social-client/internal/models"
	"github.com/pribylovaa/go-social-client/internal/presence"
	"github.com/pribylovaa/go-social-client/internal/realtime"
	"github.com/pribylovaa/go-social-client/internal/reconciler"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	// .env необязателен: в проде переменные приходят из окружения.
	_ = godotenv.Load()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting social-client", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	mt := metrics.New(nil)
	tokens := auth.NewHolder(cfg.Auth.Token)

	api, err := gateway.New(cfg.Gateway.BaseURL, gateway.Options{
		Tokens:    tokens,
		UserAgent: cfg.Gateway.UserAgent,
		Timeout:   cfg.Gateway.Timeout,
		Logger:    log,
	})
	if err != nil {
		log.Error("gateway_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	rec := reconciler.New(api,
		reconciler.WithLogger(log),
		reconciler.WithMetrics(mt),
		reconciler.WithRequestTimeout(cfg.Reconciler.RequestTimeout),
	)
	threads := comments.NewService(api, comments.WithLogger(log), comments.WithMetrics(mt))

	pres := presence.New(api,
		presence.WithLogger(log),
		presence.WithMetrics(mt),
		presence.WithHeartbeatInterval(cfg.Presence.HeartbeatInterval),
	)
	if err := pres.Initialize(rootCtx); err != nil {
		log.Error("presence_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ch := realtime.New(cfg.Realtime.URL, tokens,
		realtime.WithLogger(log),
		realtime.WithMetrics(mt),
		realtime.WithDialer(realtime.WSDialer{HandshakeTimeout: cfg.Realtime.HandshakeTimeout}),
		realtime.WithBackoff(realtime.Backoff{
			Initial:    cfg.Realtime.ReconnectInitial,
			Max:        cfg.Realtime.ReconnectMax,
			Multiplier: cfg.Realtime.ReconnectMultiplier,
			Jitter:     cfg.Realtime.ReconnectJitter,
		}),
	)

	roster := presence.NewRoster(log)
	roster.Attach(ch)
	defer roster.Detach()

	unsubFriends := ch.Subscribe(friendRequestLogger(log),
		models.EventFriendRequestReceived,
		models.EventFriendRequestAccepted,
	)
	defer unsubFriends()

	lease := realtime.NewLease(ch)
	switch err := lease.Ensure(rootCtx); {
	case errors.Is(err, auth.ErrNoToken):
		// Канал поднимется по POST /v1/realtime/connect, когда UI пришлёт токен.
		log.Warn("realtime_deferred_no_token")
	case err != nil:
		log.Error("realtime_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	h := handlers.New(rec, threads, pres, lease, roster)
	apiHandler := sochttp.NewRouter(h, sochttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Service,
		Tokens:  tokens,
	})

	var ready int32 // 1 после старта listener-а

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("client_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	if err := pres.Shutdown(shutdownCtx); err != nil {
		log.Warn("presence_shutdown_incomplete", slog.String("err", err.Error()))
	}

	lease.Close()
	rec.Close()

	log.Info("client_stopped")
}

// friendRequestLogger пишет в лог входящие заявки в друзья; показ уведомлений делает UI.
func friendRequestLogger(log *slog.Logger) realtime.Handler {
	return func(ev models.Event) {
		switch ev.Type {
		case models.EventFriendRequestReceived:
			var p models.FriendRequestReceived
			if err := realtime.Decode(ev, &p); err != nil {
				log.Warn("friend_request_invalid", slog.String("type", ev.Type), slog.String("err", err.Error()))
				return
			}
			log.Info("friend_request_received",
				slog.String("request_id", p.RequestID.String()),
				slog.String("sender_id", p.SenderID.String()),
				slog.String("sender_username", p.SenderUsername),
			)
		case models.EventFriendRequestAccepted:
			var p models.FriendRequestAccepted
			if err := realtime.Decode(ev, &p); err != nil {
				log.Warn("friend_request_invalid", slog.String("type", ev.Type), slog.String("err", err.Error()))
				return
			}
			log.Info("friend_request_accepted",
				slog.String("request_id", p.RequestID.String()),
				slog.String("user_id", p.UserID.String()),
				slog.String("username", p.Username),
			)
		}
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
