package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/config"
	redisinfra "points-exchange-service/internal/infra/redis"
	"points-exchange-service/internal/metrics"
	transport "points-exchange-service/internal/transport/http"
)

const sessionSweepInterval = 5 * time.Minute

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runServer(cmd.Context(), cfg, *port, log)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, portFlag string, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	hub := app.NewNotificationHub()
	var publisher app.NotificationPublisher = hub
	if st.redis != nil {
		bus := redisinfra.NewNotificationBus(st.redis, log.Named("bus"))
		publisher = bus
		go func() {
			if err := bus.Run(ctx, hub, nil); err != nil && ctx.Err() == nil {
				log.Error("notification bus stopped", zap.Error(err))
			}
		}()
	}
	if st.memSessions != nil {
		go sweepSessions(ctx, st, log)
	}

	m := metrics.New()
	services := transport.Services{
		Accounts:  app.NewAccountService(st.repos.Accounts, st.sessions, log.Named("accounts")),
		Exchanges: app.NewExchangeService(st.tx, st.repos.Notifications, publisher, log.Named("exchanges")),
		Quizzes:   app.NewQuizService(st.quizRepository(cfg), st.tx, log.Named("quizzes")),
		Hub:       hub,
	}

	gin.SetMode(cfg.Server.Mode)
	api := transport.NewServer(services, m, log.Named("http"), transport.Options{
		CookieName:          cfg.Session.CookieName,
		CookieSecure:        cfg.Session.Secure,
		SessionTTL:          config.TTLDuration(cfg.Session.TTL, 24*time.Hour),
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		StaticDir:           cfg.Server.StaticDir,
		RateLimit:           cfg.RateLimit.Requests,
		RateWindow:          config.TTLDuration(cfg.RateLimit.Window, time.Minute),
		NotificationRefresh: config.TTLDuration(cfg.Notifications.Refresh, 10*time.Second),
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting points exchange service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	case err := <-serverErr:
		return err
	}

	cancel()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}

func sweepSessions(ctx context.Context, st *stores, log *zap.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.memSessions.Sweep(); n > 0 {
				log.Debug("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}
