package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-hub/internal/app"
	"quiz-hub/internal/config"
	"quiz-hub/internal/infra/memory"
	"quiz-hub/internal/infra/postgres"
	"quiz-hub/internal/logger"
	redisstore "quiz-hub/internal/infra/redis"
	"quiz-hub/internal/metrics"
	transport "quiz-hub/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(log *zap.Logger, configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), log, *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, log *zap.Logger, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Log.Env != "" {
		l, err := logger.New(cfg.Log.Env)
		if err != nil {
			return err
		}
		defer func() { _ = l.Sync() }()
		log = l
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	gameTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, log, cfg); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.ContentLoader
	if pool != nil {
		loader = postgres.NewContentLoader(pool)
	} else {
		pack, err := memory.ReadContentPack(cfg.Content.Path)
		if err != nil {
			return err
		}
		static, err := memory.NewStaticContentLoader(pack)
		if err != nil {
			return err
		}
		loader = static
		log.Info("serving static content pack",
			zap.String("path", cfg.Content.Path),
			zap.Int("levels", len(pack.Levels)),
			zap.Int("challenges", len(pack.Challenges)),
		)
	}

	var (
		content  app.ContentRepository
		games    app.GameStore
		profiles app.ProfileStore
	)
	if redisClient != nil {
		content = redisstore.NewContentRepository(redisClient, loader, contentTTL)
		games = redisstore.NewGameStore(redisClient, gameTTL)
	} else {
		content = memory.NewContentRepository(loader, contentTTL)
		games = memory.NewGameStore()
	}
	switch {
	case pool != nil:
		profiles = postgres.NewProfileStore(pool)
	case redisClient != nil:
		profiles = redisstore.NewProfileStore(redisClient)
	default:
		profiles = memory.NewProfileStore()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	service := app.NewGameService(content, games, profiles,
		app.WithTuning(cfg.Tuning),
		app.WithLogger(log),
		app.WithMetrics(m),
	)
	wsHandler := transport.NewWSHandler(service, log, m)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz server", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
