package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quizbot/internal/app"
	"quizbot/internal/catalog"
	"quizbot/internal/config"
	filestore "quizbot/internal/infra/file"
	pginfra "quizbot/internal/infra/postgres"
	redisinfra "quizbot/internal/infra/redis"
	"quizbot/internal/logging"
	"quizbot/internal/transport/ws"
)

// NewStartCmd builds the CLI subcommand to start the service.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// Catalog and score store share a backend when Postgres is configured;
	// Redis covers scores only; the flat-file pair is the standalone default.
	var (
		cat   *catalog.Catalog
		store app.ScoreStore
	)
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		raw, err := pginfra.NewCatalogLoader(pool).Load(ctx)
		if err != nil {
			return err
		}
		cat, err = catalog.New(raw)
		if err != nil {
			return err
		}

		db := openBun(cfg.Postgres.URL)
		defer db.Close()
		store = pginfra.NewScoreStore(db)
		logger.Info().Msg("using postgres-backed catalog and score store")

	case cfg.Redis.Addr != "":
		cat, err = catalog.LoadFile(cfg.Questions.File)
		if err != nil {
			return err
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		store = redisinfra.NewScoreStore(client)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("using redis-backed score store")

	default:
		cat, err = catalog.LoadFile(cfg.Questions.File)
		if err != nil {
			return err
		}
		store, err = filestore.Open(cfg.Scores.File)
		if err != nil {
			return err
		}
		logger.Info().Str("file", cfg.Scores.File).Msg("using file-backed score store")
	}

	window := config.Duration(cfg.Quiz.AnswerWindow, app.DefaultAnswerWindow)
	registry := ws.NewRegistry(logger)
	service := app.NewQuizService(cat, store, registry, window, logger)
	gateway := ws.NewGateway(service, store, registry, cfg.Quiz.PageSize, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", gateway.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", finalPort).Int("categories", len(cat.Categories())).Msg("quiz service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-stop:
			logger.Info().Msg("shutdown signal received")
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
