package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"diagnostic-lead-service/internal/app"
	"diagnostic-lead-service/internal/catalog"
	"diagnostic-lead-service/internal/config"
	"diagnostic-lead-service/internal/crm"
	"diagnostic-lead-service/internal/infra/memory"
	pgstore "diagnostic-lead-service/internal/infra/postgres"
	redisstore "diagnostic-lead-service/internal/infra/redis"
	"diagnostic-lead-service/internal/logging"
	"diagnostic-lead-service/internal/metrics"
	"diagnostic-lead-service/internal/share"
	transport "diagnostic-lead-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the diagnostic server",
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
	logger := logging.New(serviceName, cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 2*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader, err := quizLoader(pool)
	if err != nil {
		return err
	}

	quizTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	results, closeResults, err := resultStore(cfg, redisClient, redisTTL)
	if err != nil {
		return err
	}
	defer closeResults()

	m := metrics.New("diagnostic")
	leadTimeout := config.Duration(cfg.CRM.Timeout, app.DefaultLeadTimeout)
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithRecorder(m),
		app.WithResultStore(results),
		app.WithLeadTimeout(leadTimeout),
		app.WithShareBuilder(share.NewBuilder(cfg.Share.BaseURL, cfg.Share.From)),
	}
	if cfg.CRM.BaseURL != "" {
		opts = append(opts, app.WithLeadClient(crm.NewClient(cfg.CRM.BaseURL, cfg.CRM.Token, leadTimeout, logger)))
	} else {
		logger.Warn("crm.base_url not set, lead sync disabled")
	}
	service := app.NewDiagnosticService(store, quizRepo, opts...)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, m, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.WithField("port", finalPort).Info("starting diagnostic service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// quizLoader serves definitions from Postgres when configured, else from the embedded catalog.
func quizLoader(pool *pgxpool.Pool) (memory.QuizLoader, error) {
	if pool != nil {
		return pgstore.NewQuizLoader(pool), nil
	}
	defs, err := catalog.Load()
	if err != nil {
		return nil, err
	}
	return memory.NewStaticQuizLoader(defs), nil
}

func resultStore(cfg config.Config, client *redis.Client, ttl time.Duration) (app.ResultStore, func(), error) {
	switch cfg.Results.Backend {
	case "", "memory":
		return memory.NewResultStore(), func() {}, nil
	case "redis":
		if client == nil {
			return nil, nil, fmt.Errorf("results backend redis requires redis.addr")
		}
		return redisstore.NewResultStore(client, ttl), func() {}, nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, nil, fmt.Errorf("results backend postgres requires postgres.url")
		}
		db := openBun(cfg.Postgres.URL)
		return pgstore.NewResultStore(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown results backend %q", cfg.Results.Backend)
	}
}
