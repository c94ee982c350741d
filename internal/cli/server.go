package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizboard-service/internal/app"
	"quizboard-service/internal/config"
	"quizboard-service/internal/domain"
	"quizboard-service/internal/infra/memory"
	inframongo "quizboard-service/internal/infra/mongo"
	infrapg "quizboard-service/internal/infra/postgres"
	infraredis "quizboard-service/internal/infra/redis"
	transport "quizboard-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz board server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	weights := domain.DefaultPopularityWeights
	if cfg.Popularity.AttemptsWeight != 0 || cfg.Popularity.PercentageWeight != 0 {
		weights = domain.PopularityWeights{
			Attempts:   cfg.Popularity.AttemptsWeight,
			Percentage: cfg.Popularity.PercentageWeight,
		}
	}

	var quizzes app.QuizRepository
	var attempts app.AttemptRepository
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		quizzes = infrapg.NewQuizStore(pool)

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		attempts = infrapg.NewAttemptStore(db)
	} else {
		log.Printf("postgres not configured, using in-memory stores")
		quizzes = memory.NewQuizStore()
		attempts = memory.NewAttemptStore()
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
		quizzes = infraredis.NewQuizCache(redisClient, quizzes, quizTTL)
	}

	var engagement app.EngagementRepository
	if cfg.Mongo.URL != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URL))
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()
		dbName := cfg.Mongo.Database
		if dbName == "" {
			dbName = "quiz_analytics"
		}
		store := inframongo.NewEngagementStore(client.Database(dbName), weights)
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		engagement = store
	} else {
		log.Printf("mongo not configured, using in-memory engagement store")
		engagement = memory.NewEngagementStore(weights)
	}

	service := app.NewQuizService(quizzes, attempts, engagement)
	handler := transport.NewHandler(service)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz board service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
