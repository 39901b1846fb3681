package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"blindtest-service/internal/app"
	"blindtest-service/internal/config"
	"blindtest-service/internal/domain"
	"blindtest-service/internal/game"
	"blindtest-service/internal/infra/memory"
	pgstore "blindtest-service/internal/infra/postgres"
	redisrepo "blindtest-service/internal/infra/redis"
	transport "blindtest-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var catalog app.QuizCatalog
	var loader memory.QuizLoader
	memStore := memory.NewQuizStore(sampleQuizzes())
	catalog, loader = memStore, memStore
	if pool != nil {
		pgQuizzes := pgstore.NewQuizStore(pool)
		catalog, loader = pgQuizzes, pgQuizzes
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisrepo.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	registry := game.NewRegistry(clockwork.NewRealClock(), game.Config{
		MaxPlayers: cfg.Game.MaxPlayers,
		Scoring: game.ScoringRules{
			BasePoints: cfg.Game.BasePoints,
			MinPoints:  cfg.Game.MinPoints,
		},
		RevealDelay: config.TTLDuration(cfg.Game.RevealDelay, 5*time.Second),
		GracePeriod: config.TTLDuration(cfg.Game.GracePeriod, 5*time.Minute),
		MaxSessions: cfg.Game.MaxSessions,
	})

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	registry.StartJanitor(janitorCtx)

	service := app.NewService(registry, quizRepo, catalog)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting blindtest service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the in-memory store so the service is playable with no
// database configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warmup",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Type:          domain.MultipleChoice,
					AudioRef:      "dQw4w9WgXcQ",
					Options:       []string{"Take On Me", "Never Gonna Give You Up", "Africa"},
					CorrectAnswer: "Never Gonna Give You Up",
					Duration:      10,
				},
				{
					ID:            "q2",
					Type:          domain.FreeText,
					AudioRef:      "hTWKbfoikeg",
					CorrectAnswer: "Smells Like Teen Spirit",
					Duration:      15,
				},
			},
			CreatedAt: time.Now().UTC(),
		},
	}
}
