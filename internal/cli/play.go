package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Lirbo/trivia-game/internal/app"
	"github.com/Lirbo/trivia-game/internal/config"
	"github.com/Lirbo/trivia-game/internal/domain"
	"github.com/Lirbo/trivia-game/internal/infra/memory"
	pgstore "github.com/Lirbo/trivia-game/internal/infra/postgres"
	redisstats "github.com/Lirbo/trivia-game/internal/infra/redis"
	"github.com/Lirbo/trivia-game/internal/tui"
)

// NewPlayCmd builds the CLI subcommand that runs the terminal game.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Run the trivia game in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGame(cmd.Context(), *configPath)
		},
	}
}

func runGame(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store app.Store
	var stats app.StatsStore
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewStore(pool)
		stats = pgstore.NewStatsStore(pool)
	} else {
		log.Printf("postgres url not configured, running with an in-memory store")
		mem := memory.NewStore()
		seedQuestions(ctx, mem)
		store = mem
		stats = mem
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		statsTTL := config.TTLDuration(cfg.Stats.TTL, 30*time.Second)
		stats = redisstats.NewStatsCache(client, stats, statsTTL)
	}

	service := app.NewGameService(store, stats)
	if err := service.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return err
	}

	controller := tui.NewController(service, os.Stdin, os.Stdout)
	return controller.Run(ctx)
}

// seedQuestions gives the in-memory fallback something to play with.
func seedQuestions(ctx context.Context, store *memory.Store) {
	questions := []domain.Question{
		{
			Text:          "What is the capital of France?",
			Options:       [4]string{"Berlin", "Paris", "Madrid", "Rome"},
			CorrectChoice: 2,
		},
		{
			Text:          "Which planet is known as the Red Planet?",
			Options:       [4]string{"Mars", "Venus", "Jupiter", "Saturn"},
			CorrectChoice: 1,
		},
		{
			Text:          "What is 7 x 8?",
			Options:       [4]string{"54", "49", "56", "63"},
			CorrectChoice: 3,
		},
	}
	for _, question := range questions {
		if _, err := store.CreateQuestion(ctx, question); err != nil {
			log.Printf("seed question: %v", err)
		}
	}
}
