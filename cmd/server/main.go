package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/config"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
	"github.com/thraizz/squeeze-server-go/internal/game/replay"
	"github.com/thraizz/squeeze-server-go/internal/logging"
	"github.com/thraizz/squeeze-server-go/internal/repository/postgres"
	"github.com/thraizz/squeeze-server-go/internal/repository/redis"
	"github.com/thraizz/squeeze-server-go/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting squeeze server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that is cancelled on termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	problems, err := engine.LoadProblems(cfg.Problems.Directory)
	if err != nil {
		logger.Fatal("failed to load problems", zap.Error(err))
	}
	logger.Info("problem library loaded",
		zap.String("directory", cfg.Problems.Directory),
		zap.Int("problems", len(problems)),
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open transcript store", zap.Error(err))
	}
	defer closeStore()

	eng := engine.New(logger)
	library := server.NewLibrary(eng, problems, store, logger)
	srv := server.New(cfg.Server, library, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("WebSocket server error", zap.Error(err))
	}
	logger.Info("squeeze server stopped")
}

// openStore selects the transcript store named by replay.store.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (replay.TranscriptStore, func(), error) {
	switch cfg.Replay.Store {
	case "file":
		logger.Info("using file transcript store", zap.String("directory", cfg.Replay.Directory))
		return replay.NewFileStore(cfg.Replay.Directory, logger), func() {}, nil
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.ConnectTimeout)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		stats := pool.Stat()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)
		return postgres.NewTranscriptRepo(pool, logger), pool.Close, nil
	case "redis":
		client, err := redis.NewClient(ctx, cfg.Redis.URL, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis transcript store")
		return client, func() { client.Close() }, nil
	default:
		logger.Warn("transcript persistence disabled")
		return nil, func() {}, nil
	}
}
