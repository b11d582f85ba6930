// Command explore plays a problem headlessly until every branchable
// defensive decision has been covered, and prints the run report as JSON.
package main

import (
	"context"
	"encoding/json"
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
)

var (
	configPath  = flag.String("config", "config/config.yaml", "path to configuration file")
	problemPath = flag.String("problem", "", "problem file to explore")
	strategy    = flag.String("strategy", "line", "user strategy: line (scripted user line) or first (first legal card)")
	resume      = flag.Bool("resume", false, "resume from, and save to, the file transcript store")
	maxPasses   = flag.Int("max-passes", 0, "cap on forced passes; 0 uses the configured value")
)

func main() {
	flag.Parse()
	if *problemPath == "" {
		fmt.Fprintln(os.Stderr, "usage: explore -problem <file> [-strategy line|first] [-resume]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("exploration failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	p, err := engine.LoadProblem(*problemPath)
	if err != nil {
		return err
	}

	var user replay.UserStrategy
	switch *strategy {
	case "line":
		user = replay.Scripted(p.UserLine)
	case "first":
		user = replay.FirstLegal
	default:
		return fmt.Errorf("unknown strategy %q", *strategy)
	}

	passes := cfg.Replay.MaxPasses
	if *maxPasses > 0 {
		passes = *maxPasses
	}
	opts := []replay.ExplorerOption{replay.WithMaxPasses(passes)}
	if *resume {
		opts = append(opts, replay.WithStore(replay.NewFileStore(cfg.Replay.Directory, logger)))
	}

	x := replay.NewExplorer(engine.New(logger), p, user, logger, opts...)
	report, err := x.Explore(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
