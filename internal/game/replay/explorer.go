package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

var (
	// ErrRunHalted is returned when autoplay stops before the hand is over.
	ErrRunHalted = errors.New("run halted")
	// ErrIllegalUserPlay is returned when a user strategy picks an illegal card.
	ErrIllegalUserPlay = errors.New("illegal user play")
)

// DefaultMaxPasses caps the forced passes of one exploration.
const DefaultMaxPasses = 64

// Run is the outcome of one headless run.
type Run struct {
	ID   string `json:"id"`
	Pass int    `json:"pass"`
	// Divergence is the forced decision index, or -1 for the baseline run.
	Divergence  int                  `json:"divergence"`
	ForcedClass *engine.PolicyClass  `json:"forcedClass,omitempty"`
	Success     bool                 `json:"success"`
	Tricks      engine.Score         `json:"tricks"`
	Retained    bool                 `json:"retained"`
	Disabled    engine.DisableReason `json:"disabled,omitempty"`
	Checksum    Checksum             `json:"checksum"`
	Transcript  engine.Transcript    `json:"transcript"`
}

// Report summarizes an exploration.
type Report struct {
	ProblemID string `json:"problemId"`
	Runs      []Run  `json:"runs"`
	Exhausted bool   `json:"exhausted"`
}

// Successes counts the successful runs.
func (r Report) Successes() int {
	n := 0
	for _, run := range r.Runs {
		if run.Success {
			n++
		}
	}
	return n
}

// Explorer plays a problem repeatedly, forcing a new defensive branch on
// every pass until coverage is exhausted.
type Explorer struct {
	engine    *engine.Engine
	problem   engine.Problem
	user      UserStrategy
	tracker   *Tracker
	store     TranscriptStore
	maxPasses int
	logger    *zap.Logger
}

// ExplorerOption configures an Explorer.
type ExplorerOption func(*Explorer)

// WithStore saves every retained transcript to store and resumes from the
// stored transcript when exploration starts.
func WithStore(store TranscriptStore) ExplorerOption {
	return func(x *Explorer) { x.store = store }
}

// WithMaxPasses caps the forced passes. Values below one keep the default.
func WithMaxPasses(n int) ExplorerOption {
	return func(x *Explorer) {
		if n > 0 {
			x.maxPasses = n
		}
	}
}

// NewExplorer creates an explorer for p.
func NewExplorer(e *engine.Engine, p engine.Problem, user UserStrategy, logger *zap.Logger, opts ...ExplorerOption) *Explorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	x := &Explorer{
		engine:    e,
		problem:   p,
		user:      user,
		tracker:   NewTracker(p.ID, logger),
		maxPasses: DefaultMaxPasses,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Tracker returns the explorer's coverage tracker.
func (x *Explorer) Tracker() *Tracker { return x.tracker }

// Play runs the problem once, under f when it is non-nil, and records the
// result with the tracker.
func (x *Explorer) Play(ctx context.Context, f *engine.Forcing) (Run, error) {
	p := x.problem
	run := Run{ID: uuid.NewString(), Divergence: -1}
	if f != nil && f.Transcript != nil {
		p.Seed = f.Transcript.Seed
		run.Divergence = f.Divergence
		class := f.Class
		run.ForcedClass = &class
	}

	s, err := x.engine.Init(p)
	if err != nil {
		return Run{}, err
	}
	if f != nil {
		s = s.WithForcing(*f)
	}

	var events []engine.Event
	s, step := x.engine.Advance(s)
	events = append(events, step...)
	for s.Phase != engine.PhaseEnd {
		if err := ctx.Err(); err != nil {
			return Run{}, err
		}
		if !s.IsUserTurn() {
			return Run{}, fmt.Errorf("%w: %s", ErrRunHalted, lastMessage(events))
		}
		play := x.user.Choose(s, x.engine.LegalPlays(s))
		s, step = x.engine.Apply(s, play)
		if len(step) > 0 && step[0].Type == engine.EventIllegal {
			return Run{}, fmt.Errorf("%w: %s", ErrIllegalUserPlay, step[0].Message)
		}
		events = append(events, step...)
	}

	tr, retained, err := x.tracker.Record(s)
	if err != nil {
		return Run{}, err
	}
	sum, err := ComputeChecksum(events)
	if err != nil {
		return Run{}, err
	}
	run.Success = s.Succeeded()
	run.Tricks = s.Tricks
	run.Retained = retained
	run.Disabled = s.Replay.Disabled
	run.Checksum = sum
	run.Transcript = tr

	if retained && x.store != nil {
		if err := x.store.Save(ctx, tr); err != nil {
			return Run{}, fmt.Errorf("failed to save transcript: %w", err)
		}
	}

	x.logger.Info("run complete",
		zap.String("problem_id", p.ID),
		zap.String("run_id", run.ID),
		zap.Int("divergence", run.Divergence),
		zap.Bool("success", run.Success),
		zap.Bool("retained", run.Retained),
		zap.String("checksum", sum.String()),
	)
	return run, nil
}

func lastMessage(events []engine.Event) string {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == engine.EventIllegal {
			return events[i].Message
		}
	}
	return "no user seat to move"
}

// Explore plays the baseline run, unless a stored transcript resumes an
// earlier exploration, then forced passes until coverage is exhausted or
// the pass cap is reached.
func (x *Explorer) Explore(ctx context.Context) (Report, error) {
	report := Report{ProblemID: x.problem.ID}

	resumed, err := x.resume(ctx)
	if err != nil {
		return report, err
	}
	if !resumed {
		run, err := x.Play(ctx, nil)
		if err != nil {
			return report, err
		}
		report.Runs = append(report.Runs, run)
	}

	for pass := 1; pass <= x.maxPasses; pass++ {
		f, ok := x.tracker.Plan()
		if !ok {
			break
		}
		run, err := x.Play(ctx, &f)
		if err != nil {
			return report, err
		}
		run.Pass = pass
		report.Runs = append(report.Runs, run)
	}
	report.Exhausted = x.tracker.Exhausted()

	x.logger.Info("exploration finished",
		zap.String("problem_id", x.problem.ID),
		zap.Int("runs", len(report.Runs)),
		zap.Int("successes", report.Successes()),
		zap.Bool("exhausted", report.Exhausted),
	)
	return report, nil
}

func (x *Explorer) resume(ctx context.Context) (bool, error) {
	if x.store == nil {
		return false, nil
	}
	tr, err := x.store.Latest(ctx, x.problem.ID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load transcript: %w", err)
	}
	if err := x.tracker.Restore(tr); err != nil {
		return false, err
	}
	x.logger.Info("resumed exploration from stored transcript",
		zap.String("problem_id", x.problem.ID),
		zap.String("transcript_id", tr.ID),
	)
	return true, nil
}
