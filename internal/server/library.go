package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
	"github.com/thraizz/squeeze-server-go/internal/game/replay"
)

// ErrUnknownProblem is returned for a problem id the library does not hold.
var ErrUnknownProblem = errors.New("unknown problem")

// ProblemInfo describes a problem without revealing its deal.
type ProblemInfo struct {
	ID        string       `json:"id"`
	Strain    cards.Strain `json:"strain"`
	Leader    cards.Seat   `json:"leader"`
	UserSeats []cards.Seat `json:"userSeats"`
	Goal      engine.Goal  `json:"goal"`
	Tricks    int          `json:"tricks"`
}

// Library holds the playable problems and one coverage tracker per problem,
// shared by every session playing it.
type Library struct {
	engine   *engine.Engine
	problems map[string]engine.Problem
	ids      []string
	store    replay.TranscriptStore
	logger   *zap.Logger

	mu       sync.Mutex
	trackers map[string]*replay.Tracker
}

// NewLibrary creates a library over problems. store may be nil.
func NewLibrary(e *engine.Engine, problems []engine.Problem, store replay.TranscriptStore, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Library{
		engine:   e,
		problems: make(map[string]engine.Problem, len(problems)),
		store:    store,
		logger:   logger,
		trackers: make(map[string]*replay.Tracker),
	}
	for _, p := range problems {
		l.problems[p.ID] = p
		l.ids = append(l.ids, p.ID)
	}
	slices.Sort(l.ids)
	return l
}

// Problems lists every problem, ordered by id.
func (l *Library) Problems() []ProblemInfo {
	infos := make([]ProblemInfo, 0, len(l.ids))
	for _, id := range l.ids {
		p := l.problems[id]
		infos = append(infos, ProblemInfo{
			ID:        p.ID,
			Strain:    p.Strain,
			Leader:    p.Leader,
			UserSeats: p.UserSeats,
			Goal:      p.Goal,
			Tricks:    p.Hands[cards.North].Len(),
		})
	}
	return infos
}

// Problem returns the problem with id.
func (l *Library) Problem(id string) (engine.Problem, bool) {
	p, ok := l.problems[id]
	return p, ok
}

// Tracker returns the tracker of problem id, creating it on first use and
// seeding it from the store when a transcript was saved earlier.
func (l *Library) Tracker(ctx context.Context, id string) (*replay.Tracker, error) {
	if _, ok := l.problems[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProblem, id)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.trackers[id]; ok {
		return t, nil
	}

	t := replay.NewTracker(id, l.logger)
	if l.store != nil {
		tr, err := l.store.Latest(ctx, id)
		switch {
		case errors.Is(err, replay.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("failed to load transcript: %w", err)
		default:
			if err := t.Restore(tr); err != nil {
				return nil, err
			}
			l.logger.Info("restored tracker from store",
				zap.String("problem_id", id),
				zap.String("transcript_id", tr.ID),
			)
		}
	}
	l.trackers[id] = t
	return t, nil
}

// NewSession creates a session for problem id. The session is not started.
func (l *Library) NewSession(ctx context.Context, id string) (*Session, error) {
	t, err := l.Tracker(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSession(l.engine, l.problems[id], t, l.store, l.logger), nil
}
