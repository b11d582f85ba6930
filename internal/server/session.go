package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
	"github.com/thraizz/squeeze-server-go/internal/game/replay"
)

var (
	// ErrNotStarted is returned by operations that need a run in progress.
	ErrNotStarted = errors.New("session not started")
	// ErrNothingToUndo is returned by Undo before the first user play.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// Session is one player's run through a problem.
type Session struct {
	ID string

	engine  *engine.Engine
	problem engine.Problem
	tracker *replay.Tracker
	store   replay.TranscriptStore
	logger  *zap.Logger

	mu      sync.Mutex
	state   *engine.State
	history *replay.History
	pass    int
}

func newSession(e *engine.Engine, p engine.Problem, t *replay.Tracker, store replay.TranscriptStore, logger *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:      id,
		engine:  e,
		problem: p,
		tracker: t,
		store:   store,
		logger:  logger.With(zap.String("session_id", id), zap.String("problem_id", p.ID)),
		history: replay.NewHistory(),
	}
}

// Snapshot is what a client sees after every operation.
type Snapshot struct {
	SessionID string         `json:"sessionId"`
	ProblemID string         `json:"problemId"`
	Pass      int            `json:"pass"`
	Phase     engine.Phase   `json:"phase"`
	Strain    cards.Strain   `json:"strain"`
	Turn      cards.Seat     `json:"turn"`
	Trick     []cards.Play   `json:"trick"`
	Tricks    engine.Score   `json:"tricks"`
	Goal      engine.Goal    `json:"goal"`
	Hands     []HandView     `json:"hands"`
	Legal     []cards.Play   `json:"legal"`
	Replay    ReplayView     `json:"replay"`
	CanUndo   bool           `json:"canUndo"`
	Events    []engine.Event `json:"events"`
	Result    *Result        `json:"result,omitempty"`
}

// HandView is one seat's remaining cards with their teaching roles.
type HandView struct {
	Seat  cards.Seat `json:"seat"`
	User  bool       `json:"user"`
	Cards []CardView `json:"cards"`
}

// CardView pairs a card with its role.
type CardView struct {
	Card cards.Card `json:"card"`
	Role string     `json:"role"`
}

// ReplayView reports forcing of the current run.
type ReplayView struct {
	Forced     bool                 `json:"forced"`
	Enabled    bool                 `json:"enabled"`
	Divergence int                  `json:"divergence"`
	Class      string               `json:"class,omitempty"`
	Disabled   engine.DisableReason `json:"disabled,omitempty"`
}

// Result is attached to the snapshot that ends a run.
type Result struct {
	Success      bool   `json:"success"`
	Retained     bool   `json:"retained"`
	TranscriptID string `json:"transcriptId"`
	Exhausted    bool   `json:"exhausted"`
	Runs         int    `json:"runs"`
}

// Start begins an unforced run.
func (s *Session) Start(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begin(ctx, nil)
}

// PlayAgain begins the next coverage pass. When the tracker has nothing
// left to force the run is unforced and the snapshot reports exhaustion.
func (s *Session) PlayAgain(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.tracker.Plan()
	if !ok {
		snap, err := s.begin(ctx, nil)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Result = &Result{Exhausted: true, Runs: s.tracker.Runs()}
		return snap, nil
	}
	return s.begin(ctx, &f)
}

func (s *Session) begin(ctx context.Context, f *engine.Forcing) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	p := s.problem
	if f != nil {
		p.Seed = f.Transcript.Seed
	}
	state, err := s.engine.Init(p)
	if err != nil {
		return Snapshot{}, err
	}
	if f != nil {
		state = state.WithForcing(*f)
		s.pass++
	} else {
		s.pass = 0
	}
	state, events := s.engine.Advance(state)
	s.state = state
	s.history.Reset()

	s.logger.Info("run started",
		zap.Int("pass", s.pass),
		zap.Bool("forced", f != nil),
	)
	return s.finish(ctx, events)
}

// Play plays card from the seat to move. Illegal plays leave the run
// unchanged and come back as an illegal event.
func (s *Session) Play(ctx context.Context, card cards.Card) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return Snapshot{}, ErrNotStarted
	}
	before := s.state
	next, events := s.engine.Apply(before, cards.Play{Seat: before.Turn, Card: card})
	if len(events) > 0 && events[0].Type == engine.EventIllegal {
		return s.snapshot(events), nil
	}
	s.history.Push(before)
	s.state = next
	return s.finish(ctx, events)
}

// Undo rewinds to the state before the last user play, dropping every
// decision and user play recorded after it.
func (s *Session) Undo() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return Snapshot{}, ErrNotStarted
	}
	prev, ok := s.history.Undo()
	if !ok {
		return Snapshot{}, ErrNothingToUndo
	}
	s.state = prev
	s.logger.Debug("undo",
		zap.Int("user_plays", len(prev.UserPlays)),
		zap.Int("decisions", len(prev.Decisions)),
	)
	return s.snapshot(nil), nil
}

// Legal returns the legal plays of the seat to move.
func (s *Session) Legal() ([]cards.Play, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, ErrNotStarted
	}
	return s.engine.LegalPlays(s.state), nil
}

// finish records a completed run with the tracker and builds the snapshot.
func (s *Session) finish(ctx context.Context, events []engine.Event) (Snapshot, error) {
	snap := s.snapshot(events)
	if s.state.Phase != engine.PhaseEnd {
		return snap, nil
	}

	tr, retained, err := s.tracker.Record(s.state)
	if err != nil {
		return Snapshot{}, err
	}
	if retained && s.store != nil {
		if err := s.store.Save(ctx, tr); err != nil {
			return Snapshot{}, fmt.Errorf("failed to save transcript: %w", err)
		}
	}
	snap.Result = &Result{
		Success:      s.state.Succeeded(),
		Retained:     retained,
		TranscriptID: tr.ID,
		Exhausted:    s.tracker.Exhausted(),
		Runs:         s.tracker.Runs(),
	}
	s.logger.Info("run finished",
		zap.Bool("success", snap.Result.Success),
		zap.Bool("retained", retained),
		zap.Bool("exhausted", snap.Result.Exhausted),
	)
	return snap, nil
}

func (s *Session) snapshot(events []engine.Event) Snapshot {
	st := s.state
	snap := Snapshot{
		SessionID: s.ID,
		ProblemID: st.ProblemID,
		Pass:      s.pass,
		Phase:     st.Phase,
		Strain:    st.Strain,
		Turn:      st.Turn,
		Trick:     st.Trick,
		Tricks:    st.Tricks,
		Goal:      st.Goal,
		Legal:     s.engine.LegalPlays(st),
		CanUndo:   s.history.Len() > 0,
		Events:    events,
		Replay: ReplayView{
			Forced:     st.Replay.Transcript != nil,
			Enabled:    st.Replay.Enabled,
			Divergence: st.Replay.Divergence,
			Disabled:   st.Replay.Disabled,
		},
	}
	if st.Replay.Transcript != nil && st.Replay.Divergence >= 0 {
		snap.Replay.Class = st.Replay.ForcedClass.String()
	}
	for _, seat := range cards.Seats {
		hv := HandView{Seat: seat, User: st.Users[seat]}
		for _, c := range st.Deal[seat].Cards() {
			hv.Cards = append(hv.Cards, CardView{Card: c, Role: st.Role(c).String()})
		}
		snap.Hands = append(snap.Hands, hv)
	}
	return snap
}
