// Package engine runs a trick-taking deal: legal plays, trick resolution,
// scoring and goal evaluation, with non-user seats played by autoplay
// policies. Replay forcing lets a run reproduce a recorded defensive line
// and branch from it at one decision.
package engine

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/equivalence"
	"github.com/thraizz/squeeze-server-go/internal/game/threat"
)

// Engine applies plays to states. It holds no game state of its own and is
// safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

// New creates an engine.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Init builds the starting state of p. It fails on a malformed deal,
// misdeclared threat cards, or a threat-aware policy with no threats.
// Init does not autoplay; call Advance when the first seat is not a user seat.
func (e *Engine) Init(p Problem) (*State, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &State{
		ProblemID: p.ID,
		Strain:    p.Strain,
		Deal:      p.Hands,
		Leader:    p.Leader,
		Turn:      p.Leader,
		Goal:      p.Goal,
		RNG:       NewRNG(p.Seed),
		Replay:    ReplayState{Divergence: -1, DisabledAt: -1},
	}
	if len(p.Threats) > 0 {
		c, err := threat.New(p.Hands, p.Threats)
		if err != nil {
			return nil, fmt.Errorf("problem %s: %w", p.ID, err)
		}
		s.Classification = c
	}
	for _, seat := range p.UserSeats {
		s.Users[seat] = true
	}
	for seat, kind := range p.Policies {
		s.Policies[seat] = kind
	}
	for seat, preferred := range p.PreferredDiscards {
		s.Preferred[seat] = slices.Clone(preferred)
	}

	switch {
	case s.Deal.Empty():
		s.Phase = PhaseEnd
	case s.IsUserTurn():
		s.Phase = PhaseAwaitUser
	default:
		s.Phase = PhaseAuto
	}

	e.logger.Debug("initialized problem",
		zap.String("problem_id", p.ID),
		zap.Uint32("seed", p.Seed),
		zap.String("strain", p.Strain.String()),
		zap.String("leader", p.Leader.String()),
		zap.Int("threats", len(p.Threats)),
	)
	return s, nil
}

// LegalPlays returns the plays available to the seat to move, in suit and
// rank order. It is empty once the hand is over.
func (e *Engine) LegalPlays(s *State) []cards.Play {
	legal := s.legalCards()
	out := make([]cards.Play, len(legal))
	for i, c := range legal {
		out[i] = cards.Play{Seat: s.Turn, Card: c}
	}
	return out
}

// Apply plays one card, then autoplays non-user seats until a user seat is
// to move, the hand ends, or autoplay fails. An illegal play returns s
// unchanged with a single illegal event.
func (e *Engine) Apply(s *State, play cards.Play) (*State, []Event) {
	if s.Phase == PhaseEnd {
		return s, []Event{illegal(ReasonHandComplete, "hand already complete")}
	}
	if play.Seat != s.Turn {
		return s, []Event{illegal(ReasonWrongSeat, "expected %s to play, got %s", s.Turn, play.Seat)}
	}
	if !slices.Contains(s.legalCards(), play.Card) {
		return s, []Event{illegal(ReasonIllegalCard, "illegal play %s", play)}
	}

	next := s.clone()
	ev := Event{Type: EventPlayed, Play: &play}
	if next.Users[play.Seat] {
		class := equivalence.ClassOf(next.Deal, play.Seat, play.Card).ID()
		if next.Replay.Enabled {
			ev.Replay = e.checkUserPlay(next, class)
		}
		next.UserPlays = append(slices.Clip(next.UserPlays), class)
	}

	events := e.commit(next, ev)
	events = append(events, e.autoplayLoop(next)...)
	return next, events
}

// Advance autoplays from s until a user seat is to move. It returns s
// unchanged when no autoplay is due.
func (e *Engine) Advance(s *State) (*State, []Event) {
	if s.Phase == PhaseEnd || s.IsUserTurn() {
		return s, nil
	}
	next := s.clone()
	return next, e.autoplayLoop(next)
}

// checkUserPlay disables forcing when the user leaves the recorded line.
func (e *Engine) checkUserPlay(s *State, class equivalence.ClassID) *ReplayOutcome {
	pos := len(s.UserPlays)
	recorded := s.Replay.Transcript.UserPlays
	if pos >= len(recorded) || recorded[pos] == class {
		return nil
	}
	s.disableReplay(DisableUserDiverged)
	e.logger.Info("user diverged from recorded line; forcing disabled",
		zap.String("problem_id", s.ProblemID),
		zap.Int("user_play", pos),
		zap.Int("decision_index", len(s.Decisions)),
		zap.String("expected_class", recorded[pos].String()),
		zap.String("actual_class", class.String()),
	)
	return &ReplayOutcome{Action: ReplayDisabled, Index: len(s.Decisions), Reason: DisableUserDiverged}
}

// autoplayLoop plays non-user seats on s in place. s must be a fresh clone.
func (e *Engine) autoplayLoop(s *State) []Event {
	var events []Event
	for s.Phase != PhaseEnd && !s.IsUserTurn() {
		s.Phase = PhaseAuto
		ev, ok := e.autoplay(s)
		if !ok {
			e.logger.Debug("autoplay halted",
				zap.String("problem_id", s.ProblemID),
				zap.String("seat", s.Turn.String()),
				zap.String("reason", string(ev.Reason)),
			)
			return append(events, ev)
		}
		events = append(events, e.commit(s, ev)...)
	}
	if s.Phase != PhaseEnd {
		s.Phase = PhaseAwaitUser
	}
	return events
}

// commit removes the played card from its hand, appends it to the trick and
// settles the trick on its fourth card. s must be a fresh clone.
func (e *Engine) commit(s *State, ev Event) []Event {
	play := *ev.Play
	class := equivalence.ClassOf(s.Deal, play.Seat, play.Card).ID()
	ev.Class = &class

	s.Deal = s.Deal.Without(play.Seat, play.Card)
	s.Trick = append(slices.Clip(s.Trick), play)
	s.TrickClasses = append(slices.Clip(s.TrickClasses), class)
	if s.Classification != nil {
		s.Classification = s.Classification.Update(s.Deal, play.Card)
	}
	events := []Event{ev}

	if len(s.Trick) < len(cards.Seats) {
		s.Turn = s.Turn.Next()
		return events
	}

	winner := trickWinner(s.Trick, s.Strain)
	s.Tricks.add(winner.Side())
	events = append(events, Event{
		Type:  EventTrickComplete,
		Trick: &TrickResult{Winner: winner, Plays: s.Trick},
	})
	s.Trick = nil
	s.TrickClasses = nil
	s.Leader = winner
	s.Turn = winner

	if s.Deal.Empty() {
		s.Phase = PhaseEnd
		success := s.Goal.Met(s.Tricks)
		events = append(events, Event{
			Type: EventHandComplete,
			Hand: &HandResult{Success: success, Tricks: s.Tricks},
		})
		e.logger.Debug("hand complete",
			zap.String("problem_id", s.ProblemID),
			zap.Bool("success", success),
			zap.Int("ns", s.Tricks.NS),
			zap.Int("ew", s.Tricks.EW),
		)
	}
	return events
}

// trickWinner returns the seat of the highest trump, or of the highest card
// of the led suit when no trump was played.
func trickWinner(trick []cards.Play, strain cards.Strain) cards.Seat {
	trump, hasTrump := strain.Trump()
	isTrump := func(c cards.Card) bool { return hasTrump && c.Suit == trump }

	best := trick[0]
	for _, p := range trick[1:] {
		switch {
		case isTrump(p.Card) && !isTrump(best.Card):
			best = p
		case p.Card.Suit == best.Card.Suit && p.Card.Rank > best.Card.Rank:
			best = p
		}
	}
	return best.Seat
}
