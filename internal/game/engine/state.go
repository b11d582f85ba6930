package engine

import (
	"slices"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/equivalence"
	"github.com/thraizz/squeeze-server-go/internal/game/threat"
)

// Phase tells the caller who acts next.
type Phase string

const (
	PhaseAwaitUser Phase = "awaitUser"
	PhaseAuto      Phase = "auto"
	PhaseEnd       Phase = "end"
)

// Score counts tricks won per side.
type Score struct {
	NS int `json:"ns"`
	EW int `json:"ew"`
}

// Of returns the tricks won by side.
func (s Score) Of(side cards.Side) int {
	if side == cards.NorthSouth {
		return s.NS
	}
	return s.EW
}

func (s *Score) add(side cards.Side) {
	if side == cards.NorthSouth {
		s.NS++
		return
	}
	s.EW++
}

// ReplayState tracks forcing of a recorded line within a run.
type ReplayState struct {
	Enabled     bool
	Transcript  *Transcript
	Divergence  int
	ForcedClass PolicyClass
	ForcedCard  cards.Card
	// Disabled and DisabledAt record why and at which decision index forcing stopped early.
	Disabled   DisableReason
	DisabledAt int
}

// State is one position of a run. States are never modified after they are
// returned; every transition produces a new State, so older values can be
// kept for undo.
type State struct {
	ProblemID    string
	Strain       cards.Strain
	Deal         cards.Deal
	Leader       cards.Seat
	Turn         cards.Seat
	Trick        []cards.Play
	TrickClasses []equivalence.ClassID
	Tricks       Score
	Phase        Phase
	RNG          RNG
	Goal         Goal

	Users         [4]bool
	Policies      [4]PolicyKind
	Preferred     [4][]cards.Card
	PreferredUsed [4]bool

	// Classification is nil when the problem declares no threat cards.
	Classification *threat.Classification
	Replay         ReplayState

	// Decisions and UserPlays are this run's line so far.
	Decisions []DecisionRecord
	UserPlays []equivalence.ClassID
}

// clone returns a shallow copy. Slices are shared, so every append on the
// copy must go through slices.Clip.
func (s *State) clone() *State {
	c := *s
	return &c
}

// IsUserTurn reports whether the seat to move is user-controlled.
func (s *State) IsUserTurn() bool { return s.Users[s.Turn] }

// LedSuit returns the suit of the first card of the current trick.
func (s *State) LedSuit() (cards.Suit, bool) {
	if len(s.Trick) == 0 {
		return 0, false
	}
	return s.Trick[0].Card.Suit, true
}

// Succeeded reports whether the hand is over and the goal was met.
func (s *State) Succeeded() bool { return s.Phase == PhaseEnd && s.Goal.Met(s.Tricks) }

// DecisionIndex is the index the next defender decision will get.
func (s *State) DecisionIndex() int { return len(s.Decisions) }

// legalCards returns the cards the seat to move may play: any card on the
// lead, otherwise the led suit if held, otherwise anything.
func (s *State) legalCards() []cards.Card {
	if s.Phase == PhaseEnd {
		return nil
	}
	hand := s.Deal[s.Turn]
	if led, ok := s.LedSuit(); ok && !hand[led].Empty() {
		return hand.SuitCards(led)
	}
	return hand.Cards()
}

// Transcript returns the line played so far.
func (s *State) Transcript() Transcript {
	return Transcript{
		ProblemID: s.ProblemID,
		Seed:      s.RNG.Seed,
		Decisions: slices.Clone(s.Decisions),
		UserPlays: slices.Clone(s.UserPlays),
	}
}

// WithForcing returns a copy of s that replays f's line.
func (s *State) WithForcing(f Forcing) *State {
	next := s.clone()
	next.Replay = ReplayState{
		Enabled:     f.Transcript != nil,
		Transcript:  f.Transcript,
		Divergence:  f.Divergence,
		ForcedClass: f.Class,
		ForcedCard:  f.Card,
		DisabledAt:  -1,
	}
	return next
}

func (s *State) disableReplay(reason DisableReason) {
	s.Replay.Enabled = false
	s.Replay.Disabled = reason
	s.Replay.DisabledAt = len(s.Decisions)
}

// EquivalenceClasses returns seat's classes in suit for the current deal.
func (s *State) EquivalenceClasses(seat cards.Seat, suit cards.Suit) []equivalence.Class {
	return equivalence.SuitClasses(s.Deal, seat, suit)
}

// Role returns the teaching role of card.
func (s *State) Role(card cards.Card) threat.Role {
	if s.Classification == nil {
		if len(s.Deal.Holders(card)) > 0 {
			return threat.RoleDefault
		}
		return threat.RoleNone
	}
	return s.Classification.Role(card)
}

// IdleThreatThreshold returns the rank below which defenders may safely play in suit.
func (s *State) IdleThreatThreshold(suit cards.Suit) (cards.Rank, bool) {
	if s.Classification == nil {
		return 0, false
	}
	return s.Classification.IdleThreatThreshold(suit)
}
