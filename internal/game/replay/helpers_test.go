package replay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

// p001User tops every trick and, on the club ace, keeps the major West
// still guards.
func p001User() UserStrategy {
	return UserFunc(func(s *engine.State, legal []cards.Play) cards.Play {
		if s.Turn == cards.North && s.Tricks.NS+s.Tricks.EW == 0 {
			keep := card("S8")
			for _, p := range s.Trick {
				if p.Seat == cards.West && p.Card == card("HA") {
					keep = card("H8")
				}
			}
			for _, p := range legal {
				if p.Card.Suit != cards.Clubs && p.Card != keep && p.Card != card("SA") {
					return p
				}
			}
		}
		best := legal[0]
		for _, p := range legal[1:] {
			if p.Card.Rank > best.Card.Rank {
				best = p
			}
		}
		return best
	})
}

// losingProblem is one trick that East always wins.
func losingProblem() engine.Problem {
	p := engine.Problem{
		ID:        "lose",
		Strain:    cards.NoTrump,
		Leader:    cards.North,
		UserSeats: cards.Seats[:],
		Goal:      engine.Goal{Side: cards.NorthSouth, MinTricks: 1},
		Seed:      7,
	}
	for seat, token := range map[cards.Seat]string{cards.North: "S2", cards.East: "SA", cards.South: "S3", cards.West: "S4"} {
		c := card(token)
		p.Hands[seat][c.Suit] = p.Hands[seat][c.Suit].With(c.Rank)
	}
	return p
}

// playOut drives s to the end of the hand with user.
func playOut(t *testing.T, e *engine.Engine, s *engine.State, user UserStrategy) *engine.State {
	t.Helper()
	s, _ = e.Advance(s)
	for s.Phase != engine.PhaseEnd {
		require.True(t, s.IsUserTurn(), "autoplay halted at %s", s.Turn)
		var events []engine.Event
		s, events = e.Apply(s, user.Choose(s, e.LegalPlays(s)))
		require.NotEmpty(t, events)
		require.NotEqual(t, engine.EventIllegal, events[0].Type, events[0].Message)
	}
	return s
}

func newExplorer(t *testing.T, p engine.Problem, user UserStrategy, opts ...ExplorerOption) *Explorer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewExplorer(engine.New(logger), p, user, logger, opts...)
}

func explore(t *testing.T, x *Explorer) Report {
	t.Helper()
	report, err := x.Explore(context.Background())
	require.NoError(t, err)
	return report
}
