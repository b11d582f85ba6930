package replay

import (
	"slices"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

// UserStrategy plays the user seats in headless runs. legal is never empty.
type UserStrategy interface {
	Choose(s *engine.State, legal []cards.Play) cards.Play
}

// UserFunc adapts a function to UserStrategy.
type UserFunc func(s *engine.State, legal []cards.Play) cards.Play

// Choose calls f.
func (f UserFunc) Choose(s *engine.State, legal []cards.Play) cards.Play { return f(s, legal) }

// FirstLegal always plays the first legal card.
var FirstLegal UserStrategy = UserFunc(func(_ *engine.State, legal []cards.Play) cards.Play {
	return legal[0]
})

// Scripted plays line in order, falling back to the first legal card once
// the line is used up or its next card cannot be played.
func Scripted(line []cards.Card) UserStrategy {
	line = slices.Clone(line)
	return UserFunc(func(s *engine.State, legal []cards.Play) cards.Play {
		if pos := len(s.UserPlays); pos < len(line) {
			for _, p := range legal {
				if p.Card == line[pos] {
					return p
				}
			}
		}
		return legal[0]
	})
}
