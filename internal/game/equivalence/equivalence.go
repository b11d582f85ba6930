// Package equivalence groups the cards of one seat's suit holding into
// interchangeable runs. Two ranks share a class when they are adjacent, or
// when every rank between them is missing from all other hands: no play can
// ever tell choosing one apart from the other.
package equivalence

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
)

// ClassID identifies an equivalence class. It is comparable and usable as a map key.
type ClassID struct {
	Seat   cards.Seat
	Suit   cards.Suit
	Top    cards.Rank
	Bottom cards.Rank
}

// String renders the id as seat:suit:top-bottom, e.g. "W:S:K-J".
func (id ClassID) String() string {
	return fmt.Sprintf("%s:%s:%s-%s", id.Seat, id.Suit, id.Top, id.Bottom)
}

// Compare orders ids by seat, suit, then descending rank.
func (id ClassID) Compare(other ClassID) int {
	if c := cmp.Compare(id.Seat, other.Seat); c != 0 {
		return c
	}
	if c := cmp.Compare(id.Suit, other.Suit); c != 0 {
		return c
	}
	if c := cmp.Compare(other.Top, id.Top); c != 0 {
		return c
	}
	return cmp.Compare(other.Bottom, id.Bottom)
}

func (id ClassID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ClassID) UnmarshalText(text []byte) error {
	parts := strings.Split(string(text), ":")
	if len(parts) != 3 {
		return fmt.Errorf("%w: class id %q", cards.ErrInvalidCard, text)
	}
	bounds := strings.Split(parts[2], "-")
	if len(bounds) != 2 {
		return fmt.Errorf("%w: class id %q", cards.ErrInvalidCard, text)
	}
	seat, err := cards.ParseSeat(parts[0])
	if err != nil {
		return err
	}
	suit, err := cards.ParseSuit(parts[1])
	if err != nil {
		return err
	}
	top, err := cards.ParseRank(bounds[0])
	if err != nil {
		return err
	}
	bottom, err := cards.ParseRank(bounds[1])
	if err != nil {
		return err
	}
	*id = ClassID{Seat: seat, Suit: suit, Top: top, Bottom: bottom}
	return nil
}

// Class is one run of interchangeable ranks in a seat's suit holding.
type Class struct {
	Seat  cards.Seat
	Suit  cards.Suit
	Ranks cards.RankSet
}

// ID returns the canonical class id.
func (c Class) ID() ClassID {
	top, _ := c.Ranks.Highest()
	bottom, _ := c.Ranks.Lowest()
	return ClassID{Seat: c.Seat, Suit: c.Suit, Top: top, Bottom: bottom}
}

// Representative returns the lowest member.
func (c Class) Representative() cards.Card {
	low, _ := c.Ranks.Lowest()
	return cards.Card{Suit: c.Suit, Rank: low}
}

// Members lists the class cards, highest first.
func (c Class) Members() []cards.Card {
	ranks := c.Ranks.Ranks()
	out := make([]cards.Card, len(ranks))
	for i, r := range ranks {
		out[i] = cards.Card{Suit: c.Suit, Rank: r}
	}
	return out
}

// Contains reports whether card belongs to the class.
func (c Class) Contains(card cards.Card) bool {
	return card.Suit == c.Suit && c.Ranks.Has(card.Rank)
}

// SuitClasses partitions seat's holding in suit into classes, highest class first.
func SuitClasses(deal cards.Deal, seat cards.Seat, suit cards.Suit) []Class {
	held := deal[seat][suit].Ranks()
	if len(held) == 0 {
		return nil
	}
	others := deal.OthersHold(seat, suit)

	out := []Class{{Seat: seat, Suit: suit, Ranks: cards.NewRankSet(held[0])}}
	for i := 1; i < len(held); i++ {
		last := &out[len(out)-1]
		if cards.Between(held[i-1], held[i]).Intersect(others).Empty() {
			last.Ranks = last.Ranks.With(held[i])
			continue
		}
		out = append(out, Class{Seat: seat, Suit: suit, Ranks: cards.NewRankSet(held[i])})
	}
	return out
}

// SeatClasses returns every class in seat's hand, in suit order.
func SeatClasses(deal cards.Deal, seat cards.Seat) []Class {
	var out []Class
	for _, suit := range cards.Suits {
		out = append(out, SuitClasses(deal, seat, suit)...)
	}
	return out
}

// ClassOf returns the class containing card in seat's hand. A card the seat
// does not hold forms a singleton class.
func ClassOf(deal cards.Deal, seat cards.Seat, card cards.Card) Class {
	for _, c := range SuitClasses(deal, seat, card.Suit) {
		if c.Contains(card) {
			return c
		}
	}
	return Class{Seat: seat, Suit: card.Suit, Ranks: cards.NewRankSet(card.Rank)}
}
