package cards

import (
	"fmt"
	"math/bits"
	"strings"
)

// RankSet is a set of ranks within one suit, stored as a bitmask (bit r for rank r).
// It is a value type; every operation returns a new set.
type RankSet uint16

// NewRankSet builds a set from ranks.
func NewRankSet(ranks ...Rank) RankSet {
	var s RankSet
	for _, r := range ranks {
		s = s.With(r)
	}
	return s
}

func (s RankSet) Has(r Rank) bool { return r.Valid() && s&(1<<r) != 0 }
func (s RankSet) With(r Rank) RankSet { return s | 1<<r }
func (s RankSet) Without(r Rank) RankSet { return s &^ (1 << r) }
func (s RankSet) Union(o RankSet) RankSet { return s | o }
func (s RankSet) Minus(o RankSet) RankSet { return s &^ o }
func (s RankSet) Intersect(o RankSet) RankSet { return s & o }
func (s RankSet) Len() int { return bits.OnesCount16(uint16(s)) }
func (s RankSet) Empty() bool { return s == 0 }

// Ranks returns the members from highest to lowest.
func (s RankSet) Ranks() []Rank {
	out := make([]Rank, 0, s.Len())
	for r := Ace; r >= Two; r-- {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Highest returns the top rank of the set.
func (s RankSet) Highest() (Rank, bool) {
	if s == 0 {
		return 0, false
	}
	return Rank(15 - bits.LeadingZeros16(uint16(s))), true
}

// Lowest returns the bottom rank of the set.
func (s RankSet) Lowest() (Rank, bool) {
	if s == 0 {
		return 0, false
	}
	return Rank(bits.TrailingZeros16(uint16(s))), true
}

// AtLeast returns the members ranked r or higher.
func (s RankSet) AtLeast(r Rank) RankSet { return s &^ (1<<r - 1) }

// Above returns the members ranked strictly higher than r.
func (s RankSet) Above(r Rank) RankSet { return s &^ (1<<(r+1) - 1) }

// Below returns the members ranked strictly lower than r.
func (s RankSet) Below(r Rank) RankSet { return s & (1<<r - 1) }

// Top returns the n highest members.
func (s RankSet) Top(n int) RankSet {
	var out RankSet
	for r := Ace; r >= Two && n > 0; r-- {
		if s.Has(r) {
			out = out.With(r)
			n--
		}
	}
	return out
}

// Between returns every rank strictly between hi and lo, whether held or not.
func Between(hi, lo Rank) RankSet {
	if hi < lo {
		hi, lo = lo, hi
	}
	if hi-lo <= 1 {
		return 0
	}
	return RankSet(1<<hi - 1).Above(lo)
}

func (s RankSet) String() string {
	if s == 0 {
		return "-"
	}
	var b strings.Builder
	for _, r := range s.Ranks() {
		b.WriteString(r.String())
	}
	return b.String()
}

func (s RankSet) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts "AQ954", "A Q 9 5 4", "AQ1054" and "-" or "" for void.
func (s *RankSet) UnmarshalText(text []byte) error {
	raw := strings.ToUpper(strings.NewReplacer(" ", "", ",", "", "10", "T").Replace(string(text)))
	var out RankSet
	if raw != "-" {
		for _, ch := range raw {
			r, err := ParseRank(string(ch))
			if err != nil {
				return err
			}
			if out.Has(r) {
				return fmt.Errorf("%w: rank %s repeated in %q", ErrInvalidCard, r, text)
			}
			out = out.With(r)
		}
	}
	*s = out
	return nil
}

// Hand is one seat's holding, indexed by suit.
type Hand [4]RankSet

// Holding returns the ranks held in suit.
func (h Hand) Holding(s Suit) RankSet { return h[s] }

// Has reports whether the hand holds c.
func (h Hand) Has(c Card) bool { return h[c.Suit].Has(c.Rank) }

// Without returns a copy of h with c removed.
func (h Hand) Without(c Card) Hand {
	h[c.Suit] = h[c.Suit].Without(c.Rank)
	return h
}

// Len returns the number of cards in the hand.
func (h Hand) Len() int {
	n := 0
	for _, s := range h {
		n += s.Len()
	}
	return n
}

func (h Hand) Empty() bool { return h.Len() == 0 }

// Cards lists the hand in suit order, highest rank first.
func (h Hand) Cards() []Card {
	out := make([]Card, 0, h.Len())
	for _, suit := range Suits {
		out = append(out, h.SuitCards(suit)...)
	}
	return out
}

// SuitCards lists the cards held in one suit, highest first.
func (h Hand) SuitCards(suit Suit) []Card {
	ranks := h[suit].Ranks()
	out := make([]Card, len(ranks))
	for i, r := range ranks {
		out[i] = Card{Suit: suit, Rank: r}
	}
	return out
}

func (h Hand) String() string {
	parts := make([]string, len(Suits))
	for i, suit := range Suits {
		parts[i] = h[suit].String()
	}
	return strings.Join(parts, ".")
}

// Deal is the set of four hands, indexed by seat.
type Deal [4]Hand

// Hand returns seat's hand.
func (d Deal) Hand(seat Seat) Hand { return d[seat] }

// Without returns a copy of the deal with c removed from seat's hand.
func (d Deal) Without(seat Seat, c Card) Deal {
	d[seat] = d[seat].Without(c)
	return d
}

// Holders returns every seat holding c, in seat order.
func (d Deal) Holders(c Card) []Seat {
	var out []Seat
	for _, seat := range Seats {
		if d[seat].Has(c) {
			out = append(out, seat)
		}
	}
	return out
}

// OthersHold returns the union of ranks in suit held by every seat except seat.
func (d Deal) OthersHold(seat Seat, suit Suit) RankSet {
	var out RankSet
	for _, other := range Seats {
		if other != seat {
			out = out.Union(d[other][suit])
		}
	}
	return out
}

// Empty reports whether every hand is empty.
func (d Deal) Empty() bool {
	for _, h := range d {
		if !h.Empty() {
			return false
		}
	}
	return true
}

// Len returns the number of cards remaining across all hands.
func (d Deal) Len() int {
	n := 0
	for _, h := range d {
		n += h.Len()
	}
	return n
}

// Duplicates returns every card held by more than one seat.
func (d Deal) Duplicates() []Card {
	var out []Card
	for _, suit := range Suits {
		var seen, dup RankSet
		for _, h := range d {
			dup = dup.Union(seen.Intersect(h[suit]))
			seen = seen.Union(h[suit])
		}
		for _, r := range dup.Ranks() {
			out = append(out, Card{Suit: suit, Rank: r})
		}
	}
	return out
}
