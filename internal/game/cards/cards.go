// Package cards holds the primitive vocabulary of the trick-taking engine:
// suits, ranks, seats, sides, strains and concrete cards.
package cards

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCard is returned when a card, suit, rank, seat or strain token cannot be parsed.
var ErrInvalidCard = errors.New("invalid card token")

// Suit represents a card suit.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in display order.
var Suits = [...]Suit{Spades, Hearts, Diamonds, Clubs}

var suitLetters = [...]string{"S", "H", "D", "C"}

func (s Suit) String() string {
	if int(s) < len(suitLetters) {
		return suitLetters[s]
	}
	return fmt.Sprintf("Suit(%d)", uint8(s))
}

// ParseSuit parses a single suit letter (S, H, D, C).
func ParseSuit(token string) (Suit, error) {
	for i, l := range suitLetters {
		if strings.EqualFold(token, l) {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("%w: suit %q", ErrInvalidCard, token)
}

func (s Suit) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Suit) UnmarshalText(text []byte) error {
	v, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Rank represents a card rank. The numeric value is the rank strength (2..14).
type Rank uint8

const (
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

const rankLetters = "23456789TJQKA"

// Valid reports whether r is one of the thirteen ranks.
func (r Rank) Valid() bool { return r >= Two && r <= Ace }

func (r Rank) String() string {
	if r.Valid() {
		return string(rankLetters[r-Two])
	}
	return fmt.Sprintf("Rank(%d)", uint8(r))
}

// ParseRank parses a rank letter (2-9, T, J, Q, K, A). "10" is accepted for ten.
func ParseRank(token string) (Rank, error) {
	if token == "10" {
		return Ten, nil
	}
	if len(token) == 1 {
		if i := strings.IndexByte(rankLetters, strings.ToUpper(token)[0]); i >= 0 {
			return Rank(i) + Two, nil
		}
	}
	return 0, fmt.Errorf("%w: rank %q", ErrInvalidCard, token)
}

func (r Rank) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Rank) UnmarshalText(text []byte) error {
	v, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Seat is a table position. Play proceeds North, East, South, West.
type Seat uint8

const (
	North Seat = iota
	East
	South
	West
)

// Seats lists every seat in turn order.
var Seats = [...]Seat{North, East, South, West}

// Defenders lists the two seats played by the engine's defensive policy.
var Defenders = [...]Seat{East, West}

var seatLetters = [...]string{"N", "E", "S", "W"}

func (s Seat) String() string {
	if int(s) < len(seatLetters) {
		return seatLetters[s]
	}
	return fmt.Sprintf("Seat(%d)", uint8(s))
}

// ParseSeat parses a seat letter (N, E, S, W).
func ParseSeat(token string) (Seat, error) {
	for i, l := range seatLetters {
		if strings.EqualFold(token, l) {
			return Seat(i), nil
		}
	}
	return 0, fmt.Errorf("%w: seat %q", ErrInvalidCard, token)
}

func (s Seat) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Seat) UnmarshalText(text []byte) error {
	v, err := ParseSeat(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Next returns the seat that plays after s.
func (s Seat) Next() Seat { return (s + 1) % 4 }

// Side returns the partnership s belongs to.
func (s Seat) Side() Side {
	if s == North || s == South {
		return NorthSouth
	}
	return EastWest
}

// IsDefender reports whether s is one of the defending seats (East or West).
func (s Seat) IsDefender() bool { return s == East || s == West }

// Side is a partnership.
type Side uint8

const (
	NorthSouth Side = iota
	EastWest
)

func (s Side) String() string {
	if s == NorthSouth {
		return "NS"
	}
	return "EW"
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "NS":
		*s = NorthSouth
	case "EW":
		*s = EastWest
	default:
		return fmt.Errorf("%w: side %q", ErrInvalidCard, text)
	}
	return nil
}

// Strain is the contract denomination: one of the four suits or no trump.
type Strain uint8

const (
	StrainSpades Strain = iota
	StrainHearts
	StrainDiamonds
	StrainClubs
	NoTrump
)

// Trump returns the trump suit, if any.
func (s Strain) Trump() (Suit, bool) {
	if s == NoTrump {
		return 0, false
	}
	return Suit(s), true
}

func (s Strain) String() string {
	if s == NoTrump {
		return "NT"
	}
	return Suit(s).String()
}

// ParseStrain parses S, H, D, C or NT.
func ParseStrain(token string) (Strain, error) {
	if strings.EqualFold(token, "NT") {
		return NoTrump, nil
	}
	suit, err := ParseSuit(token)
	if err != nil {
		return 0, fmt.Errorf("%w: strain %q", ErrInvalidCard, token)
	}
	return Strain(suit), nil
}

func (s Strain) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strain) UnmarshalText(text []byte) error {
	v, err := ParseStrain(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Card is a suit+rank pair. Its text form ("S8", "HA") is the card id.
type Card struct {
	Suit Suit
	Rank Rank
}

func (c Card) String() string { return c.Suit.String() + c.Rank.String() }

// ParseCard parses a card id such as "SA", "D5" or "H10".
func ParseCard(token string) (Card, error) {
	if len(token) < 2 {
		return Card{}, fmt.Errorf("%w: card %q", ErrInvalidCard, token)
	}
	suit, err := ParseSuit(token[:1])
	if err != nil {
		return Card{}, fmt.Errorf("%w: card %q", ErrInvalidCard, token)
	}
	rank, err := ParseRank(token[1:])
	if err != nil {
		return Card{}, fmt.Errorf("%w: card %q", ErrInvalidCard, token)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// MustParseCard is ParseCard for literals known to be valid.
func MustParseCard(token string) Card {
	c, err := ParseCard(token)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCards parses a list of card ids.
func ParseCards(tokens ...string) ([]Card, error) {
	out := make([]Card, 0, len(tokens))
	for _, t := range tokens {
		c, err := ParseCard(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (c Card) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Card) UnmarshalText(text []byte) error {
	v, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Play is a card played by a seat.
type Play struct {
	Seat Seat `json:"seat"`
	Card Card `json:"card"`
}

func (p Play) String() string { return p.Seat.String() + ":" + p.Card.String() }
