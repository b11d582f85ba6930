// Package discard ranks a defender's legal cards into eight tiers for the
// moment it cannot follow suit. Idle cards come before busy ones; busy cards
// in a doubly stopped suit come before busy cards in a singly stopped suit;
// within each pair the cards below the threat rank come first.
package discard

import (
	"errors"
	"fmt"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/threat"
)

// ErrNoLegalCards is returned by Choose when the defender has nothing to play.
var ErrNoLegalCards = errors.New("no legal cards to discard")

// Tier names one discard bucket, in preference order.
type Tier uint8

const (
	Tier1a Tier = iota // idle, suit has no active threat
	Tier1b             // idle, below the idle-threat threshold
	Tier1c             // any other idle card
	Tier2a             // busy in a doubly stopped suit, below the threat rank
	Tier2b             // busy in a doubly stopped suit
	Tier3a             // busy and alone in a singly stopped suit, below the threat rank
	Tier3b             // busy and alone in a singly stopped suit
	Tier4              // every legal card
	tierCount
)

var tierNames = [...]string{"tier1a", "tier1b", "tier1c", "tier2a", "tier2b", "tier3a", "tier3b", "tier4"}

func (t Tier) String() string {
	if t < tierCount {
		return tierNames[t]
	}
	return fmt.Sprintf("Tier(%d)", uint8(t))
}

// Idle reports whether the tier holds only idle cards.
func (t Tier) Idle() bool { return t <= Tier1c }

// Busy reports whether the tier holds only busy cards.
func (t Tier) Busy() bool { return t >= Tier2a && t <= Tier3b }

// Tiers is the bucketed legal set of one defender.
type Tiers struct {
	Legal   []cards.Card
	buckets [tierCount][]cards.Card
}

// Bucket returns the cards in tier t, in legal order.
func (t Tiers) Bucket(tier Tier) []cards.Card { return t.buckets[tier] }

// Select returns the first non-empty tier and its cards.
func (t Tiers) Select() (Tier, []cards.Card) {
	for tier := Tier1a; tier < Tier4; tier++ {
		if len(t.buckets[tier]) > 0 {
			return tier, t.buckets[tier]
		}
	}
	return Tier4, t.buckets[Tier4]
}

// predicates evaluates the tier rules for one seat against a classification.
type predicates struct {
	c    *threat.Classification
	seat cards.Seat
}

func (p predicates) idle(card cards.Card) bool { return p.c.IsIdle(p.seat, card) }

func (p predicates) activeThreat(suit cards.Suit) bool {
	_, ok := p.c.ActiveThreat(suit)
	return ok
}

func (p predicates) belowThreatRank(card cards.Card) bool {
	t, ok := p.c.ActiveThreat(card.Suit)
	return ok && card.Rank < t.Card.Rank
}

func (p predicates) tier1a(card cards.Card) bool {
	return p.idle(card) && !p.activeThreat(card.Suit)
}

func (p predicates) tier1b(card cards.Card) bool {
	if !p.idle(card) {
		return false
	}
	threshold, ok := p.c.IdleThreatThreshold(card.Suit)
	return ok && card.Rank < threshold
}

func (p predicates) tier1c(card cards.Card) bool {
	return p.idle(card) && !p.tier1a(card) && !p.tier1b(card)
}

func (p predicates) busyWithStop(card cards.Card, want threat.StopStatus) bool {
	if !p.c.IsBusy(p.seat, card) {
		return false
	}
	stop, ok := p.c.StopStatus(card.Suit)
	return ok && stop == want
}

func (p predicates) doubly(card cards.Card) bool { return p.busyWithStop(card, threat.StopDouble) }

func (p predicates) singly(card cards.Card) bool {
	return p.busyWithStop(card, threat.StopSingle) && p.c.BusyIn(p.seat, card.Suit)
}

func (p predicates) match(tier Tier, card cards.Card) bool {
	switch tier {
	case Tier1a:
		return p.tier1a(card)
	case Tier1b:
		return p.tier1b(card)
	case Tier1c:
		return p.tier1c(card)
	case Tier2a:
		return p.doubly(card) && p.belowThreatRank(card)
	case Tier2b:
		return p.doubly(card)
	case Tier3a:
		return p.singly(card) && p.belowThreatRank(card)
	case Tier3b:
		return p.singly(card)
	default:
		return true
	}
}

// Compute buckets seat's legal cards. A nil classification puts every card in Tier4.
func Compute(c *threat.Classification, seat cards.Seat, legal []cards.Card) Tiers {
	t := Tiers{Legal: legal}
	t.buckets[Tier4] = legal
	if c == nil {
		return t
	}
	p := predicates{c: c, seat: seat}
	for tier := Tier1a; tier < Tier4; tier++ {
		for _, card := range legal {
			if p.match(tier, card) {
				t.buckets[tier] = append(t.buckets[tier], card)
			}
		}
	}
	return t
}

// Intn draws a uniform integer in [0, n).
type Intn interface {
	Intn(n int) int
}

// Choice is the outcome of Choose.
type Choice struct {
	Tier   Tier
	Bucket []cards.Card
	Card   cards.Card
}

// Choose buckets the legal cards and picks uniformly from the first non-empty tier.
func Choose(c *threat.Classification, seat cards.Seat, legal []cards.Card, rng Intn) (Choice, error) {
	if len(legal) == 0 {
		return Choice{}, fmt.Errorf("%w: seat %s", ErrNoLegalCards, seat)
	}
	tier, bucket := Compute(c, seat, legal).Select()
	idx := rng.Intn(len(bucket))
	if idx < 0 || idx >= len(bucket) {
		idx = 0
	}
	return Choice{Tier: tier, Bucket: bucket, Card: bucket[idx]}, nil
}
