// Package threat tracks declared threat cards and labels each defender card
// as busy (held back to beat a threat) or idle.
//
// A Classification is an immutable set of per-suit snapshots. Update returns
// a new Classification that shares every snapshot except the one for the
// suit of the card just played.
package threat

import (
	"errors"
	"fmt"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
)

var (
	// ErrThreatNotHeld is returned when a declared threat card is in no hand.
	ErrThreatNotHeld = errors.New("threat card not in any hand")
	// ErrThreatMultipleHolders is returned when a declared threat card is in more than one hand.
	ErrThreatMultipleHolders = errors.New("threat card held by more than one seat")
	// ErrDuplicateThreatSuit is returned when two threat cards share a suit.
	ErrDuplicateThreatSuit = errors.New("duplicate threat suit")
	// ErrLabelIntegrity reports a defender holding that is not split exactly into busy and idle.
	ErrLabelIntegrity = errors.New("busy/idle labels do not partition holding")
)

// StopStatus counts the defenders busy in a threat suit.
type StopStatus uint8

const (
	StopNone StopStatus = iota
	StopSingle
	StopDouble
)

func (s StopStatus) String() string {
	switch s {
	case StopSingle:
		return "single"
	case StopDouble:
		return "double"
	default:
		return "none"
	}
}

func (s StopStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Descriptor is the state of one declared threat.
type Descriptor struct {
	Card   cards.Card `json:"card"`
	Owner  cards.Seat `json:"owner"`
	Active bool       `json:"active"`
	// Length is the number of Owner's cards in the suit ranked at or above the
	// threat card: how many leads of the suit the defence must survive.
	Length int        `json:"length"`
	Stop   StopStatus `json:"stop"`
}

// Promoted reports whether the threat is active with no defender stopping it.
func (d Descriptor) Promoted() bool { return d.Active && d.Stop == StopNone }

// Labels splits one defender's holding in one suit.
type Labels struct {
	Busy cards.RankSet
	Idle cards.RankSet
}

// Role is the teaching highlight for a single card.
type Role uint8

const (
	RoleNone Role = iota
	RoleDefault
	RoleIdle
	RoleBusy
	RoleThreat
	RolePromotedWinner
)

var roleNames = [...]string{"", "default", "idle", "busy", "threat", "promotedWinner"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// SuitView is the immutable classification of one suit.
type SuitView struct {
	Suit cards.Suit
	// Threat is nil when no threat was declared in the suit.
	Threat *Descriptor
	labels [4]Labels
	roles  [cards.Ace + 1]Role
}

// Labels returns seat's busy/idle split. Non-defenders have empty labels.
func (v *SuitView) Labels(seat cards.Seat) Labels { return v.labels[seat] }

// Role returns the role of the card of rank r in this suit.
func (v *SuitView) Role(r cards.Rank) Role {
	if !r.Valid() {
		return RoleNone
	}
	return v.roles[r]
}

// activeThreat returns the suit's threat if it is still active.
func (v *SuitView) activeThreat() (Descriptor, bool) {
	if v.Threat == nil || !v.Threat.Active {
		return Descriptor{}, false
	}
	return *v.Threat, true
}

// buildView recomputes a suit from the deal. prev is the suit's previous
// descriptor, or nil if the suit has no threat.
func buildView(deal cards.Deal, suit cards.Suit, prev *Descriptor) *SuitView {
	view := &SuitView{Suit: suit}

	if prev != nil {
		d := *prev
		if d.Active {
			holders := deal.Holders(d.Card)
			d.Active = len(holders) == 1 && holders[0] == d.Owner
		}
		d.Length = 0
		if d.Active {
			d.Length = deal[d.Owner][suit].AtLeast(d.Card.Rank).Len()
		}
		view.Threat = &d
	}

	busySeats := 0
	for _, seat := range cards.Defenders {
		holding := deal[seat][suit]
		l := Labels{Idle: holding}
		if t, ok := view.activeThreat(); ok && t.Length > 0 &&
			holding.Len() >= t.Length && !holding.Above(t.Card.Rank).Empty() {
			l.Busy = holding.Top(t.Length)
			l.Idle = holding.Minus(l.Busy)
			busySeats++
		}
		view.labels[seat] = l
	}

	if view.Threat != nil {
		view.Threat.Stop = StopStatus(busySeats)
		if !view.Threat.Active {
			view.Threat.Stop = StopNone
		}
	}

	for _, seat := range cards.Seats {
		for _, r := range deal[seat][suit].Ranks() {
			view.roles[r] = RoleDefault
		}
	}
	for _, seat := range cards.Defenders {
		for _, r := range view.labels[seat].Idle.Ranks() {
			view.roles[r] = RoleIdle
		}
		for _, r := range view.labels[seat].Busy.Ranks() {
			view.roles[r] = RoleBusy
		}
	}
	if t, ok := view.activeThreat(); ok {
		view.roles[t.Card.Rank] = RoleThreat
		if t.Promoted() {
			view.roles[t.Card.Rank] = RolePromotedWinner
		}
	}
	return view
}

// Classification is the busy/idle labeling of every suit.
type Classification struct {
	views [4]*SuitView
}

// New validates the declared threat cards against the deal and labels every suit.
func New(deal cards.Deal, threats []cards.Card) (*Classification, error) {
	var declared [4]*Descriptor
	for _, card := range threats {
		if declared[card.Suit] != nil {
			return nil, fmt.Errorf("%w: %s and %s", ErrDuplicateThreatSuit, declared[card.Suit].Card, card)
		}
		holders := deal.Holders(card)
		switch len(holders) {
		case 0:
			return nil, fmt.Errorf("%w: %s", ErrThreatNotHeld, card)
		case 1:
		default:
			return nil, fmt.Errorf("%w: %s held by %v", ErrThreatMultipleHolders, card, holders)
		}
		declared[card.Suit] = &Descriptor{Card: card, Owner: holders[0], Active: true}
	}

	c := &Classification{}
	for _, suit := range cards.Suits {
		c.views[suit] = buildView(deal, suit, declared[suit])
	}
	return c, nil
}

// Update returns the classification after played has left its holder's hand.
// deal must already reflect the play. Only the played suit is recomputed.
func (c *Classification) Update(deal cards.Deal, played cards.Card) *Classification {
	next := &Classification{views: c.views}
	next.views[played.Suit] = buildView(deal, played.Suit, c.views[played.Suit].Threat)
	return next
}

// View returns the snapshot for suit.
func (c *Classification) View(suit cards.Suit) *SuitView { return c.views[suit] }

// Threat returns the declared threat in suit, active or not.
func (c *Classification) Threat(suit cards.Suit) (Descriptor, bool) {
	if t := c.views[suit].Threat; t != nil {
		return *t, true
	}
	return Descriptor{}, false
}

// ActiveThreat returns the threat in suit if it is still active.
func (c *Classification) ActiveThreat(suit cards.Suit) (Descriptor, bool) {
	return c.views[suit].activeThreat()
}

// Threats lists all declared threats in suit order.
func (c *Classification) Threats() []Descriptor {
	var out []Descriptor
	for _, suit := range cards.Suits {
		if t, ok := c.Threat(suit); ok {
			out = append(out, t)
		}
	}
	return out
}

// Labels returns seat's labels in suit.
func (c *Classification) Labels(seat cards.Seat, suit cards.Suit) Labels {
	return c.views[suit].Labels(seat)
}

// IsBusy reports whether card is labeled busy for seat.
func (c *Classification) IsBusy(seat cards.Seat, card cards.Card) bool {
	return c.Labels(seat, card.Suit).Busy.Has(card.Rank)
}

// IsIdle reports whether card is labeled idle for seat.
func (c *Classification) IsIdle(seat cards.Seat, card cards.Card) bool {
	return c.Labels(seat, card.Suit).Idle.Has(card.Rank)
}

// BusyIn reports whether seat has any busy card in suit.
func (c *Classification) BusyIn(seat cards.Seat, suit cards.Suit) bool {
	return !c.Labels(seat, suit).Busy.Empty()
}

// StopStatus returns the stop status of an active threat suit.
func (c *Classification) StopStatus(suit cards.Suit) (StopStatus, bool) {
	t, ok := c.ActiveThreat(suit)
	return t.Stop, ok
}

// PromotedWinnerRank returns the threat rank if the suit's threat is a promoted winner.
func (c *Classification) PromotedWinnerRank(suit cards.Suit) (cards.Rank, bool) {
	t, ok := c.ActiveThreat(suit)
	if !ok || !t.Promoted() {
		return 0, false
	}
	return t.Card.Rank, true
}

// IdleThreatThreshold returns the rank below which a defender's cards in suit
// are safe to play: the higher of the threat rank and the promoted-winner rank.
// ok is false when the suit has no active threat.
func (c *Classification) IdleThreatThreshold(suit cards.Suit) (cards.Rank, bool) {
	t, ok := c.ActiveThreat(suit)
	if !ok {
		return 0, false
	}
	threshold := t.Card.Rank
	if promoted, isPromoted := c.PromotedWinnerRank(suit); isPromoted && promoted > threshold {
		threshold = promoted
	}
	return threshold, true
}

// Role returns the teaching role of card.
func (c *Classification) Role(card cards.Card) Role {
	return c.views[card.Suit].Role(card.Rank)
}

// CheckIntegrity verifies that for both defenders busy and idle partition
// every suit holding in deal.
func (c *Classification) CheckIntegrity(deal cards.Deal) error {
	var errs []error
	for _, seat := range cards.Defenders {
		for _, suit := range cards.Suits {
			l := c.Labels(seat, suit)
			holding := deal[seat][suit]
			if overlap := l.Busy.Intersect(l.Idle); !overlap.Empty() {
				errs = append(errs, fmt.Errorf("%w: %s %s overlap %s", ErrLabelIntegrity, seat, suit, overlap))
			}
			if union := l.Busy.Union(l.Idle); union != holding {
				errs = append(errs, fmt.Errorf("%w: %s %s labeled %s, holds %s", ErrLabelIntegrity, seat, suit, union, holding))
			}
		}
	}
	return errors.Join(errs...)
}
