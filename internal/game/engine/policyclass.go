package engine

import (
	"fmt"
	"strings"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/threat"
)

// Autoplay bucket names outside the discard tiers.
const (
	BucketPreferred      = "preferred"
	BucketLegal          = "legal"
	BucketLeadNone       = "lead:none"
	BucketFollowBaseline = "follow:baseline"
	BucketFollowBelow    = "follow:below"
	BucketFollowAbove    = "follow:above"
)

// ClassKind is the tag of a PolicyClass.
type ClassKind uint8

const (
	KindIdle ClassKind = iota
	KindBusy
	KindOther
)

// PolicyClass groups autoplay alternatives: every idle card is one class,
// busy and other cards are grouped by suit. Same-class alternatives count as
// one branch for replay coverage.
type PolicyClass struct {
	Kind ClassKind
	// Suit is meaningful for KindBusy and KindOther only.
	Suit cards.Suit
}

func IdleClass() PolicyClass                 { return PolicyClass{Kind: KindIdle} }
func BusyClass(suit cards.Suit) PolicyClass  { return PolicyClass{Kind: KindBusy, Suit: suit} }
func OtherClass(suit cards.Suit) PolicyClass { return PolicyClass{Kind: KindOther, Suit: suit} }

// IsIdle reports whether c is the idle class.
func (c PolicyClass) IsIdle() bool { return c.Kind == KindIdle }

func (c PolicyClass) String() string {
	switch c.Kind {
	case KindIdle:
		return "idle"
	case KindBusy:
		return "busy:" + c.Suit.String()
	default:
		return "other:" + c.Suit.String()
	}
}

// Compare orders classes by their text form.
func (c PolicyClass) Compare(other PolicyClass) int {
	return strings.Compare(c.String(), other.String())
}

// ParsePolicyClass parses "idle", "busy:S" or "other:H".
func ParsePolicyClass(text string) (PolicyClass, error) {
	if text == "idle" {
		return IdleClass(), nil
	}
	kind, suitText, ok := strings.Cut(text, ":")
	if !ok {
		return PolicyClass{}, fmt.Errorf("invalid policy class %q", text)
	}
	suit, err := cards.ParseSuit(suitText)
	if err != nil {
		return PolicyClass{}, fmt.Errorf("invalid policy class %q: %w", text, err)
	}
	switch kind {
	case "busy":
		return BusyClass(suit), nil
	case "other":
		return OtherClass(suit), nil
	}
	return PolicyClass{}, fmt.Errorf("invalid policy class %q", text)
}

func (c PolicyClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *PolicyClass) UnmarshalText(text []byte) error {
	v, err := ParsePolicyClass(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// classify assigns card to a policy class. Discard tiers decide by themselves;
// other buckets fall back to the seat's busy/idle labels.
func classify(bucket string, seat cards.Seat, card cards.Card, c *threat.Classification) PolicyClass {
	switch {
	case strings.HasPrefix(bucket, "tier1"):
		return IdleClass()
	case strings.HasPrefix(bucket, "tier2"), strings.HasPrefix(bucket, "tier3"):
		return BusyClass(card.Suit)
	case bucket == "tier4":
		return OtherClass(card.Suit)
	}
	if c != nil {
		if c.IsBusy(seat, card) {
			return BusyClass(card.Suit)
		}
		if c.IsIdle(seat, card) {
			return IdleClass()
		}
	}
	return OtherClass(card.Suit)
}
