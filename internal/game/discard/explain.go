package discard

import (
	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/threat"
)

// CardExplanation shows why one legal card landed in (or missed) each idle tier.
type CardExplanation struct {
	Card         cards.Card `json:"card"`
	Label        string     `json:"label"`
	Idle         bool       `json:"idle"`
	ActiveThreat bool       `json:"activeThreat"`
	// Threshold is zero when the suit has no active threat.
	Threshold      cards.Rank `json:"threshold,omitempty"`
	BelowThreshold bool       `json:"belowThreshold"`
	Tier1a         bool       `json:"tier1a"`
	Tier1b         bool       `json:"tier1b"`
	Tier1c         bool       `json:"tier1c"`
}

// ThreatSummary describes one active threat as seen by the idle tiers.
type ThreatSummary struct {
	Suit       cards.Suit        `json:"suit"`
	ThreatRank cards.Rank        `json:"threatRank"`
	Promoted   bool              `json:"promoted"`
	Threshold  cards.Rank        `json:"threshold"`
	Stop       threat.StopStatus `json:"stop"`
}

// Explanation is the tier-1 breakdown for one defender decision.
type Explanation struct {
	Cards     []CardExplanation `json:"cards"`
	IdleLegal []cards.Card      `json:"idleLegal"`
	Tier1a    []cards.Card      `json:"tier1a"`
	Tier1b    []cards.Card      `json:"tier1b"`
	Tier1c    []cards.Card      `json:"tier1c"`
	Threats   []ThreatSummary   `json:"threats"`
	// Missing lists idle cards in no idle tier, Overlap idle cards in more than one.
	Missing     []cards.Card `json:"missing"`
	Overlap     []cards.Card `json:"overlap"`
	IntegrityOK bool         `json:"integrityOk"`
}

// Explain reports tier-1 membership for every legal card of seat.
func Explain(c *threat.Classification, seat cards.Seat, legal []cards.Card) Explanation {
	var out Explanation
	p := predicates{c: c, seat: seat}

	for _, card := range legal {
		e := CardExplanation{
			Card:         card,
			Label:        "default",
			Idle:         p.idle(card),
			ActiveThreat: p.activeThreat(card.Suit),
			Tier1a:       p.tier1a(card),
			Tier1b:       p.tier1b(card),
			Tier1c:       p.tier1c(card),
		}
		switch {
		case c.IsBusy(seat, card):
			e.Label = "busy"
		case e.Idle:
			e.Label = "idle"
		}
		if threshold, ok := c.IdleThreatThreshold(card.Suit); ok {
			e.Threshold = threshold
			e.BelowThreshold = card.Rank < threshold
		}
		out.Cards = append(out.Cards, e)

		if e.Idle {
			out.IdleLegal = append(out.IdleLegal, card)
		}
		hits := 0
		if e.Tier1a {
			out.Tier1a = append(out.Tier1a, card)
			hits++
		}
		if e.Tier1b {
			out.Tier1b = append(out.Tier1b, card)
			hits++
		}
		if e.Tier1c {
			out.Tier1c = append(out.Tier1c, card)
			hits++
		}
		switch {
		case e.Idle && hits == 0:
			out.Missing = append(out.Missing, card)
		case hits > 1:
			out.Overlap = append(out.Overlap, card)
		}
	}

	for _, suit := range cards.Suits {
		t, ok := c.ActiveThreat(suit)
		if !ok {
			continue
		}
		threshold, _ := c.IdleThreatThreshold(suit)
		out.Threats = append(out.Threats, ThreatSummary{
			Suit:       suit,
			ThreatRank: t.Card.Rank,
			Promoted:   t.Promoted(),
			Threshold:  threshold,
			Stop:       t.Stop,
		})
	}

	out.IntegrityOK = len(out.Missing) == 0 && len(out.Overlap) == 0 &&
		len(out.IdleLegal) == len(out.Tier1a)+len(out.Tier1b)+len(out.Tier1c)
	return out
}
