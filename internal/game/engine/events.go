package engine

import (
	"fmt"
	"strings"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/equivalence"
)

// EventType indicates what an engine event reports.
type EventType string

const (
	EventPlayed        EventType = "played"
	EventAutoplay      EventType = "autoplay"
	EventIllegal       EventType = "illegal"
	EventTrickComplete EventType = "trickComplete"
	EventHandComplete  EventType = "handComplete"
)

// IllegalReason classifies an illegal event.
type IllegalReason string

const (
	ReasonHandComplete IllegalReason = "hand-complete"
	ReasonWrongSeat    IllegalReason = "wrong-seat"
	ReasonIllegalCard  IllegalReason = "illegal-card"
	ReasonNoPolicy     IllegalReason = "no-policy"
	ReasonNoCandidate  IllegalReason = "no-candidate"
)

// PreferredReason explains whether a preferred discard was played.
type PreferredReason string

const (
	PreferredApplied       PreferredReason = "applied"
	PreferredNotDiscard    PreferredReason = "not-discard"
	PreferredCanFollowSuit PreferredReason = "can-follow-suit"
	PreferredAlreadyUsed   PreferredReason = "already-used"
	PreferredNotInHand     PreferredReason = "not-in-hand"
	PreferredNotLegal      PreferredReason = "not-legal"
)

// PreferredOutcome is attached to autoplay events for seats with preferred discards.
type PreferredOutcome struct {
	Preferred []cards.Card    `json:"preferred"`
	Applied   bool            `json:"applied"`
	Chosen    *cards.Card     `json:"chosen,omitempty"`
	Reason    PreferredReason `json:"reason"`
}

// ReplayAction is what replay forcing did at a decision.
type ReplayAction string

const (
	ReplayForced   ReplayAction = "forced"
	ReplayDisabled ReplayAction = "disabled"
)

// DisableReason says why forcing stopped for the rest of a run.
type DisableReason string

const (
	DisableNone                DisableReason = ""
	DisableFingerprintMismatch DisableReason = "fingerprint-mismatch"
	DisableCardUnavailable     DisableReason = "card-unavailable"
	DisableUserDiverged        DisableReason = "user-diverged"
	DisableTranscriptExhausted DisableReason = "transcript-exhausted"
)

// ReplayOutcome annotates events touched by replay forcing.
type ReplayOutcome struct {
	Action ReplayAction  `json:"action"`
	Index  int           `json:"index"`
	Reason DisableReason `json:"reason,omitempty"`
	Card   *cards.Card   `json:"card,omitempty"`
}

// AutoplayDetail explains an autoplay choice without recomputation.
type AutoplayDetail struct {
	Bucket      string       `json:"bucket"`
	BucketCards []cards.Card `json:"bucketCards"`
	// Classes gives the policy class of each bucket card, in bucket order.
	Classes   []ClassCard       `json:"classes"`
	Preferred *PreferredOutcome `json:"preferred,omitempty"`
	// Decision is set for defender decisions and carries the fingerprint.
	Decision *DecisionRecord `json:"decision,omitempty"`
}

// TrickResult reports a completed trick.
type TrickResult struct {
	Winner cards.Seat   `json:"winner"`
	Plays  []cards.Play `json:"plays"`
}

// HandResult reports the verdict once every card is played.
type HandResult struct {
	Success bool  `json:"success"`
	Tricks  Score `json:"tricks"`
}

// Event is one entry of the ordered stream returned by Apply and Advance.
type Event struct {
	Type     EventType            `json:"type"`
	Play     *cards.Play          `json:"play,omitempty"`
	Class    *equivalence.ClassID `json:"class,omitempty"`
	Autoplay *AutoplayDetail      `json:"autoplay,omitempty"`
	Replay   *ReplayOutcome       `json:"replay,omitempty"`
	Reason   IllegalReason        `json:"reason,omitempty"`
	Message  string               `json:"message,omitempty"`
	Trick    *TrickResult         `json:"trick,omitempty"`
	Hand     *HandResult          `json:"hand,omitempty"`
}

func illegal(reason IllegalReason, format string, args ...any) Event {
	return Event{Type: EventIllegal, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// String renders the event as one canonical line.
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	if e.Play != nil {
		fmt.Fprintf(&b, " %s", e.Play)
	}
	if e.Class != nil {
		fmt.Fprintf(&b, " class=%s", e.Class)
	}
	if a := e.Autoplay; a != nil {
		fmt.Fprintf(&b, " bucket=%s cards=%s", a.Bucket, joinCards(a.BucketCards))
		classes := make([]string, len(a.Classes))
		for i, cc := range a.Classes {
			classes[i] = cc.Card.String() + "=" + cc.Class.String()
		}
		fmt.Fprintf(&b, " classes=%s", strings.Join(classes, ","))
		if p := a.Preferred; p != nil {
			fmt.Fprintf(&b, " preferred=%s:%s", joinCards(p.Preferred), p.Reason)
		}
		if d := a.Decision; d != nil {
			fmt.Fprintf(&b, " decision=%d fp=%s", d.Index, d.Fingerprint)
		}
	}
	if r := e.Replay; r != nil {
		fmt.Fprintf(&b, " replay=%s@%d", r.Action, r.Index)
		if r.Reason != DisableNone {
			fmt.Fprintf(&b, ":%s", r.Reason)
		}
		if r.Card != nil {
			fmt.Fprintf(&b, ":%s", r.Card)
		}
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " reason=%s msg=%q", e.Reason, e.Message)
	}
	if t := e.Trick; t != nil {
		plays := make([]string, len(t.Plays))
		for i, p := range t.Plays {
			plays[i] = p.String()
		}
		fmt.Fprintf(&b, " winner=%s plays=%s", t.Winner, strings.Join(plays, ","))
	}
	if h := e.Hand; h != nil {
		fmt.Fprintf(&b, " success=%t ns=%d ew=%d", h.Success, h.Tricks.NS, h.Tricks.EW)
	}
	return b.String()
}

func joinCards(cs []cards.Card) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
