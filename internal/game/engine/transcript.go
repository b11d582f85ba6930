package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/equivalence"
)

// Fingerprint identifies a defender decision point well enough to tell
// whether a live run is still on a recorded line.
type Fingerprint struct {
	Seat cards.Seat `json:"seat"`
	// Lead is meaningful only when Following is set.
	Lead      cards.Suit   `json:"lead"`
	Following bool         `json:"following"`
	Strain    cards.Strain `json:"strain"`
	// Legal holds the equivalence class of every legal card, sorted.
	Legal []equivalence.ClassID `json:"legal"`
	// Trick holds the equivalence class of each card already in the trick, in play order.
	Trick []equivalence.ClassID `json:"trick"`
}

// Equal reports whether two fingerprints describe the same decision point.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Seat == other.Seat &&
		f.Following == other.Following &&
		(!f.Following || f.Lead == other.Lead) &&
		f.Strain == other.Strain &&
		slices.Equal(f.Legal, other.Legal) &&
		slices.Equal(f.Trick, other.Trick)
}

func (f Fingerprint) String() string {
	lead := "-"
	if f.Following {
		lead = f.Lead.String()
	}
	return fmt.Sprintf("seat=%s|lead=%s|trump=%s|legal=%s|trick=%s",
		f.Seat, lead, f.Strain, joinIDs(f.Legal), joinIDs(f.Trick))
}

func joinIDs(ids []equivalence.ClassID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

func fingerprint(s *State, legal []cards.Card) Fingerprint {
	fp := Fingerprint{
		Seat:   s.Turn,
		Strain: s.Strain,
		Legal:  make([]equivalence.ClassID, 0, len(legal)),
		Trick:  slices.Clone(s.TrickClasses),
	}
	fp.Lead, fp.Following = s.LedSuit()
	for _, c := range legal {
		fp.Legal = append(fp.Legal, equivalence.ClassOf(s.Deal, s.Turn, c).ID())
	}
	slices.SortFunc(fp.Legal, equivalence.ClassID.Compare)
	return fp
}

// ClassCard pairs a policy class with a card.
type ClassCard struct {
	Class PolicyClass `json:"class"`
	Card  cards.Card  `json:"card"`
}

// DecisionRecord captures one defender autoplay decision.
type DecisionRecord struct {
	Index       int                 `json:"index"`
	Seat        cards.Seat          `json:"seat"`
	Fingerprint Fingerprint         `json:"fingerprint"`
	Card        cards.Card          `json:"card"`
	Class       PolicyClass         `json:"class"`
	Equivalence equivalence.ClassID `json:"equivalence"`
	Bucket      string              `json:"bucket"`
	BucketCards []cards.Card        `json:"bucketCards"`
	// Classes lists the distinct policy classes offered by the bucket, in bucket order.
	Classes []PolicyClass `json:"classes"`
	// Representatives gives one card per class. The chosen card represents its own class.
	Representatives []ClassCard `json:"representatives"`
}

// Representative returns the card recorded for class.
func (d DecisionRecord) Representative(class PolicyClass) (cards.Card, bool) {
	for _, rc := range d.Representatives {
		if rc.Class == class {
			return rc.Card, true
		}
	}
	return cards.Card{}, false
}

func newDecisionRecord(index int, seat cards.Seat, fp Fingerprint, ch choice, card cards.Card, chosen PolicyClass, eq equivalence.ClassID, classes []ClassCard) DecisionRecord {
	rec := DecisionRecord{
		Index:       index,
		Seat:        seat,
		Fingerprint: fp,
		Card:        card,
		Class:       chosen,
		Equivalence: eq,
		Bucket:      ch.bucket,
		BucketCards: slices.Clone(ch.bucketCards),
	}
	for _, cc := range classes {
		if slices.Contains(rec.Classes, cc.Class) {
			continue
		}
		rec.Classes = append(rec.Classes, cc.Class)
		rep := cc.Card
		if cc.Class == chosen {
			rep = card
		}
		rec.Representatives = append(rec.Representatives, ClassCard{Class: cc.Class, Card: rep})
	}
	if !slices.Contains(rec.Classes, chosen) {
		rec.Classes = append(rec.Classes, chosen)
		rec.Representatives = append(rec.Representatives, ClassCard{Class: chosen, Card: card})
	}
	return rec
}

// Transcript is the recorded line of one run: every defender decision and
// the equivalence class of every user play.
type Transcript struct {
	ID        string                `json:"id,omitempty"`
	ProblemID string                `json:"problemId"`
	Seed      uint32                `json:"seed"`
	Decisions []DecisionRecord      `json:"decisions"`
	UserPlays []equivalence.ClassID `json:"userPlays"`
}

// Forcing attaches a recorded line to a fresh run. Decisions up to Divergence
// replay the recorded cards; at Divergence the run plays Card (of Class)
// instead, and later decisions run unforced. A negative Divergence replays
// the whole line.
type Forcing struct {
	Transcript *Transcript
	Divergence int
	Class      PolicyClass
	Card       cards.Card
}
