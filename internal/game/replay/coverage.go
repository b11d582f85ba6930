// Package replay drives repeated runs of a problem so that every distinct
// defensive line is eventually seen. It keeps coverage of which policy
// classes each recorded decision offered and which have been tried, plans
// forced passes from the latest successful transcript, and persists
// transcripts between sessions.
package replay

import (
	"slices"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

// coverageEntry is what is known about one decision index.
type coverageEntry struct {
	seen  []engine.PolicyClass
	tried []engine.PolicyClass
	reps  map[engine.PolicyClass]cards.Card
}

func (e *coverageEntry) see(class engine.PolicyClass) {
	if !slices.Contains(e.seen, class) {
		e.seen = append(e.seen, class)
	}
}

func (e *coverageEntry) try(class engine.PolicyClass) {
	if !slices.Contains(e.tried, class) {
		e.tried = append(e.tried, class)
	}
}

// remaining returns the seen, untried, non-idle classes in text order.
func (e *coverageEntry) remaining() []engine.PolicyClass {
	var out []engine.PolicyClass
	for _, c := range e.seen {
		if !c.IsIdle() && !slices.Contains(e.tried, c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, engine.PolicyClass.Compare)
	return out
}

// CoverageTable records, per decision index, the policy classes offered by
// the chosen bucket and the classes already tried. It is not safe for
// concurrent use; Tracker serializes access.
type CoverageTable struct {
	entries []coverageEntry
}

// NewCoverageTable returns an empty table.
func NewCoverageTable() *CoverageTable {
	return &CoverageTable{}
}

func (t *CoverageTable) entry(index int) *coverageEntry {
	for len(t.entries) <= index {
		t.entries = append(t.entries, coverageEntry{reps: make(map[engine.PolicyClass]cards.Card)})
	}
	return &t.entries[index]
}

// Mark merges every decision of a successful transcript into the table. The
// chosen class is marked tried and becomes the class's representative.
func (t *CoverageTable) Mark(tr engine.Transcript) {
	for _, d := range tr.Decisions {
		e := t.entry(d.Index)
		for _, c := range d.Classes {
			e.see(c)
		}
		for _, rc := range d.Representatives {
			e.reps[rc.Class] = rc.Card
		}
		e.see(d.Class)
		e.try(d.Class)
		e.reps[d.Class] = d.Card
	}
}

// MarkTried records that class has been forced at index.
func (t *CoverageTable) MarkTried(index int, class engine.PolicyClass) {
	t.entry(index).try(class)
}

// Tried reports whether class has been tried at index.
func (t *CoverageTable) Tried(index int, class engine.PolicyClass) bool {
	if index >= len(t.entries) {
		return false
	}
	return slices.Contains(t.entries[index].tried, class)
}

// Candidate is a branchable decision of a transcript.
type Candidate struct {
	Index int
	Seat  cards.Seat
	// Remaining lists the untried non-idle classes, in text order.
	Remaining []engine.PolicyClass
}

// Class is the class the next pass forces.
func (c Candidate) Class() engine.PolicyClass { return c.Remaining[0] }

// Candidates returns tr's branchable decisions in index order. A decision is
// branchable when its bucket offered at least two non-idle classes and at
// least one seen non-idle class is untried. A non-negative cutoff drops
// decisions at or after it.
func (t *CoverageTable) Candidates(tr engine.Transcript, cutoff int) []Candidate {
	var out []Candidate
	for _, d := range tr.Decisions {
		if cutoff >= 0 && d.Index >= cutoff {
			continue
		}
		nonIdle := 0
		for _, c := range d.Classes {
			if !c.IsIdle() {
				nonIdle++
			}
		}
		if nonIdle < 2 || d.Index >= len(t.entries) {
			continue
		}
		remaining := t.entries[d.Index].remaining()
		if len(remaining) == 0 {
			continue
		}
		out = append(out, Candidate{Index: d.Index, Seat: d.Seat, Remaining: remaining})
	}
	return out
}

// Next picks the latest branchable decision of tr and the card that
// represents its first remaining class.
func (t *CoverageTable) Next(tr engine.Transcript, cutoff int) (Candidate, cards.Card, bool) {
	candidates := t.Candidates(tr, cutoff)
	if len(candidates) == 0 {
		return Candidate{}, cards.Card{}, false
	}
	c := candidates[len(candidates)-1]
	card, ok := t.entries[c.Index].reps[c.Class()]
	return c, card, ok
}

// Exhausted reports whether tr has no branchable decision left.
func (t *CoverageTable) Exhausted(tr engine.Transcript, cutoff int) bool {
	return len(t.Candidates(tr, cutoff)) == 0
}
