package replay

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

var (
	busyS  = engine.BusyClass(cards.Spades)
	busyH  = engine.BusyClass(cards.Hearts)
	otherC = engine.OtherClass(cards.Clubs)
	idle   = engine.IdleClass()
)

func card(s string) cards.Card { return cards.MustParseCard(s) }

func loadProblem(t *testing.T, id string) engine.Problem {
	t.Helper()
	p, err := engine.LoadProblem(filepath.Join("..", "..", "..", "problems", id+".yaml"))
	require.NoError(t, err)
	return p
}

// repFor gives each class a distinct stand-in card.
func repFor(c engine.PolicyClass) cards.Card {
	if c.IsIdle() {
		return cards.Card{Suit: cards.Diamonds, Rank: cards.Two}
	}
	return cards.Card{Suit: c.Suit, Rank: cards.Ace}
}

func decision(index int, chosen engine.PolicyClass, classes ...engine.PolicyClass) engine.DecisionRecord {
	d := engine.DecisionRecord{Index: index, Seat: cards.West, Class: chosen, Card: repFor(chosen), Classes: classes}
	for _, c := range classes {
		d.Representatives = append(d.Representatives, engine.ClassCard{Class: c, Card: repFor(c)})
	}
	return d
}

func transcript(decisions ...engine.DecisionRecord) engine.Transcript {
	return engine.Transcript{ProblemID: "synthetic", Seed: 1, Decisions: decisions}
}

func TestExhaustsLatestBranchFirst(t *testing.T) {
	tr := transcript(
		decision(0, busyS, busyS, busyH),
		decision(1, busyS, busyS, busyH),
		decision(2, busyS, busyS, busyH),
	)
	table := NewCoverageTable()
	table.Mark(tr)
	require.Len(t, table.Candidates(tr, -1), 3)

	var order []int
	for range 5 {
		c, rep, ok := table.Next(tr, -1)
		if !ok {
			break
		}
		assert.Equal(t, busyH, c.Class())
		assert.Equal(t, card("HA"), rep)
		order = append(order, c.Index)
		table.MarkTried(c.Index, c.Class())
	}
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Empty(t, table.Candidates(tr, -1))
	assert.True(t, table.Exhausted(tr, -1))
}

func TestIdleAlternativesAreNotBranchable(t *testing.T) {
	tr := transcript(
		decision(0, idle, idle),
		decision(1, idle, idle, busyS),
		decision(2, busyS, busyS, idle),
	)
	table := NewCoverageTable()
	table.Mark(tr)
	assert.Empty(t, table.Candidates(tr, -1))
	assert.True(t, table.Exhausted(tr, -1))
}

func TestRemainingClassesInTextOrder(t *testing.T) {
	tr := transcript(decision(0, busyS, otherC, busyS, busyH))
	table := NewCoverageTable()
	table.Mark(tr)

	c, rep, ok := table.Next(tr, -1)
	require.True(t, ok)
	assert.Equal(t, []engine.PolicyClass{busyH, otherC}, c.Remaining)
	assert.Equal(t, card("HA"), rep)

	table.MarkTried(0, busyH)
	c, rep, ok = table.Next(tr, -1)
	require.True(t, ok)
	assert.Equal(t, otherC, c.Class())
	assert.Equal(t, card("CA"), rep)
	assert.True(t, table.Tried(0, busyH))
	assert.False(t, table.Tried(0, otherC))
	assert.False(t, table.Tried(9, otherC))
}

func TestCutoffDropsLaterDecisions(t *testing.T) {
	tr := transcript(
		decision(0, busyS, busyS, busyH),
		decision(1, busyS, busyS, busyH),
		decision(2, busyS, busyS, busyH),
	)
	table := NewCoverageTable()
	table.Mark(tr)

	got := table.Candidates(tr, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[len(got)-1].Index)
	assert.Empty(t, table.Candidates(tr, 0))
}

func TestMarkMergesRuns(t *testing.T) {
	table := NewCoverageTable()
	first := transcript(decision(0, busyS, busyS, busyH))
	second := transcript(decision(0, busyH, busyS, busyH))

	table.Mark(first)
	assert.False(t, table.Exhausted(first, -1))
	table.Mark(second)
	assert.True(t, table.Exhausted(first, -1))
	assert.True(t, table.Exhausted(second, -1))
}

func TestChosenCardRepresentsItsClass(t *testing.T) {
	d := decision(0, busyS, busyS, busyH)
	d.Card = card("SJ")
	second := transcript(decision(0, busyH, busyS, busyH))

	table := NewCoverageTable()
	table.Mark(second)
	table.Mark(transcript(d))
	assert.Equal(t, card("SJ"), table.entries[0].reps[busyS])
	assert.Equal(t, card("HA"), table.entries[0].reps[busyH])
}
