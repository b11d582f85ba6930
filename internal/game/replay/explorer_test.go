package replay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

func TestExploreAdaptiveUserP001(t *testing.T) {
	report := explore(t, newExplorer(t, loadProblem(t, "p001"), p001User()))

	require.Len(t, report.Runs, 2)
	assert.True(t, report.Exhausted)
	assert.Equal(t, 2, report.Successes())

	baseline, pass := report.Runs[0], report.Runs[1]
	assert.Equal(t, -1, baseline.Divergence)
	assert.Nil(t, baseline.ForcedClass)
	assert.Equal(t, card("SK"), baseline.Transcript.Decisions[0].Card)
	assert.Equal(t, engine.Score{NS: 3}, baseline.Tricks)

	assert.Equal(t, 1, pass.Pass)
	assert.Equal(t, 0, pass.Divergence)
	require.NotNil(t, pass.ForcedClass)
	assert.Equal(t, busyH, *pass.ForcedClass)
	assert.True(t, pass.Retained)
	assert.Equal(t, card("HA"), pass.Transcript.Decisions[0].Card)
	assert.Equal(t, busyH, pass.Transcript.Decisions[0].Class)
	assert.NotEqual(t, baseline.Checksum.Hash, pass.Checksum.Hash)
}

func TestExploreScriptedLineFailsOnHeartDiscard(t *testing.T) {
	p := loadProblem(t, "p001")
	x := newExplorer(t, p, Scripted(p.UserLine))
	report := explore(t, x)

	require.Len(t, report.Runs, 2)
	assert.True(t, report.Exhausted)
	assert.True(t, report.Runs[0].Success)

	failed := report.Runs[1]
	assert.False(t, failed.Success)
	assert.False(t, failed.Retained)
	assert.Equal(t, engine.Score{NS: 2, EW: 1}, failed.Tricks)

	// The failed pass leaves the baseline as the latest transcript.
	latest, ok := x.Tracker().Latest()
	require.True(t, ok)
	assert.Equal(t, report.Runs[0].Transcript.ID, latest.ID)
	assert.Equal(t, 2, x.Tracker().Runs())
}

func TestExploreIsDeterministic(t *testing.T) {
	p := loadProblem(t, "p001")
	first := explore(t, newExplorer(t, p, p001User()))
	second := explore(t, newExplorer(t, p, p001User()))

	require.Len(t, second.Runs, len(first.Runs))
	for i := range first.Runs {
		assert.Equal(t, first.Runs[i].Checksum, second.Runs[i].Checksum, "run %d", i)
	}
}

func TestExploreResumesFromStore(t *testing.T) {
	p := loadProblem(t, "p001")
	store := NewFileStore(t.TempDir(), zaptest.NewLogger(t))

	first := explore(t, newExplorer(t, p, p001User(), WithStore(store)))
	require.Len(t, first.Runs, 2)

	stored, err := store.Latest(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Runs[1].Transcript.ID, stored.ID)

	// A fresh explorer only knows the stored heart discard, so it forces the
	// spade discard once more.
	second := explore(t, newExplorer(t, p, p001User(), WithStore(store)))
	require.Len(t, second.Runs, 1)
	run := second.Runs[0]
	assert.Equal(t, 1, run.Pass)
	assert.Equal(t, 0, run.Divergence)
	require.NotNil(t, run.ForcedClass)
	assert.Equal(t, busyS, *run.ForcedClass)
	assert.True(t, run.Success)
	assert.Equal(t, card("SK"), run.Transcript.Decisions[0].Card)
	assert.Equal(t, first.Runs[0].Tricks, run.Tricks)
	assert.True(t, second.Exhausted)
}

func TestExploreMaxPasses(t *testing.T) {
	p := loadProblem(t, "p001")
	report := explore(t, newExplorer(t, p, p001User(), WithMaxPasses(0)))
	assert.Len(t, report.Runs, 2, "zero keeps the default cap")

	x := newExplorer(t, p, p001User())
	x.maxPasses = 0
	report = explore(t, x)
	require.Len(t, report.Runs, 1)
	assert.False(t, report.Exhausted)
}

func TestPlayErrors(t *testing.T) {
	p := loadProblem(t, "p001")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newExplorer(t, p, p001User()).Play(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)

	cheat := UserFunc(func(_ *engine.State, _ []cards.Play) cards.Play {
		return cards.Play{Seat: cards.South, Card: card("SA")}
	})
	_, err = newExplorer(t, p, cheat).Play(context.Background(), nil)
	assert.ErrorIs(t, err, ErrIllegalUserPlay)

	p.Policies = nil
	p.Threats = nil
	p.UserSeats = []cards.Seat{cards.South}
	_, err = newExplorer(t, p, FirstLegal).Play(context.Background(), nil)
	assert.ErrorIs(t, err, ErrRunHalted)
}

func TestChecksum(t *testing.T) {
	e := engine.New(zaptest.NewLogger(t))
	p := loadProblem(t, "p001")
	s, err := e.Init(p)
	require.NoError(t, err)

	_, events := e.Apply(s, cards.Play{Seat: cards.South, Card: card("CA")})
	a, err := ComputeChecksum(events)
	require.NoError(t, err)
	b, err := ComputeChecksum(events)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a.Hash, 64)
	assert.Equal(t, len(events), a.Events)
	assert.Equal(t, a.Hash[:12], a.String())

	c, err := ComputeChecksum(events[:1])
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash, c.Hash)

	empty, err := ComputeChecksum(nil)
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", empty.Hash)
	assert.Equal(t, "", Checksum{}.String())
}
