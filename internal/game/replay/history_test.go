package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

func TestHistoryUndo(t *testing.T) {
	e := engine.New(zaptest.NewLogger(t))
	s, err := e.Init(loadProblem(t, "p001"))
	require.NoError(t, err)

	h := NewHistory()
	_, ok := h.Undo()
	assert.False(t, ok)

	start := s
	h.Push(s)
	s, _ = e.Apply(s, cards.Play{Seat: cards.South, Card: card("CA")})
	afterLead := s
	h.Push(s)
	s, _ = e.Apply(s, cards.Play{Seat: cards.North, Card: card("H8")})
	require.Equal(t, 2, h.Len())
	require.Len(t, s.UserPlays, 2)

	prev, ok := h.Undo()
	require.True(t, ok)
	assert.Same(t, afterLead, prev)
	assert.Len(t, prev.UserPlays, 1)
	assert.Len(t, prev.Decisions, 1, "the first discard survives the undo")

	prev, ok = h.Undo()
	require.True(t, ok)
	assert.Same(t, start, prev)
	assert.Empty(t, prev.UserPlays)
	assert.Empty(t, prev.Decisions)
	assert.Equal(t, 0, h.Len())
}

func TestHistoryNavigation(t *testing.T) {
	e := engine.New(zaptest.NewLogger(t))
	s, err := e.Init(loadProblem(t, "p001"))
	require.NoError(t, err)

	h := NewHistory()
	h.Push(s)
	next, _ := e.Apply(s, cards.Play{Seat: cards.South, Card: card("CA")})
	h.Push(next)

	assert.Nil(t, h.Next())
	assert.Same(t, next, h.Previous())
	assert.Same(t, s, h.Previous())
	assert.Nil(t, h.Previous())

	h.Start()
	assert.Same(t, s, h.Next())
	assert.Same(t, next, h.Next())
	assert.Same(t, next, h.At(1))
	assert.Nil(t, h.At(2))

	h.Reset()
	assert.Equal(t, 0, h.Len())
	assert.Nil(t, h.At(0))
}
