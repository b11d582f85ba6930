package threat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
)

func card(s string) cards.Card { return cards.MustParseCard(s) }

func ranks(t *testing.T, text string) cards.RankSet {
	t.Helper()
	var s cards.RankSet
	require.NoError(t, s.UnmarshalText([]byte(text)))
	return s
}

// p001Deal is a three-card ending: North holds the spade and heart threats,
// West guards both.
func p001Deal(t *testing.T) cards.Deal {
	var d cards.Deal
	d[cards.North][cards.Spades] = ranks(t, "A8")
	d[cards.North][cards.Hearts] = ranks(t, "8")
	d[cards.East][cards.Diamonds] = ranks(t, "AKQ")
	d[cards.South][cards.Spades] = ranks(t, "5")
	d[cards.South][cards.Diamonds] = ranks(t, "2")
	d[cards.South][cards.Clubs] = ranks(t, "A")
	d[cards.West][cards.Spades] = ranks(t, "KJ")
	d[cards.West][cards.Hearts] = ranks(t, "A")
	return d
}

func TestThreatLengthAndBusyLabels(t *testing.T) {
	deal := p001Deal(t)
	c, err := New(deal, []cards.Card{card("S8")})
	require.NoError(t, err)

	spade, ok := c.ActiveThreat(cards.Spades)
	require.True(t, ok)
	assert.Equal(t, cards.North, spade.Owner)
	assert.Equal(t, 2, spade.Length)
	assert.Equal(t, StopSingle, spade.Stop)

	assert.Equal(t, ranks(t, "KJ"), c.Labels(cards.West, cards.Spades).Busy)
	assert.True(t, c.Labels(cards.West, cards.Spades).Idle.Empty())
	assert.True(t, c.IsIdle(cards.West, card("HA")), "no heart threat declared")
	assert.True(t, c.IsIdle(cards.East, card("DK")))
	assert.NoError(t, c.CheckIntegrity(deal))
}

func TestBusyOnlyTopThreatLengthCards(t *testing.T) {
	var deal cards.Deal
	deal[cards.North][cards.Spades] = ranks(t, "A8")
	deal[cards.West][cards.Spades] = ranks(t, "KJ7")
	deal[cards.East][cards.Spades] = ranks(t, "9")

	c, err := New(deal, []cards.Card{card("S8")})
	require.NoError(t, err)

	west := c.Labels(cards.West, cards.Spades)
	assert.Equal(t, ranks(t, "KJ"), west.Busy)
	assert.Equal(t, ranks(t, "7"), west.Idle)

	// East holds a card above the threat but is too short to guard it.
	east := c.Labels(cards.East, cards.Spades)
	assert.True(t, east.Busy.Empty())
	assert.Equal(t, ranks(t, "9"), east.Idle)
	assert.Equal(t, StopSingle, c.View(cards.Spades).Threat.Stop)
}

func TestDefenderWithoutHigherCardIsIdle(t *testing.T) {
	var deal cards.Deal
	deal[cards.North][cards.Hearts] = ranks(t, "Q9")
	deal[cards.East][cards.Hearts] = ranks(t, "8765")
	deal[cards.West][cards.Hearts] = ranks(t, "AT")

	c, err := New(deal, []cards.Card{card("H9")})
	require.NoError(t, err)

	assert.True(t, c.Labels(cards.East, cards.Hearts).Busy.Empty())
	assert.Equal(t, ranks(t, "AT"), c.Labels(cards.West, cards.Hearts).Busy)
}

func TestStopStatusAndPromotedWinner(t *testing.T) {
	var deal cards.Deal
	deal[cards.North][cards.Diamonds] = ranks(t, "5")
	deal[cards.East][cards.Diamonds] = ranks(t, "K")
	deal[cards.West][cards.Diamonds] = ranks(t, "A")
	deal[cards.South][cards.Hearts] = ranks(t, "2")
	deal[cards.East][cards.Clubs] = ranks(t, "3")

	c, err := New(deal, []cards.Card{card("D5"), card("H2")})
	require.NoError(t, err)

	stop, ok := c.StopStatus(cards.Diamonds)
	require.True(t, ok)
	assert.Equal(t, StopDouble, stop)

	stop, ok = c.StopStatus(cards.Hearts)
	require.True(t, ok)
	assert.Equal(t, StopNone, stop)

	rank, ok := c.PromotedWinnerRank(cards.Hearts)
	require.True(t, ok)
	assert.Equal(t, cards.Two, rank)
	assert.Equal(t, RolePromotedWinner, c.Role(card("H2")))
	assert.Equal(t, RoleThreat, c.Role(card("D5")))
	assert.Equal(t, RoleBusy, c.Role(card("DA")))
	assert.Equal(t, RoleIdle, c.Role(card("C3")))
	assert.Equal(t, RoleNone, c.Role(card("C9")))

	_, ok = c.PromotedWinnerRank(cards.Diamonds)
	assert.False(t, ok)
	_, ok = c.StopStatus(cards.Spades)
	assert.False(t, ok)
}

func TestIdleThreatThreshold(t *testing.T) {
	deal := p001Deal(t)
	c, err := New(deal, []cards.Card{card("S8"), card("H8")})
	require.NoError(t, err)

	threshold, ok := c.IdleThreatThreshold(cards.Spades)
	require.True(t, ok)
	assert.Equal(t, cards.Eight, threshold)

	_, ok = c.IdleThreatThreshold(cards.Clubs)
	assert.False(t, ok)
}

func TestSetupErrors(t *testing.T) {
	deal := p001Deal(t)

	_, err := New(deal, []cards.Card{card("S9")})
	assert.ErrorIs(t, err, ErrThreatNotHeld)

	_, err = New(deal, []cards.Card{card("S8"), card("SA")})
	assert.ErrorIs(t, err, ErrDuplicateThreatSuit)

	deal[cards.East][cards.Spades] = ranks(t, "8")
	_, err = New(deal, []cards.Card{card("S8")})
	assert.ErrorIs(t, err, ErrThreatMultipleHolders)
}

func TestThreatInactiveAfterHolderChanges(t *testing.T) {
	deal := p001Deal(t)
	c, err := New(deal, []cards.Card{card("S8")})
	require.NoError(t, err)
	require.True(t, c.BusyIn(cards.West, cards.Spades))

	// North gives up the eight.
	deal = deal.Without(cards.North, card("S8"))
	c = c.Update(deal, card("S8"))

	_, active := c.ActiveThreat(cards.Spades)
	assert.False(t, active)
	desc, declared := c.Threat(cards.Spades)
	require.True(t, declared)
	assert.Zero(t, desc.Length)
	assert.Equal(t, ranks(t, "KJ"), c.Labels(cards.West, cards.Spades).Idle)
	assert.True(t, c.Labels(cards.West, cards.Spades).Busy.Empty())
	assert.NoError(t, c.CheckIntegrity(deal))

	// Once inactive the threat never comes back, even if its card reappears.
	deal[cards.North][cards.Spades] = deal[cards.North][cards.Spades].With(cards.Eight)
	c = c.Update(deal, card("S5"))
	_, active = c.ActiveThreat(cards.Spades)
	assert.False(t, active)
}

func TestThreatLengthShrinksWithOwnerHolding(t *testing.T) {
	deal := p001Deal(t)
	c, err := New(deal, []cards.Card{card("S8")})
	require.NoError(t, err)

	deal = deal.Without(cards.North, card("SA"))
	c = c.Update(deal, card("SA"))

	spade, ok := c.ActiveThreat(cards.Spades)
	require.True(t, ok)
	assert.Equal(t, 1, spade.Length)
	assert.Equal(t, ranks(t, "K"), c.Labels(cards.West, cards.Spades).Busy)
	assert.Equal(t, ranks(t, "J"), c.Labels(cards.West, cards.Spades).Idle)
}

func TestUpdateLeavesUntouchedSuitsIdentical(t *testing.T) {
	deal := p001Deal(t)
	c, err := New(deal, []cards.Card{card("S8"), card("H8")})
	require.NoError(t, err)

	deal = deal.Without(cards.South, card("CA"))
	next := c.Update(deal, card("CA"))

	assert.NotSame(t, c.View(cards.Clubs), next.View(cards.Clubs))
	for _, suit := range []cards.Suit{cards.Spades, cards.Hearts, cards.Diamonds} {
		assert.Same(t, c.View(suit), next.View(suit), suit.String())
	}
	// The old classification is untouched.
	assert.Equal(t, RoleDefault, c.Role(card("CA")))
	assert.Equal(t, RoleNone, next.Role(card("CA")))
}

func TestCheckIntegrityDetectsStaleLabels(t *testing.T) {
	deal := p001Deal(t)
	c, err := New(deal, nil)
	require.NoError(t, err)

	stale := deal.Without(cards.West, card("HA"))
	err = c.CheckIntegrity(stale)
	assert.ErrorIs(t, err, ErrLabelIntegrity)
	assert.NoError(t, c.Update(stale, card("HA")).CheckIntegrity(stale))
}
