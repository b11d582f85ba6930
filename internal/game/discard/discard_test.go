package discard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/threat"
)

func card(s string) cards.Card { return cards.MustParseCard(s) }

func ranks(t *testing.T, text string) cards.RankSet {
	t.Helper()
	var s cards.RankSet
	require.NoError(t, s.UnmarshalText([]byte(text)))
	return s
}

type fixedIntn int

func (f fixedIntn) Intn(n int) int { return int(f) % n }

func TestTierNames(t *testing.T) {
	assert.Equal(t, "tier1a", Tier1a.String())
	assert.Equal(t, "tier3b", Tier3b.String())
	assert.Equal(t, "tier4", Tier4.String())
	assert.True(t, Tier1c.Idle())
	assert.False(t, Tier2a.Idle())
	assert.True(t, Tier3b.Busy())
	assert.False(t, Tier4.Busy())
}

func TestAllBusySinglyStoppedGoesToTier3b(t *testing.T) {
	var deal cards.Deal
	deal[cards.North][cards.Spades] = ranks(t, "A8")
	deal[cards.North][cards.Hearts] = ranks(t, "8")
	deal[cards.West][cards.Spades] = ranks(t, "KJ")
	deal[cards.West][cards.Hearts] = ranks(t, "A")
	deal[cards.East][cards.Diamonds] = ranks(t, "AKQ")

	c, err := threat.New(deal, []cards.Card{card("H8"), card("S8")})
	require.NoError(t, err)

	legal := deal[cards.West].Cards()
	tiers := Compute(c, cards.West, legal)
	tier, bucket := tiers.Select()
	assert.Equal(t, Tier3b, tier)
	assert.ElementsMatch(t, []cards.Card{card("SK"), card("SJ"), card("HA")}, bucket)
	assert.Empty(t, tiers.Bucket(Tier3a), "no busy card ranks below an eight")
	assert.Equal(t, legal, tiers.Bucket(Tier4))
}

func TestIdleAlwaysPrecedesBusy(t *testing.T) {
	var deal cards.Deal
	deal[cards.North][cards.Spades] = ranks(t, "A8")
	deal[cards.West][cards.Spades] = ranks(t, "KJ")
	deal[cards.West][cards.Clubs] = ranks(t, "4")
	deal[cards.East][cards.Hearts] = ranks(t, "2")

	c, err := threat.New(deal, []cards.Card{card("S8")})
	require.NoError(t, err)

	for seed := 0; seed < 10; seed++ {
		choice, err := Choose(c, cards.West, deal[cards.West].Cards(), fixedIntn(seed))
		require.NoError(t, err)
		assert.Equal(t, Tier1a, choice.Tier)
		assert.Equal(t, card("C4"), choice.Card)
		assert.False(t, c.IsBusy(cards.West, choice.Card))
	}
}

func TestIdleBelowThresholdIsTier1b(t *testing.T) {
	var deal cards.Deal
	deal[cards.North][cards.Spades] = ranks(t, "A8")
	deal[cards.West][cards.Spades] = ranks(t, "KJ74")
	deal[cards.East][cards.Spades] = ranks(t, "Q9")
	deal[cards.East][cards.Diamonds] = ranks(t, "65")

	c, err := threat.New(deal, []cards.Card{card("S8")})
	require.NoError(t, err)

	// West: K J busy, 7 4 idle and below the eight.
	tiers := Compute(c, cards.West, deal[cards.West].Cards())
	assert.Equal(t, []cards.Card{card("S7"), card("S4")}, tiers.Bucket(Tier1b))
	assert.Empty(t, tiers.Bucket(Tier1a))

	// East is double-busy with West: Q 9 both above the eight.
	tiers = Compute(c, cards.East, []cards.Card{card("SQ"), card("S9")})
	tier, bucket := tiers.Select()
	assert.Equal(t, Tier2b, tier)
	assert.Equal(t, []cards.Card{card("SQ"), card("S9")}, bucket)
}

func TestDoublyStoppedBeforeSinglyStopped(t *testing.T) {
	var deal cards.Deal
	// Diamonds: both defenders guard the five.
	deal[cards.North][cards.Diamonds] = ranks(t, "5")
	deal[cards.East][cards.Diamonds] = ranks(t, "K")
	deal[cards.West][cards.Diamonds] = ranks(t, "A")
	// Hearts: only West guards the nine.
	deal[cards.South][cards.Hearts] = ranks(t, "A9")
	deal[cards.West][cards.Hearts] = ranks(t, "KQ")

	c, err := threat.New(deal, []cards.Card{card("D5"), card("H9")})
	require.NoError(t, err)

	tiers := Compute(c, cards.West, deal[cards.West].Cards())
	assert.Equal(t, []cards.Card{card("DA")}, tiers.Bucket(Tier2b))
	assert.Equal(t, []cards.Card{card("HK"), card("HQ")}, tiers.Bucket(Tier3b))

	tier, bucket := tiers.Select()
	assert.Equal(t, Tier2b, tier)
	assert.Equal(t, []cards.Card{card("DA")}, bucket)
}

func TestBelowThreatRankSubTiers(t *testing.T) {
	var deal cards.Deal
	deal[cards.North][cards.Clubs] = ranks(t, "AQT")
	deal[cards.West][cards.Clubs] = ranks(t, "KJ92")
	deal[cards.East][cards.Hearts] = ranks(t, "3")

	c, err := threat.New(deal, []cards.Card{card("CT")})
	require.NoError(t, err)

	// Threat length three: West's top three clubs are busy and the nine sits below the ten.
	tiers := Compute(c, cards.West, deal[cards.West].Cards())
	assert.Equal(t, []cards.Card{card("C9")}, tiers.Bucket(Tier3a))
	assert.Equal(t, []cards.Card{card("CK"), card("CJ"), card("C9")}, tiers.Bucket(Tier3b))
	assert.Equal(t, []cards.Card{card("C2")}, tiers.Bucket(Tier1b))

	tier, _ := tiers.Select()
	assert.Equal(t, Tier1b, tier)
}

func TestComputeWithoutClassification(t *testing.T) {
	legal := []cards.Card{card("S2"), card("H3")}
	tier, bucket := Compute(nil, cards.East, legal).Select()
	assert.Equal(t, Tier4, tier)
	assert.Equal(t, legal, bucket)
}

func TestChooseNoLegalCards(t *testing.T) {
	_, err := Choose(nil, cards.East, nil, fixedIntn(0))
	assert.ErrorIs(t, err, ErrNoLegalCards)
}

func TestExplain(t *testing.T) {
	var deal cards.Deal
	deal[cards.North][cards.Spades] = ranks(t, "A8")
	deal[cards.West][cards.Spades] = ranks(t, "KJ74")
	deal[cards.West][cards.Clubs] = ranks(t, "Q")
	deal[cards.East][cards.Hearts] = ranks(t, "2")

	c, err := threat.New(deal, []cards.Card{card("S8")})
	require.NoError(t, err)

	exp := Explain(c, cards.West, deal[cards.West].Cards())
	assert.True(t, exp.IntegrityOK)
	assert.Empty(t, exp.Missing)
	assert.Empty(t, exp.Overlap)
	assert.Equal(t, []cards.Card{card("CQ")}, exp.Tier1a)
	assert.Equal(t, []cards.Card{card("S7"), card("S4")}, exp.Tier1b)
	assert.Empty(t, exp.Tier1c)
	assert.ElementsMatch(t, []cards.Card{card("S7"), card("S4"), card("CQ")}, exp.IdleLegal)

	require.Len(t, exp.Threats, 1)
	assert.Equal(t, cards.Spades, exp.Threats[0].Suit)
	assert.Equal(t, cards.Eight, exp.Threats[0].Threshold)
	assert.Equal(t, threat.StopSingle, exp.Threats[0].Stop)

	require.Len(t, exp.Cards, 5)
	assert.Equal(t, "busy", exp.Cards[0].Label)
	assert.Equal(t, cards.Eight, exp.Cards[0].Threshold)
	assert.False(t, exp.Cards[0].BelowThreshold)
	assert.Equal(t, "idle", exp.Cards[4].Label)
	assert.False(t, exp.Cards[4].ActiveThreat)
}
