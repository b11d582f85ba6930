//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
	"github.com/thraizz/squeeze-server-go/internal/game/engine"
	"github.com/thraizz/squeeze-server-go/internal/game/replay"
)

func setup(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("SQUEEZE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SQUEEZE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url, 2, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, EnsureSchema(ctx, pool))
	_, err = pool.Exec(ctx, `DELETE FROM transcripts WHERE problem_id LIKE 'it-%'`)
	require.NoError(t, err)
	return pool
}

func TestTranscriptSaveAndLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewTranscriptRepo(setup(t), zaptest.NewLogger(t))

	_, err := repo.Latest(ctx, "it-missing")
	assert.ErrorIs(t, err, replay.ErrNotFound)

	tr := engine.Transcript{
		ID:        "t1",
		ProblemID: "it-p001",
		Seed:      101,
		Decisions: []engine.DecisionRecord{{
			Index: 0,
			Seat:  cards.West,
			Card:  cards.MustParseCard("SK"),
			Class: engine.BusyClass(cards.Spades),
		}},
	}
	require.NoError(t, repo.Save(ctx, tr))

	got, err := repo.Latest(ctx, "it-p001")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, uint32(101), got.Seed)
	require.Len(t, got.Decisions, 1)
	assert.Equal(t, engine.BusyClass(cards.Spades), got.Decisions[0].Class)

	tr.ID = "t2"
	require.NoError(t, repo.Save(ctx, tr))
	got, err = repo.Latest(ctx, "it-p001")
	require.NoError(t, err)
	assert.Equal(t, "t2", got.ID)

	require.NoError(t, repo.Delete(ctx, "it-p001"))
	_, err = repo.Latest(ctx, "it-p001")
	assert.ErrorIs(t, err, replay.ErrNotFound)
}
