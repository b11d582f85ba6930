package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

func p001Transcript(t *testing.T) engine.Transcript {
	t.Helper()
	e := engine.New(zaptest.NewLogger(t))
	p := loadProblem(t, "p001")
	s, err := e.Init(p)
	require.NoError(t, err)
	tr := playOut(t, e, s, Scripted(p.UserLine)).Transcript()
	tr.ID = uuid.NewString()
	return tr
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "transcripts")
	store := NewFileStore(dir, zaptest.NewLogger(t))

	_, err := store.Latest(ctx, "p001")
	assert.ErrorIs(t, err, ErrNotFound)

	tr := p001Transcript(t)
	require.NoError(t, store.Save(ctx, tr))

	got, err := store.Latest(ctx, "p001")
	require.NoError(t, err)
	assert.Equal(t, tr, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are cleaned up")
	assert.Equal(t, "p001.transcript", entries[0].Name())
}

func TestFileStoreOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir(), zaptest.NewLogger(t))

	first := p001Transcript(t)
	second := p001Transcript(t)
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Latest(ctx, "p001")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p001.transcript"), []byte("not gzip"), 0o644))

	_, err := NewFileStore(dir, zaptest.NewLogger(t)).Latest(context.Background(), "p001")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileStoreHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewFileStore(t.TempDir(), nil)
	assert.ErrorIs(t, store.Save(ctx, engine.Transcript{ProblemID: "p001"}), context.Canceled)
	_, err := store.Latest(ctx, "p001")
	assert.ErrorIs(t, err, context.Canceled)
}
