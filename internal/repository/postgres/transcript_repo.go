// Package postgres stores the latest successful transcript of each problem
// in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/engine"
	"github.com/thraizz/squeeze-server-go/internal/game/replay"
)

// TranscriptRepo handles transcript database operations.
type TranscriptRepo struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

var _ replay.TranscriptStore = (*TranscriptRepo)(nil)

// NewTranscriptRepo creates a TranscriptRepo.
func NewTranscriptRepo(db *pgxpool.Pool, logger *zap.Logger) *TranscriptRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptRepo{db: db, logger: logger}
}

// Save replaces the stored transcript of t's problem.
func (r *TranscriptRepo) Save(ctx context.Context, t engine.Transcript) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO transcripts (problem_id, transcript_id, seed, decisions, body, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (problem_id) DO UPDATE
		 SET transcript_id = EXCLUDED.transcript_id, seed = EXCLUDED.seed,
		     decisions = EXCLUDED.decisions, body = EXCLUDED.body, updated_at = now()`,
		t.ProblemID, t.ID, int64(t.Seed), len(t.Decisions), body,
	)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	r.logger.Debug("saved transcript",
		zap.String("problem_id", t.ProblemID),
		zap.String("transcript_id", t.ID),
	)
	return nil
}

// Latest returns the stored transcript of problemID, or replay.ErrNotFound.
func (r *TranscriptRepo) Latest(ctx context.Context, problemID string) (engine.Transcript, error) {
	var body []byte
	err := r.db.QueryRow(ctx,
		`SELECT body FROM transcripts WHERE problem_id = $1`, problemID,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.Transcript{}, fmt.Errorf("%w: problem %s", replay.ErrNotFound, problemID)
	}
	if err != nil {
		return engine.Transcript{}, fmt.Errorf("latest transcript: %w", err)
	}

	var t engine.Transcript
	if err := json.Unmarshal(body, &t); err != nil {
		return engine.Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}
	return t, nil
}

// Delete removes the stored transcript of problemID.
func (r *TranscriptRepo) Delete(ctx context.Context, problemID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM transcripts WHERE problem_id = $1`, problemID); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}
