package replay

import (
	"compress/gzip"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

// ErrNotFound is returned when no transcript is stored for a problem.
var ErrNotFound = errors.New("transcript not found")

// TranscriptStore persists the latest successful transcript of each problem.
type TranscriptStore interface {
	Save(ctx context.Context, t engine.Transcript) error
	Latest(ctx context.Context, problemID string) (engine.Transcript, error)
}

// transcriptMetadata heads every stored transcript file.
type transcriptMetadata struct {
	ProblemID     string
	TranscriptID  string
	Timestamp     time.Time
	Version       int
	DecisionCount int
}

const transcriptVersion = 1

// FileStore keeps one gzipped gob file per problem in a directory.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger}
}

func (s *FileStore) path(problemID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.transcript", problemID))
}

// Save overwrites the stored transcript of t's problem.
func (s *FileStore) Save(ctx context.Context, t engine.Transcript) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temporary file first so a failed save keeps the previous transcript.
	tmp, err := os.CreateTemp(s.dir, t.ProblemID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encodeTranscript(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(t.ProblemID)); err != nil {
		return fmt.Errorf("failed to replace transcript: %w", err)
	}

	s.logger.Info("saved transcript to disk",
		zap.String("problem_id", t.ProblemID),
		zap.String("transcript_id", t.ID),
		zap.Int("decisions", len(t.Decisions)),
		zap.String("directory", s.dir),
	)
	return nil
}

func encodeTranscript(f *os.File, t engine.Transcript) error {
	gzipWriter := gzip.NewWriter(f)
	encoder := gob.NewEncoder(gzipWriter)

	metadata := transcriptMetadata{
		ProblemID:     t.ProblemID,
		TranscriptID:  t.ID,
		Timestamp:     time.Now(),
		Version:       transcriptVersion,
		DecisionCount: len(t.Decisions),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := encoder.Encode(&t); err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush transcript: %w", err)
	}
	return nil
}

// Latest loads the stored transcript of problemID.
func (s *FileStore) Latest(ctx context.Context, problemID string) (engine.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return engine.Transcript{}, err
	}
	file, err := os.Open(s.path(problemID))
	if errors.Is(err, fs.ErrNotExist) {
		return engine.Transcript{}, fmt.Errorf("%w: problem %s", ErrNotFound, problemID)
	}
	if err != nil {
		return engine.Transcript{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return engine.Transcript{}, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata transcriptMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return engine.Transcript{}, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != transcriptVersion {
		return engine.Transcript{}, fmt.Errorf("unsupported transcript version: %d", metadata.Version)
	}

	var t engine.Transcript
	if err := decoder.Decode(&t); err != nil {
		return engine.Transcript{}, fmt.Errorf("failed to decode transcript: %w", err)
	}
	if t.ProblemID != problemID || len(t.Decisions) != metadata.DecisionCount {
		return engine.Transcript{}, fmt.Errorf("corrupt transcript for problem %s", problemID)
	}

	s.logger.Info("loaded transcript from disk",
		zap.String("problem_id", problemID),
		zap.String("transcript_id", t.ID),
		zap.Time("saved_at", metadata.Timestamp),
	)
	return t, nil
}
