package replay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

var (
	// ErrRunNotFinished is returned when recording a state whose hand is still in play.
	ErrRunNotFinished = errors.New("run not finished")
	// ErrProblemMismatch is returned when a run or transcript belongs to another problem.
	ErrProblemMismatch = errors.New("problem mismatch")
)

// Tracker keeps the coverage of one problem across runs. Only successful
// runs become the latest transcript; every pass forces one untried class of
// the latest transcript's last branchable decision.
type Tracker struct {
	problemID string
	logger    *zap.Logger

	mu       sync.Mutex
	coverage *CoverageTable
	latest   *engine.Transcript
	// cutoff limits the next plan to decisions before the user's divergence
	// in the previous run. -1 when unset.
	cutoff int
	runs   int
}

// NewTracker creates a tracker for problemID.
func NewTracker(problemID string, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		problemID: problemID,
		logger:    logger,
		coverage:  NewCoverageTable(),
		cutoff:    -1,
	}
}

// ProblemID returns the problem the tracker covers.
func (t *Tracker) ProblemID() string { return t.problemID }

// Record registers a finished run from its final state and returns its
// transcript. retained reports whether the run met its goal and is now the
// latest transcript.
func (t *Tracker) Record(final *engine.State) (tr engine.Transcript, retained bool, err error) {
	if final.ProblemID != t.problemID {
		return engine.Transcript{}, false, fmt.Errorf("%w: tracker %s, run %s", ErrProblemMismatch, t.problemID, final.ProblemID)
	}
	if final.Phase != engine.PhaseEnd {
		return engine.Transcript{}, false, fmt.Errorf("%w: problem %s", ErrRunNotFinished, t.problemID)
	}

	tr = final.Transcript()
	tr.ID = uuid.NewString()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs++

	if final.Replay.Disabled == engine.DisableUserDiverged {
		t.cutoff = final.Replay.DisabledAt
	}
	if !final.Succeeded() {
		t.logger.Info("run failed; transcript discarded",
			zap.String("problem_id", t.problemID),
			zap.String("transcript_id", tr.ID),
			zap.Int("run", t.runs),
			zap.Int("ns", final.Tricks.NS),
			zap.Int("ew", final.Tricks.EW),
		)
		return tr, false, nil
	}

	t.coverage.Mark(tr)
	t.latest = &tr
	t.logger.Info("recorded successful transcript",
		zap.String("problem_id", t.problemID),
		zap.String("transcript_id", tr.ID),
		zap.Int("run", t.runs),
		zap.Int("decisions", len(tr.Decisions)),
	)
	return tr, true, nil
}

// Restore seeds the tracker with a transcript saved by an earlier session.
func (t *Tracker) Restore(tr engine.Transcript) error {
	if tr.ProblemID != t.problemID {
		return fmt.Errorf("%w: tracker %s, transcript %s", ErrProblemMismatch, t.problemID, tr.ProblemID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.coverage.Mark(tr)
	t.latest = &tr
	return nil
}

// Plan returns the forcing for the next pass and marks its class tried, so
// a pass that fails is never offered again. ok is false once the latest
// transcript has no branchable decision.
func (t *Tracker) Plan() (f engine.Forcing, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.cutoff
	t.cutoff = -1
	if t.latest == nil {
		return engine.Forcing{}, false
	}

	c, card, ok := t.coverage.Next(*t.latest, cutoff)
	if !ok {
		t.logger.Info("coverage exhausted",
			zap.String("problem_id", t.problemID),
			zap.Int("runs", t.runs),
			zap.Int("cutoff", cutoff),
		)
		return engine.Forcing{}, false
	}
	t.coverage.MarkTried(c.Index, c.Class())

	latest := *t.latest
	t.logger.Info("planned coverage pass",
		zap.String("problem_id", t.problemID),
		zap.String("transcript_id", latest.ID),
		zap.Int("divergence", c.Index),
		zap.String("seat", c.Seat.String()),
		zap.String("class", c.Class().String()),
		zap.String("card", card.String()),
		zap.Int("remaining", len(c.Remaining)-1),
	)
	return engine.Forcing{Transcript: &latest, Divergence: c.Index, Class: c.Class(), Card: card}, true
}

// Candidates returns the branchable decisions of the latest transcript.
func (t *Tracker) Candidates() []Candidate {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == nil {
		return nil
	}
	return t.coverage.Candidates(*t.latest, t.cutoff)
}

// Latest returns the latest successful transcript.
func (t *Tracker) Latest() (engine.Transcript, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == nil {
		return engine.Transcript{}, false
	}
	return *t.latest, true
}

// Exhausted reports whether no further pass can be planned.
func (t *Tracker) Exhausted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest == nil || t.coverage.Exhausted(*t.latest, t.cutoff)
}

// Runs returns the number of runs recorded.
func (t *Tracker) Runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}
