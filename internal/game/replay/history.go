package replay

import (
	"sync"

	"github.com/thraizz/squeeze-server-go/internal/game/engine"
)

// History is the undo stack of one run: the state before each user play.
// States are immutable, so keeping them is enough to rewind the whole run,
// including its recorded decisions and user plays.
type History struct {
	mu     sync.RWMutex
	states []*engine.State
	cursor int
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{states: make([]*engine.State, 0)}
}

// Push records s as the state before the next user play.
func (h *History) Push(s *engine.State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.states = append(h.states, s)
	h.cursor = len(h.states)
}

// Undo pops and returns the state before the last user play.
func (h *History) Undo() (*engine.State, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.states) == 0 {
		return nil, false
	}
	last := h.states[len(h.states)-1]
	h.states[len(h.states)-1] = nil
	h.states = h.states[:len(h.states)-1]
	h.cursor = len(h.states)
	return last, true
}

// Reset drops every recorded state.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.states = h.states[:0]
	h.cursor = 0
}

// Len returns the number of recorded states.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.states)
}

// At returns the state at index, or nil when out of range.
func (h *History) At(index int) *engine.State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if index >= 0 && index < len(h.states) {
		return h.states[index]
	}
	return nil
}

// Start rewinds the review cursor to the first state.
func (h *History) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cursor = 0
}

// Next returns the state under the review cursor and advances it.
func (h *History) Next() *engine.State {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor < len(h.states) {
		s := h.states[h.cursor]
		h.cursor++
		return s
	}
	return nil
}

// Previous moves the review cursor back and returns that state.
func (h *History) Previous() *engine.State {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor > 0 {
		h.cursor--
		return h.states[h.cursor]
	}
	return nil
}
