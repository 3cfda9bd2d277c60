// Package migration implements the one-shot migration engine: a process-wide
// lifecycle state machine and per-kind payload appliers with a persisted
// exactly-once guarantee keyed by entity id.
package migration

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/helix-health/healthvault/internal/store"
	"github.com/helix-health/healthvault/pkg/types"
)

// Phase is the migration lifecycle phase.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in_progress"
	PhaseComplete   Phase = "complete"
)

// State is the process-wide migration state singleton. The engine is its only
// writer; the store consults it (through the Guard interface) on the fast
// path before every ordinary mutation. The phase is persisted in the settings
// table so a restart resumes where the process left off.
//
// The phase is held in an atomic so the guard fast path never takes a lock:
// guarded store mutations call CheckWritable while holding the store mutex,
// and transition takes the store mutex to persist, so a locking guard would
// order the two mutexes both ways.
type State struct {
	mu     sync.Mutex   // serializes transitions
	phase  atomic.Value // Phase
	store  *store.Store
	logger zerolog.Logger
}

// LoadState reads the persisted phase from the store, defaulting to idle when
// no migration has ever been recorded.
func LoadState(st *store.Store, logger zerolog.Logger) (*State, error) {
	persisted, err := st.MigrationPhase()
	if err != nil {
		return nil, err
	}
	phase := Phase(persisted)
	if phase == "" {
		phase = PhaseIdle
	}
	s := &State{store: st, logger: logger}
	s.phase.Store(phase)
	return s, nil
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	return s.phase.Load().(Phase)
}

// CheckWritable implements store.Guard: ordinary mutations are blocked while
// a migration is in progress. Lock-free; safe to call under the store mutex.
func (s *State) CheckWritable() error {
	if s.phase.Load().(Phase) == PhaseInProgress {
		return types.ErrMigrationInProgress
	}
	return nil
}

// transition moves the state from one phase to another, persisting the new
// phase before it becomes visible. Returns a state error describing the
// current phase when the precondition does not hold.
func (s *State) transition(from, to Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.Phase(); current != from {
		return phaseError(current)
	}
	if err := s.store.SetMigrationPhase(string(to)); err != nil {
		return err
	}
	s.phase.Store(to)
	s.logger.Info().Str("from", string(from)).Str("to", string(to)).Msg("migration phase changed")
	return nil
}

// phaseError maps a phase to its state error.
func phaseError(p Phase) error {
	switch p {
	case PhaseInProgress:
		return types.ErrMigrationInProgress
	case PhaseComplete:
		return types.ErrMigrationFinished
	default:
		return types.ErrMigrationNotStarted
	}
}
