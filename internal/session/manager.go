package session

import (
	"errors"
	"sync"

	"github.com/CkBcDD/NexBack/internal/engine"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for a session handle the manager has
// never seen.
var ErrSessionNotFound = errors.New("session not found")

// ResultSink receives a finished session for persistence. The manager
// calls it exactly once per session, from that session's own goroutine.
type ResultSink func(sessionID string, cfg engine.SessionConfig, result engine.SessionResult, trials []engine.Trial, outcomes []engine.TrialOutcome) error

// Snapshot is a point-in-time view of a session for the API.
type Snapshot struct {
	SessionID     string                `json:"session_id"`
	State         engine.State          `json:"state"`
	TrialIndex    int                   `json:"trial_index"`
	Position      int                   `json:"position"`
	Letter        string                `json:"letter"`
	TrialsScored  int                   `json:"trials_scored"`
	TrialsPlanned int                   `json:"trials_planned"`
	Result        *engine.SessionResult `json:"result,omitempty"`
}

// Manager tracks live training sessions. Each session's engine is owned
// by a single goroutine; the manager only routes commands to it, so any
// number of HTTP requests may hit the same session safely.
type Manager struct {
	log  *zap.Logger
	sink ResultSink

	mu       sync.Mutex // guards the maps, never held across engine calls
	runners  map[string]*runner
	finished map[string]engine.SessionResult
}

// NewManager creates a session manager. A nil sink skips persistence
// (used by tests).
func NewManager(log *zap.Logger, sink ResultSink) *Manager {
	return &Manager{
		log:      log,
		sink:     sink,
		runners:  make(map[string]*runner),
		finished: make(map[string]engine.SessionResult),
	}
}

// Start validates the config, spins up a session goroutine and returns
// the new session handle. Configuration errors propagate unmodified.
func (m *Manager) Start(cfg engine.SessionConfig) (string, error) {
	id := uuid.NewString()
	r, err := newRunner(id, cfg, m.log, m.complete)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.runners[id] = r
	m.mu.Unlock()

	go r.run()
	m.log.Info("Session started",
		zap.String("session_id", id),
		zap.Int("n_level", cfg.NLevel),
		zap.Int("trial_count", cfg.TrialCount),
		zap.String("scoring_mode", string(cfg.ScoringMode)),
	)
	return id, nil
}

// Submit records a match press for one modality. Presses on a finished
// session are absorbed, matching the engine's late-press semantics.
func (m *Manager) Submit(id string, modality engine.Modality) error {
	r, finished, err := m.find(id)
	if err != nil {
		return err
	}
	if finished {
		return nil
	}
	r.do(func(e *engine.Engine) { e.SubmitResponse(modality) })
	return nil
}

// Abort force-completes a session; the scored prefix is still persisted.
// Aborting a finished session is a no-op.
func (m *Manager) Abort(id string) error {
	r, finished, err := m.find(id)
	if err != nil {
		return err
	}
	if finished {
		return nil
	}
	r.do(func(e *engine.Engine) { e.Abort() })
	return nil
}

// Snapshot returns the session's current state; for finished sessions
// it carries the final result.
func (m *Manager) Snapshot(id string) (Snapshot, error) {
	r, finished, err := m.find(id)
	if err != nil {
		return Snapshot{}, err
	}
	if finished {
		m.mu.Lock()
		result := m.finished[id]
		m.mu.Unlock()
		return Snapshot{
			SessionID:     id,
			State:         engine.StateSessionComplete,
			TrialsScored:  result.TrialsScored,
			TrialsPlanned: result.TrialsPlanned,
			Result:        &result,
		}, nil
	}

	var snap Snapshot
	ok := r.doWait(func(e *engine.Engine) {
		snap = Snapshot{
			SessionID:     id,
			State:         e.State(),
			TrialsScored:  len(e.Outcomes()),
			TrialsPlanned: e.Config().TrialCount,
		}
		if t, live := e.CurrentTrial(); live {
			snap.TrialIndex = t.Index
			snap.Position = t.Position
			snap.Letter = t.Letter
		}
	})
	if !ok {
		// Completed between lookup and dispatch; retry from the top.
		return m.Snapshot(id)
	}
	return snap, nil
}

// find resolves a handle to either a live runner or a finished result.
func (m *Manager) find(id string) (*runner, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runners[id]; ok {
		return r, false, nil
	}
	if _, ok := m.finished[id]; ok {
		return nil, true, nil
	}
	return nil, false, ErrSessionNotFound
}

// complete is invoked from the session goroutine exactly once.
func (m *Manager) complete(r *runner, result engine.SessionResult, trials []engine.Trial, outcomes []engine.TrialOutcome) {
	m.mu.Lock()
	delete(m.runners, r.id)
	m.finished[r.id] = result
	m.mu.Unlock()

	m.log.Info("Session complete",
		zap.String("session_id", r.id),
		zap.Bool("aborted", result.Aborted),
		zap.Int("trials_scored", result.TrialsScored),
		zap.Float64("position_score", result.Position.Score),
		zap.Float64("audio_score", result.Audio.Score),
	)

	if m.sink == nil {
		return
	}
	if err := m.sink(r.id, r.cfg, result, trials, outcomes); err != nil {
		m.log.Error("Failed to persist session result",
			zap.String("session_id", r.id),
			zap.Error(err),
		)
	}
}
