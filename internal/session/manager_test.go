package session

import (
	"testing"
	"time"

	"github.com/CkBcDD/NexBack/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func shortConfig(trials int, window time.Duration) engine.SessionConfig {
	seed := int64(21)
	return engine.SessionConfig{
		NLevel:                   1,
		TrialCount:               trials,
		Alphabet:                 engine.DefaultAlphabet,
		PositionMatchProbability: 0.3,
		AudioMatchProbability:    0.3,
		ResponseWindow:           window,
		ScoringMode:              engine.ScoringStandard,
		Seed:                     &seed,
	}
}

type sunk struct {
	id      string
	result  engine.SessionResult
	trials  []engine.Trial
	outcome []engine.TrialOutcome
}

func newSinkChan() (ResultSink, chan sunk) {
	ch := make(chan sunk, 1)
	sink := func(id string, cfg engine.SessionConfig, result engine.SessionResult, trials []engine.Trial, outcomes []engine.TrialOutcome) error {
		ch <- sunk{id: id, result: result, trials: trials, outcome: outcomes}
		return nil
	}
	return sink, ch
}

// TestManagerRunsSessionToCompletion lets the timer close every window
// and checks the result reaches the sink exactly once.
func TestManagerRunsSessionToCompletion(t *testing.T) {
	sink, ch := newSinkChan()
	mgr := NewManager(zap.NewNop(), sink)

	id, err := mgr.Start(shortConfig(4, 15*time.Millisecond))
	require.NoError(t, err)

	select {
	case s := <-ch:
		assert.Equal(t, id, s.id)
		assert.False(t, s.result.Aborted)
		assert.Equal(t, 4, s.result.TrialsScored)
		assert.Len(t, s.trials, 4)
		assert.Len(t, s.outcome, 4)
	case <-time.After(5 * time.Second):
		t.Fatal("session never completed")
	}

	// The finished session remains queryable.
	snap, err := mgr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, engine.StateSessionComplete, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 4, snap.Result.TrialsScored)

	// Post-completion inputs are absorbed, never errors.
	assert.NoError(t, mgr.Submit(id, engine.ModalityPosition))
	assert.NoError(t, mgr.Abort(id))
}

// TestManagerStartRejectsInvalidConfig verifies configuration errors
// propagate unmodified from session start.
func TestManagerStartRejectsInvalidConfig(t *testing.T) {
	mgr := NewManager(zap.NewNop(), nil)

	cfg := shortConfig(4, 15*time.Millisecond)
	cfg.NLevel = 3
	cfg.TrialCount = 2

	_, err := mgr.Start(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}

// TestManagerAbortFinishesEarly verifies abort completes the session
// with the scored prefix only.
func TestManagerAbortFinishesEarly(t *testing.T) {
	sink, ch := newSinkChan()
	mgr := NewManager(zap.NewNop(), sink)

	// A long window so the session is mid-trial when we abort.
	id, err := mgr.Start(shortConfig(10, 10*time.Second))
	require.NoError(t, err)

	require.NoError(t, mgr.Abort(id))

	select {
	case s := <-ch:
		assert.True(t, s.result.Aborted)
		assert.Less(t, s.result.TrialsScored, 10)
	case <-time.After(5 * time.Second):
		t.Fatal("aborted session never completed")
	}
}

// TestManagerSnapshotOfLiveSession verifies the snapshot exposes the
// current stimulus while a trial is awaiting responses.
func TestManagerSnapshotOfLiveSession(t *testing.T) {
	mgr := NewManager(zap.NewNop(), nil)

	id, err := mgr.Start(shortConfig(5, 10*time.Second))
	require.NoError(t, err)
	defer mgr.Abort(id)

	snap, err := mgr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, engine.StateAwaitingResponse, snap.State)
	assert.Equal(t, 5, snap.TrialsPlanned)
	assert.GreaterOrEqual(t, snap.Position, 0)
	assert.Less(t, snap.Position, engine.GridPositions)
	assert.Len(t, snap.Letter, 1)
}

// TestManagerUnknownSession verifies lookups against a handle that was
// never issued.
func TestManagerUnknownSession(t *testing.T) {
	mgr := NewManager(zap.NewNop(), nil)

	assert.ErrorIs(t, mgr.Submit("nope", engine.ModalityAudio), ErrSessionNotFound)
	assert.ErrorIs(t, mgr.Abort("nope"), ErrSessionNotFound)
	_, err := mgr.Snapshot("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// TestManagerAbortDiscardsInFlightTrial verifies a press on the open
// trial vanishes with it when the session aborts: no partial-trial
// scoring.
func TestManagerAbortDiscardsInFlightTrial(t *testing.T) {
	sink, ch := newSinkChan()
	mgr := NewManager(zap.NewNop(), sink)

	id, err := mgr.Start(shortConfig(3, 10*time.Second))
	require.NoError(t, err)

	require.NoError(t, mgr.Submit(id, engine.ModalityPosition))
	require.NoError(t, mgr.Abort(id))

	select {
	case s := <-ch:
		assert.True(t, s.result.Aborted)
		assert.Zero(t, s.result.TrialsScored)
		assert.Zero(t, s.result.Position.FalseAlarms)
	case <-time.After(5 * time.Second):
		t.Fatal("session never completed")
	}
}
