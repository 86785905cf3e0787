package engine

import (
	"errors"
	"time"
)

// State enumerates the trial state machine.
type State string

const (
	StateIdle             State = "idle"
	StatePresenting       State = "presenting"
	StateAwaitingResponse State = "awaiting_response"
	StateScored           State = "scored"
	StateSessionComplete  State = "session_complete"
)

// Observer receives the engine's events. The engine never depends on
// anything above it; rendering, audio playback and persistence all hang
// off this interface.
type Observer interface {
	// TrialPresented fires once per trial as its stimulus becomes
	// observable and the response window opens.
	TrialPresented(index, position int, letter string)
	// TrialScored fires once per trial when its window closes, in
	// strict trial-index order.
	TrialScored(outcome TrialOutcome)
	// SessionCompleted fires exactly once, at normal completion or
	// abort, with the final aggregate result.
	SessionCompleted(result SessionResult)
}

type nopObserver struct{}

func (nopObserver) TrialPresented(int, int, string) {}
func (nopObserver) TrialScored(TrialOutcome)        {}
func (nopObserver) SessionCompleted(SessionResult)  {}

// Engine runs one dual n-back session. It is not safe for concurrent
// use: all calls must come from the single goroutine that owns the
// session timer. Waiting out the response window is the caller's job;
// the engine never blocks.
type Engine struct {
	cfg SessionConfig
	obs Observer
	now func() time.Time

	state   State
	trials  []Trial
	current int

	presentedAt time.Time
	deadline    time.Time
	responded   [modalityCount]bool
	latency     [modalityCount]time.Duration

	outcomes []TrialOutcome
	result   *SessionResult
}

// New validates the configuration and returns an idle engine. A nil
// observer is allowed.
func New(cfg SessionConfig, obs Observer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &Engine{
		cfg:   cfg,
		obs:   obs,
		now:   time.Now,
		state: StateIdle,
	}, nil
}

// Config returns the session configuration.
func (e *Engine) Config() SessionConfig { return e.cfg }

// State returns the current machine state.
func (e *Engine) State() State { return e.state }

// Start generates the whole trial sequence and presents trial 0.
func (e *Engine) Start() error {
	if e.state != StateIdle {
		return errors.New("engine: session already started")
	}
	e.trials = generateSequence(e.cfg, newRand(e.cfg.Seed))
	e.current = 0
	e.present()
	return nil
}

// present opens the current trial's response window and emits the
// stimulus. Presenting is transient: the machine lands in
// AwaitingResponse before the call returns.
func (e *Engine) present() {
	e.state = StatePresenting
	t := e.trials[e.current]

	e.presentedAt = e.now()
	e.deadline = e.presentedAt.Add(e.cfg.ResponseWindow)
	for m := range e.responded {
		e.responded[m] = false
		e.latency[m] = 0
	}

	e.state = StateAwaitingResponse
	e.obs.TrialPresented(t.Index, t.Position, t.Letter)
}

// SubmitResponse records a match press for the given modality. Only the
// first press per (trial, modality) counts; duplicates and presses
// after the window deadline are silent no-ops. The engine clock, not
// user-perceived time, decides lateness.
func (e *Engine) SubmitResponse(m Modality) {
	if e.state != StateAwaitingResponse {
		return
	}
	if m < 0 || m >= modalityCount {
		return
	}
	if e.now().After(e.deadline) {
		return
	}
	if e.responded[m] {
		return
	}
	e.responded[m] = true
	e.latency[m] = e.now().Sub(e.presentedAt)
}

// CloseWindow ends the current trial's response window, classifies both
// modalities against ground truth, and either presents the next trial
// or completes the session. Callers invoke it once the response window
// has elapsed; it is a no-op outside AwaitingResponse.
func (e *Engine) CloseWindow() {
	if e.state != StateAwaitingResponse {
		return
	}
	e.state = StateScored

	t := e.trials[e.current]
	outcome := TrialOutcome{
		Index:    t.Index,
		Position: Classify(t.PositionMatch, e.responded[ModalityPosition]),
		Audio:    Classify(t.AudioMatch, e.responded[ModalityAudio]),
	}
	if e.responded[ModalityPosition] {
		ms := float64(e.latency[ModalityPosition]) / float64(time.Millisecond)
		outcome.PositionLatencyMs = &ms
	}
	if e.responded[ModalityAudio] {
		ms := float64(e.latency[ModalityAudio]) / float64(time.Millisecond)
		outcome.AudioLatencyMs = &ms
	}
	e.outcomes = append(e.outcomes, outcome)
	e.obs.TrialScored(outcome)

	if e.current+1 < e.cfg.TrialCount {
		e.current++
		e.present()
		return
	}
	e.complete(false)
}

// Abort forces the session to completion with whatever trials were
// scored so far. The in-flight trial is discarded, never part-scored.
// Legal from any state; once complete it is a no-op.
func (e *Engine) Abort() {
	if e.state == StateSessionComplete {
		return
	}
	e.complete(true)
}

func (e *Engine) complete(aborted bool) {
	e.state = StateSessionComplete
	r := ScoreSession(e.cfg, e.outcomes, aborted)
	e.result = &r
	e.obs.SessionCompleted(r)
}

// CurrentTrial returns the in-flight trial's stimulus, or false when no
// trial is being presented.
func (e *Engine) CurrentTrial() (Trial, bool) {
	if e.state != StateAwaitingResponse && e.state != StatePresenting {
		return Trial{}, false
	}
	return e.trials[e.current], true
}

// Trials returns a copy of the generated sequence.
func (e *Engine) Trials() []Trial {
	out := make([]Trial, len(e.trials))
	copy(out, e.trials)
	return out
}

// Outcomes returns a copy of the classifications produced so far, in
// trial-index order.
func (e *Engine) Outcomes() []TrialOutcome {
	out := make([]TrialOutcome, len(e.outcomes))
	copy(out, e.outcomes)
	return out
}

// Result returns the final session result once the session is complete.
func (e *Engine) Result() (SessionResult, bool) {
	if e.result == nil {
		return SessionResult{}, false
	}
	return *e.result, true
}
