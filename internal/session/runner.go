package session

import (
	"time"

	"github.com/CkBcDD/NexBack/internal/engine"

	"go.uber.org/zap"
)

// runner owns one engine for the lifetime of its session. The engine is
// only ever touched from run(), which merges the window timer and
// incoming commands into a single thread of control.
type runner struct {
	id  string
	cfg engine.SessionConfig
	log *zap.Logger
	eng *engine.Engine

	cmds chan func(*engine.Engine)
	done chan struct{}

	onComplete func(r *runner, result engine.SessionResult, trials []engine.Trial, outcomes []engine.TrialOutcome)
}

func newRunner(id string, cfg engine.SessionConfig, log *zap.Logger, onComplete func(*runner, engine.SessionResult, []engine.Trial, []engine.TrialOutcome)) (*runner, error) {
	r := &runner{
		id:         id,
		cfg:        cfg,
		log:        log,
		cmds:       make(chan func(*engine.Engine)),
		done:       make(chan struct{}),
		onComplete: onComplete,
	}
	eng, err := engine.New(cfg, r)
	if err != nil {
		return nil, err
	}
	r.eng = eng
	return r, nil
}

// run drives the session to completion: the timer closes each response
// window after cfg.ResponseWindow, commands (key presses, aborts,
// snapshots) interleave between ticks.
func (r *runner) run() {
	defer close(r.done)

	if err := r.eng.Start(); err != nil {
		r.log.Error("Failed to start session", zap.String("session_id", r.id), zap.Error(err))
		return
	}

	timer := time.NewTimer(r.cfg.ResponseWindow)
	defer timer.Stop()

	for r.eng.State() != engine.StateSessionComplete {
		select {
		case <-timer.C:
			r.eng.CloseWindow()
			if r.eng.State() != engine.StateSessionComplete {
				timer.Reset(r.cfg.ResponseWindow)
			}
		case fn := <-r.cmds:
			fn(r.eng)
		}
	}
}

// do hands a command to the session goroutine. It reports false when
// the session finished first; the command is then never executed.
// cmds is unbuffered, so a true return means the command ran.
func (r *runner) do(fn func(*engine.Engine)) bool {
	select {
	case r.cmds <- fn:
		return true
	case <-r.done:
		return false
	}
}

// doWait runs a command and waits for it to finish.
func (r *runner) doWait(fn func(*engine.Engine)) bool {
	ran := make(chan struct{})
	if !r.do(func(e *engine.Engine) {
		fn(e)
		close(ran)
	}) {
		return false
	}
	<-ran
	return true
}

// TrialPresented implements engine.Observer. The UI and audio
// collaborators poll the snapshot endpoint; here we only log.
func (r *runner) TrialPresented(index, position int, letter string) {
	r.log.Debug("Trial presented",
		zap.String("session_id", r.id),
		zap.Int("index", index),
		zap.Int("position", position),
		zap.String("letter", letter),
	)
}

// TrialScored implements engine.Observer.
func (r *runner) TrialScored(outcome engine.TrialOutcome) {
	r.log.Debug("Trial scored",
		zap.String("session_id", r.id),
		zap.Int("index", outcome.Index),
		zap.String("position", string(outcome.Position)),
		zap.String("audio", string(outcome.Audio)),
	)
}

// SessionCompleted implements engine.Observer. It runs on the session
// goroutine before run() returns, so the manager's books are settled by
// the time done closes.
func (r *runner) SessionCompleted(result engine.SessionResult) {
	r.onComplete(r, result, r.eng.Trials(), r.eng.Outcomes())
}
