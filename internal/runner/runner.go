// Package runner drives patch extraction across all resolved pairs on a
// single background worker, broadcasting progress, statistics, previews,
// and log lines to registered observers.
package runner

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"patchlab/internal/config"
	"patchlab/internal/pairing"
	"patchlab/internal/patch"
)

// State identifies where a runner is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateCancelled
	StateFailed
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is one of the three end states.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Runner executes one extraction job. The configuration is captured by
// value at construction; register listeners before Start. Commands are
// idempotent and safe to call from any goroutine.
type Runner struct {
	cfg config.Config

	mu        sync.RWMutex
	cond      *sync.Cond
	state     State
	pauseReq  bool
	cancelReq bool
	stats     Stats
	doneOK    bool
	doneMsg   string
	listeners map[EventType][]EventListener

	done chan struct{}
}

// New creates an idle runner for cfg.
func New(cfg config.Config) *Runner {
	r := &Runner{
		cfg:       cfg,
		state:     StateIdle,
		listeners: make(map[EventType][]EventListener),
		done:      make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// On registers a listener for one event type. Listeners run synchronously
// on the worker goroutine in registration order, so the ordering guarantees
// of the run protocol extend to them. A listener may call runner commands.
func (r *Runner) On(event EventType, listener EventListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[event] = append(r.listeners[event], listener)
}

// Events returns a channel carrying every event of the run in emission
// order. The channel closes after the done event. The buffer absorbs
// bursts; a consumer that stops draining before done can block the worker,
// so cancel and drain when abandoning a run early.
func (r *Runner) Events() <-chan Event {
	ch := make(chan Event, 64)
	forward := func(ev Event) { ch <- ev }
	r.On(EventProgress, forward)
	r.On(EventStats, forward)
	r.On(EventPreview, forward)
	r.On(EventLog, forward)
	r.On(EventDone, func(ev Event) {
		forward(ev)
		close(ch)
	})
	return ch
}

// emit calls the listeners for ev's type without holding the lock.
func (r *Runner) emit(ev Event) {
	r.mu.RLock()
	listeners := r.listeners[ev.Type]
	r.mu.RUnlock()
	for _, l := range listeners {
		l(ev)
	}
}

// State returns the current lifecycle state.
func (r *Runner) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Stats returns a snapshot of the cumulative counters.
func (r *Runner) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Outcome reports the terminal result. Meaningful once Wait has returned.
func (r *Runner) Outcome() (ok bool, message string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doneOK, r.doneMsg
}

// Start launches the worker goroutine. It reports false when the runner is
// not idle: a runner executes at most one job.
func (r *Runner) Start() bool {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return false
	}
	r.state = StateRunning
	r.mu.Unlock()

	go r.run()
	return true
}

// Wait blocks until the job reaches a terminal state and returns it.
func (r *Runner) Wait() State {
	<-r.done
	return r.State()
}

// Pause requests suspension at the next pair boundary. The worker parks on
// a condition variable; in-flight pair work is never interrupted.
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRunning || r.state == StatePaused {
		r.pauseReq = true
	}
}

// Resume clears a pause request and wakes a parked worker.
func (r *Runner) Resume() {
	r.mu.Lock()
	r.pauseReq = false
	r.mu.Unlock()
	r.cond.Broadcast()
}

// Cancel requests termination, observed at the next pair boundary. A
// paused worker is woken so it can observe the request. Patches already
// written stay on disk.
func (r *Runner) Cancel() {
	r.mu.Lock()
	if r.state == StateRunning || r.state == StatePaused {
		r.cancelReq = true
	}
	r.mu.Unlock()
	r.cond.Broadcast()
}

// run is the worker body. All notifications are emitted from here, which
// makes their ordering structural: events for pair i precede any event for
// pair i+1, and done follows everything else, exactly once.
func (r *Runner) run() {
	cfg := r.cfg

	images, err := pairing.ListImages(cfg.ImagesDir(), cfg.Extensions)
	if err != nil {
		r.fail(err)
		return
	}
	pairs, err := pairing.Resolve(cfg.ImagesDir(), cfg.MasksDir(), cfg.Extensions)
	if err != nil {
		r.fail(err)
		return
	}

	r.mu.Lock()
	r.stats = Stats{Images: len(images), Pairs: len(pairs)}
	r.mu.Unlock()

	total := len(pairs)
	if total == 0 {
		r.finish(StateFailed, false, "No pairs to process.")
		return
	}

	if !cfg.DryRun {
		for _, dir := range []string{cfg.OutImagesDir(), cfg.OutMasksDir()} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				r.fail(fmt.Errorf("create output dir: %w", err))
				return
			}
		}
	}

	r.emit(Event{Type: EventLog, Message: fmt.Sprintf("Starting on %d pairs…", total)})

	rng := rand.New(rand.NewSource(cfg.Seed))

	for i, pr := range pairs {
		if r.pairBoundary() {
			r.emit(Event{Type: EventLog, Message: "Cancel requested…"})
			r.finish(StateCancelled, false, "Cancelled.")
			return
		}

		var st patch.PairStats
		var preview *Preview
		kept := 0
		if cfg.DryRun {
			st = patch.DryRunStats()
		} else {
			res, err := patch.Extract(cfg, pr, rng)
			if err != nil {
				r.fail(err)
				return
			}
			st = res.Stats
			kept = st.Kept
			preview = &Preview{Stem: pr.Stem, Image: res.Image, Mask: res.Mask}
		}

		r.mu.Lock()
		r.stats.Processed = i + 1
		r.stats.PatchesTotal += kept
		r.stats.KeptLast = kept
		r.stats.LastPair = st
		snapshot := r.stats
		r.mu.Unlock()

		r.emit(Event{Type: EventProgress, Percent: 100 * (i + 1) / total})
		r.emit(Event{Type: EventStats, Stats: snapshot})
		if preview != nil {
			r.emit(Event{Type: EventPreview, Preview: *preview})
		}
		r.emit(Event{Type: EventLog, Message: fmt.Sprintf(
			"Processed %s → kept %d patches", filepath.Base(pr.Image), kept)})
	}

	r.mu.RLock()
	totalPatches := r.stats.PatchesTotal
	r.mu.RUnlock()
	r.finish(StateCompleted, true, fmt.Sprintf("Done. Total patches: %d", totalPatches))
}

// pairBoundary is the only place pause and cancel are observed. It blocks
// while a pause is in effect and reports whether the job was cancelled.
func (r *Runner) pairBoundary() (cancelled bool) {
	r.mu.Lock()
	if r.cancelReq {
		r.mu.Unlock()
		return true
	}
	if !r.pauseReq {
		r.mu.Unlock()
		return false
	}
	r.state = StatePaused
	r.mu.Unlock()

	r.emit(Event{Type: EventLog, Message: "Paused…"})

	r.mu.Lock()
	for r.pauseReq && !r.cancelReq {
		r.cond.Wait()
	}
	cancelled = r.cancelReq
	if !cancelled {
		r.state = StateRunning
	}
	r.mu.Unlock()

	if !cancelled {
		r.emit(Event{Type: EventLog, Message: "Resumed."})
	}
	return cancelled
}

// fail ends the job with an error outcome.
func (r *Runner) fail(err error) {
	r.emit(Event{Type: EventLog, Message: fmt.Sprintf("An error occurred: %v", err)})
	r.finish(StateFailed, false, fmt.Sprintf("Error: %v", err))
}

// finish moves the runner to a terminal state, emits the single done
// event after every other notification, and releases Wait.
func (r *Runner) finish(terminal State, ok bool, msg string) {
	r.mu.Lock()
	r.state = terminal
	r.doneOK = ok
	r.doneMsg = msg
	r.mu.Unlock()

	r.emit(Event{Type: EventDone, OK: ok, Message: msg})
	close(r.done)
}
