package engine

import (
	"time"

	"github.com/nlaurent/cadence/internal/device"
	"github.com/nlaurent/cadence/internal/log"
)

// run consumes the device event channel until the engine closes or the
// device is torn down (channel closed).
func (e *Engine) run() {
	events := e.dev.Events()
	for {
		select {
		case <-e.done:
			return
		case ev, ok := <-events:
			if !ok {
				// Device torn down: cancel pending polls, go idle.
				e.mu.Lock()
				e.stopPollLocked()
				e.ready = false
				e.setStateLocked(StateIdle)
				e.mu.Unlock()
				return
			}
			e.handleEvent(ev)
		}
	}
}

func (e *Engine) handleEvent(ev device.Event) {
	switch ev.Kind {
	case device.EventReady:
		e.handleReady()
	case device.EventStateChange:
		e.handleDeviceState(ev.State)
	case device.EventError:
		e.handleDeviceError(ev.Code)
	}
}

// handleReady marks the device usable, applies pending volume/mute state
// and loads the current track if one was selected before the device came up.
func (e *Engine) handleReady() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = true
	log.Debugf("engine: device ready")

	e.command("volume", "", func() error { return e.dev.SetVolume(e.volume) })
	if e.muted {
		e.command("mute", "", e.dev.Mute)
	} else {
		e.command("unmute", "", e.dev.Unmute)
	}

	if t := e.queue.Current(); t != nil {
		e.setStateLocked(StateLoading)
		e.command("load", t.ID, func() error { return e.dev.Load(t.ID) })
	}
}

func (e *Engine) handleDeviceState(s device.State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch s {
	case device.StatePlaying:
		e.setStateLocked(StatePlaying)
		e.startPollLocked()
	case device.StatePaused:
		e.setStateLocked(StatePaused)
		e.stopPollLocked()
	case device.StateBuffering:
		// Keep the poll running; samples without a duration are skipped.
		e.setStateLocked(StateLoading)
	case device.StateEnded:
		// A freshly loaded track cannot have ended naturally; this is a
		// late event from the previous track, and acting on it would
		// double-advance the queue.
		if e.state == StateLoading {
			log.Debugf("engine: discarding stale ended event")
			return
		}
		e.stopPollLocked()
		e.onTrackEndLocked()
	case device.StateUnstarted:
		// Nothing to reconcile.
	}
}

// handleDeviceError is the primary resilience path: an unplayable track is
// skipped rather than surfaced as a failure.
func (e *Engine) handleDeviceError(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPollLocked()

	var trackID string
	if t := e.queue.Current(); t != nil {
		trackID = t.ID
	}
	log.Warnf("engine: device error %d on track %q, skipping", code, trackID)
	e.publishError(ErrorEvent{Op: "playback", TrackID: trackID, Code: code})

	e.nextLocked()
}

// onTrackEndLocked handles a natural track end reported by the device.
func (e *Engine) onTrackEndLocked() {
	if e.repeat == RepeatOne {
		e.position = 0
		e.command("seek", "", func() error { return e.dev.Seek(0) })
		e.command("play", "", e.dev.Play)
		e.publishPosition(PositionChange{Position: 0, Duration: e.duration})
		return
	}
	e.nextLocked()
}

// command issues a device command, absorbing any failure. The engine's
// contract is that device-level failures never propagate to callers; they
// are logged and published as ErrorEvents so observers and tests can see
// what was suppressed.
func (e *Engine) command(op, trackID string, fn func() error) {
	if err := fn(); err != nil {
		log.Debugf("engine: device %s failed: %v", op, err)
		e.publishError(ErrorEvent{Op: op, TrackID: trackID, Err: err})
	}
}

// startPollLocked (re)starts the progress poll. Starting is idempotent:
// an already-running poll is cancelled first, never stacked.
func (e *Engine) startPollLocked() {
	e.stopPollLocked()
	stop := make(chan struct{})
	e.pollStop = stop
	gen := e.pollGen
	go e.pollLoop(stop, gen)
}

// stopPollLocked cancels the running progress poll, if any.
func (e *Engine) stopPollLocked() {
	if e.pollStop != nil {
		close(e.pollStop)
		e.pollStop = nil
	}
}

// pollLoop samples the device clock until stopped. gen ties the loop to
// the track it was started for; after a track change the sample is
// discarded instead of being written into the new track's progress.
func (e *Engine) pollLoop(stop <-chan struct{}, gen uint64) {
	ticker := time.NewTicker(e.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-e.done:
			return
		case <-ticker.C:
			e.sampleProgress(gen)
		}
	}
}

func (e *Engine) sampleProgress(gen uint64) {
	pos, err := e.dev.CurrentTime()
	if err != nil {
		return
	}
	dur, err := e.dev.Duration()
	if err != nil {
		return
	}
	// No duration yet means the device is still preparing the track;
	// skipping the sample avoids zero-duration progress downstream.
	if dur <= 0 {
		return
	}

	e.mu.Lock()
	if gen != e.pollGen {
		e.mu.Unlock()
		return
	}
	e.position = pos
	e.duration = dur
	e.mu.Unlock()

	e.publishPosition(PositionChange{Position: pos, Duration: dur})
}

// invalidatePollLocked marks a track change: in-flight polls become stale
// and progress resets to zero.
func (e *Engine) invalidatePollLocked() {
	e.pollGen++
	e.stopPollLocked()
	e.position = 0
	e.duration = 0
}
