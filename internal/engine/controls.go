package engine

import (
	"time"

	"github.com/nlaurent/cadence/internal/log"
	"github.com/nlaurent/cadence/internal/queue"
)

// restartThreshold is how far into a track Previous restarts it instead
// of moving the cursor (the "tap back twice" convention).
const restartThreshold = 3 * time.Second

// StartPlayback replaces the queue with tracks and starts playing the one
// at index. An out-of-range index on a non-empty list clamps to 0; an
// empty track list clears the queue and goes idle.
func (e *Engine) StartPlayback(tracks []queue.Track, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelHydrationLocked()

	if len(tracks) == 0 {
		e.queue.Clear()
		e.stopLocked()
		e.publishQueue(QueueChange{Tracks: nil, Index: -1})
		return
	}
	if index < 0 || index >= len(tracks) {
		index = 0
	}

	prev := e.currentTrackLocked()
	prevIndex := e.queue.CurrentIndex()
	e.queue.Replace(tracks, index)
	e.publishQueue(QueueChange{Tracks: e.queue.Tracks(), Index: index})
	e.loadCurrentLocked(prev, prevIndex)
}

// Toggle flips between playing and paused. With no current track but a
// non-empty queue, it starts playback at index 0.
func (e *Engine) Toggle() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.queue.Current() == nil {
		if e.queue.IsEmpty() {
			return
		}
		prev := e.currentTrackLocked()
		prevIndex := e.queue.CurrentIndex()
		e.queue.SetCurrentIndex(0)
		e.loadCurrentLocked(prev, prevIndex)
		return
	}

	switch e.state {
	case StatePlaying:
		e.setStateLocked(StatePaused)
		e.stopPollLocked()
		e.command("pause", "", e.dev.Pause)
	case StatePaused:
		e.setStateLocked(StatePlaying)
		e.command("play", "", e.dev.Play)
	case StateIdle, StateLoading:
		// Load in flight or nothing to do; the device's own state event
		// will reconcile.
	}
}

// Next advances to the next track according to shuffle and repeat modes.
// Past the last track with repeat off, playback stops and the queue is
// kept for inspection. On an empty queue this is a no-op.
func (e *Engine) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextLocked()
}

func (e *Engine) nextLocked() {
	if e.queue.IsEmpty() {
		return
	}
	cur := e.queue.CurrentIndex()

	var next int
	if e.shuffle {
		next = queue.NextShuffledIndex(e.queue.Len(), cur)
	} else {
		next = cur + 1
		if next >= e.queue.Len() {
			if e.repeat == RepeatAll {
				next = 0
			} else {
				prev := e.currentTrackLocked()
				e.queue.Deselect()
				e.stopLocked()
				e.publishTrack(TrackChange{
					Previous:      prev,
					PreviousIndex: cur,
					Index:         -1,
				})
				return
			}
		}
	}

	prev := e.currentTrackLocked()
	e.queue.SetCurrentIndex(next)
	e.loadCurrentLocked(prev, cur)
}

// Previous restarts the current track when more than three seconds in;
// otherwise it moves the cursor back, wrapping with repeat-all and
// clamping to the first track otherwise.
func (e *Engine) Previous() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.queue.IsEmpty() || e.queue.Current() == nil {
		return
	}

	if e.position > restartThreshold {
		e.position = 0
		e.command("seek", "", func() error { return e.dev.Seek(0) })
		e.publishPosition(PositionChange{Position: 0, Duration: e.duration})
		return
	}

	cur := e.queue.CurrentIndex()
	prev := cur - 1
	if prev < 0 {
		if e.repeat == RepeatAll {
			prev = e.queue.Len() - 1
		} else {
			prev = 0
		}
	}

	prevTrack := e.currentTrackLocked()
	e.queue.SetCurrentIndex(prev)
	e.loadCurrentLocked(prevTrack, cur)
}

// SeekToPercent seeks to a position expressed as a percentage (0-100) of
// the track duration. Ignored while the duration is unknown. The position
// is updated optimistically and reconciled by the next poll sample.
func (e *Engine) SeekToPercent(percent float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.duration <= 0 {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	pos := time.Duration(float64(e.duration) * percent / 100)
	e.position = pos
	e.command("seek", "", func() error { return e.dev.Seek(pos) })
	e.publishPosition(PositionChange{Position: pos, Duration: e.duration})
}

// SetVolume sets the volume level (0-100).
func (e *Engine) SetVolume(level int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	e.volume = level
	if level > 0 {
		e.lastVolume = level
	}
	e.command("volume", "", func() error { return e.dev.SetVolume(level) })
}

// ToggleMute flips the mute flag. Unmuting restores the last non-zero
// volume, so mute at volume zero does not trap the engine in silence.
func (e *Engine) ToggleMute() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.muted = !e.muted
	if e.muted {
		e.command("mute", "", e.dev.Mute)
		return
	}
	if e.volume == 0 {
		e.volume = e.lastVolume
		e.command("volume", "", func() error { return e.dev.SetVolume(e.volume) })
	}
	e.command("unmute", "", e.dev.Unmute)
}

// ToggleShuffle flips shuffle mode. Enabling shuffle forces repeat off;
// the two are mutually exclusive entry states.
func (e *Engine) ToggleShuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.shuffle = !e.shuffle
	if e.shuffle {
		e.repeat = RepeatOff
	}
	e.publishMode(ModeChange{Repeat: e.repeat, Shuffle: e.shuffle})
	return e.shuffle
}

// CycleRepeat cycles repeat off -> all -> one -> off. Enabling any repeat
// mode forces shuffle off.
func (e *Engine) CycleRepeat() RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.repeat {
	case RepeatOff:
		e.repeat = RepeatAll
	case RepeatAll:
		e.repeat = RepeatOne
	case RepeatOne:
		e.repeat = RepeatOff
	}
	if e.repeat != RepeatOff {
		e.shuffle = false
	}
	e.publishMode(ModeChange{Repeat: e.repeat, Shuffle: e.shuffle})
	return e.repeat
}

// AddTrack appends a track to the queue. Adding an ID already present is
// a no-op. Returns true if the track was added.
func (e *Engine) AddTrack(t queue.Track) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.queue.Append(t) {
		return false
	}
	e.publishQueue(QueueChange{Tracks: e.queue.Tracks(), Index: e.queue.CurrentIndex()})
	return true
}

// RemoveTrack removes the track with the given ID. Removing the current
// track loads its replacement when playback was active, or stops when the
// queue empties.
func (e *Engine) RemoveTrack(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.queue.Current()
	wasCurrent := current != nil && current.ID == id
	prevTrack := e.currentTrackLocked()
	prevIndex := e.queue.CurrentIndex()

	if !e.queue.Remove(id) {
		return false
	}
	e.publishQueue(QueueChange{Tracks: e.queue.Tracks(), Index: e.queue.CurrentIndex()})

	if !wasCurrent {
		return true
	}
	if e.queue.Current() == nil {
		e.stopLocked()
		e.publishTrack(TrackChange{
			Previous:      prevTrack,
			PreviousIndex: prevIndex,
			Index:         -1,
		})
		return true
	}
	if e.state == StatePlaying || e.state == StateLoading {
		e.loadCurrentLocked(prevTrack, prevIndex)
	} else {
		e.publishTrack(TrackChange{
			Previous:      prevTrack,
			Current:       e.currentTrackLocked(),
			PreviousIndex: prevIndex,
			Index:         e.queue.CurrentIndex(),
		})
	}
	return true
}

// ClearQueue removes all tracks and stops playback.
func (e *Engine) ClearQueue() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelHydrationLocked()

	e.queue.Clear()
	e.stopLocked()
	e.publishQueue(QueueChange{Tracks: nil, Index: -1})
}

// loadCurrentLocked commands the device to load the queue's current track
// and transitions to loading. prev/prevIndex describe the selection before
// the change for the TrackChange event.
func (e *Engine) loadCurrentLocked(prev *queue.Track, prevIndex int) {
	t := e.queue.Current()
	if t == nil {
		return
	}
	e.invalidatePollLocked()
	e.setStateLocked(StateLoading)
	log.Debugf("engine: loading track %s (%s)", t.ID, t.Title)
	e.command("load", t.ID, func() error { return e.dev.Load(t.ID) })
	e.publishTrack(TrackChange{
		Previous:      prev,
		Current:       e.currentTrackLocked(),
		PreviousIndex: prevIndex,
		Index:         e.queue.CurrentIndex(),
	})
}

// stopLocked halts playback without touching queue contents.
func (e *Engine) stopLocked() {
	e.invalidatePollLocked()
	e.setStateLocked(StateIdle)
	e.command("pause", "", e.dev.Pause)
}
