// Package engine owns the playback queue and keeps it synchronized with an
// asynchronous external player device.
//
// The engine is an explicitly constructed instance: the host application
// creates one per device and passes it wherever playback control is
// needed. All commands are safe for concurrent use; internally the queue,
// cursor and mode flags are single-owner state guarded by one mutex.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/nlaurent/cadence/internal/device"
	"github.com/nlaurent/cadence/internal/queue"
	"github.com/nlaurent/cadence/internal/resolver"
)

// Options tune engine timing. Zero values fall back to defaults.
type Options struct {
	// PollInterval is the progress sampling interval while playing.
	PollInterval time.Duration
	// Hydration settings, see LoadCollection.
	HydrationBatchSize    int
	HydrationItemTimeout  time.Duration
	HydrationCeiling      time.Duration
	HydrationPollInterval time.Duration
	// FallbackThumbnail is a format string producing a thumbnail URL from
	// a raw item ID when metadata lookup fails.
	FallbackThumbnail string
	// Volume is the initial volume level (0-100).
	Volume int
}

const (
	defaultPollInterval          = time.Second
	defaultHydrationBatchSize    = 10
	defaultHydrationItemTimeout  = 5 * time.Second
	defaultHydrationCeiling      = 10 * time.Second
	defaultHydrationPollInterval = 500 * time.Millisecond
	defaultFallbackThumbnail     = "https://media.invidio.us/vi/%s/default.jpg"
	defaultVolume                = 100
)

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.HydrationBatchSize <= 0 {
		opts.HydrationBatchSize = defaultHydrationBatchSize
	}
	if opts.HydrationItemTimeout <= 0 {
		opts.HydrationItemTimeout = defaultHydrationItemTimeout
	}
	if opts.HydrationCeiling <= 0 {
		opts.HydrationCeiling = defaultHydrationCeiling
	}
	if opts.HydrationPollInterval <= 0 {
		opts.HydrationPollInterval = defaultHydrationPollInterval
	}
	if opts.FallbackThumbnail == "" {
		opts.FallbackThumbnail = defaultFallbackThumbnail
	}
	if opts.Volume <= 0 || opts.Volume > 100 {
		opts.Volume = defaultVolume
	}
	return opts
}

// Engine is the playback queue and synchronization engine.
type Engine struct {
	mu sync.RWMutex

	dev      device.Device
	resolver resolver.Resolver
	opts     Options

	queue   *queue.Queue
	state   State
	repeat  RepeatMode
	shuffle bool

	ready      bool
	volume     int
	lastVolume int // last non-zero volume, restored on unmute
	muted      bool

	position time.Duration
	duration time.Duration

	// Progress poll ownership. pollGen invalidates in-flight polls on
	// every track change so a stale sample never lands on a new track.
	pollStop chan struct{}
	pollGen  uint64

	// In-flight hydration; a new LoadCollection cancels the previous one.
	hydrateCancel context.CancelFunc

	subs   []*Subscription
	subsMu sync.RWMutex

	done   chan struct{}
	closed bool
}

// New creates an engine bound to dev, resolving collection metadata
// through res. The engine starts consuming device events immediately.
func New(dev device.Device, res resolver.Resolver, opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		dev:        dev,
		resolver:   res,
		opts:       opts,
		queue:      queue.New(),
		state:      StateIdle,
		volume:     opts.Volume,
		lastVolume: opts.Volume,
		done:       make(chan struct{}),
	}
	go e.run()
	return e
}

// State returns the current playback state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// IsPlaying returns true while the device has confirmed playback.
func (e *Engine) IsPlaying() bool {
	return e.State() == StatePlaying
}

// IsLoading returns true while a track or collection is being prepared.
func (e *Engine) IsLoading() bool {
	return e.State() == StateLoading
}

// Position returns the last sampled playback position.
func (e *Engine) Position() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// Duration returns the last sampled track duration (zero if unknown).
func (e *Engine) Duration() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.duration
}

// CurrentTrack returns a copy of the current track, or nil if none.
func (e *Engine) CurrentTrack() *queue.Track {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentTrackLocked()
}

func (e *Engine) currentTrackLocked() *queue.Track {
	t := e.queue.Current()
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}

// Queue returns a copy of all queued tracks.
func (e *Engine) Queue() []queue.Track {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queue.Tracks()
}

// QueueIndex returns the current queue index (-1 if none).
func (e *Engine) QueueIndex() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queue.CurrentIndex()
}

// QueueLen returns the number of queued tracks.
func (e *Engine) QueueLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.queue.Len()
}

// Repeat returns the current repeat mode.
func (e *Engine) Repeat() RepeatMode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.repeat
}

// Shuffle returns whether shuffle is enabled.
func (e *Engine) Shuffle() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.shuffle
}

// Volume returns the current volume level (0-100).
func (e *Engine) Volume() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.volume
}

// Muted returns whether audio is muted.
func (e *Engine) Muted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.muted
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close shuts the engine down: cancels polls and hydration and closes all
// subscriptions. The device itself is owned by the caller and untouched.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.done)
	e.stopPollLocked()
	if e.hydrateCancel != nil {
		e.hydrateCancel()
		e.hydrateCancel = nil
	}
	e.mu.Unlock()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()

	return nil
}

// Event publication helpers. Callers must not hold e.mu when the
// subscriber could call back into the engine, but sends are non-blocking
// so publishing under the lock is safe.

func (e *Engine) publishState(prev, cur State) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendState(StateChange{Previous: prev, Current: cur})
	}
}

func (e *Engine) publishTrack(ev TrackChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendTrack(ev)
	}
}

func (e *Engine) publishPosition(ev PositionChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendPosition(ev)
	}
}

func (e *Engine) publishQueue(ev QueueChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendQueue(ev)
	}
}

func (e *Engine) publishMode(ev ModeChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendMode(ev)
	}
}

func (e *Engine) publishHydration(ev HydrationChange) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendHydration(ev)
	}
}

func (e *Engine) publishError(ev ErrorEvent) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendError(ev)
	}
}

// setStateLocked transitions the state and publishes the change.
func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	prev := e.state
	e.state = s
	e.publishState(prev, s)
}
