package engine

import (
	"time"

	"github.com/nlaurent/cadence/internal/queue"
)

// StateChange is emitted when the playback state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when the selected track changes.
//
// Emitted by StartPlayback, Next/Previous, automatic advance on track end
// or playback error, queue removal of the current track, and hydration
// replacing the placeholder. Pause/seek/mode changes never emit it.
type TrackChange struct {
	Previous      *queue.Track
	Current       *queue.Track
	PreviousIndex int
	Index         int
}

// QueueChange is emitted when the queue contents change.
type QueueChange struct {
	Tracks []queue.Track
	Index  int
}

// ModeChange is emitted when repeat or shuffle mode changes.
type ModeChange struct {
	Repeat  RepeatMode
	Shuffle bool
}

// PositionChange is emitted on every progress sample and on seek.
// Duration may be zero while the device has not reported one yet.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// HydrationChange reports incremental collection hydration progress.
// Resolved grows batch by batch; Done is true on the final publication.
type HydrationChange struct {
	CollectionID string
	Resolved     int
	Total        int
	Done         bool
}

// ErrorEvent is emitted when a failure was absorbed by the engine.
// These are informational: the engine has already recovered (skipped the
// track, used a fallback record, or dropped the command).
type ErrorEvent struct {
	Op      string // e.g. "load", "seek", "playback", "hydrate"
	TrackID string // track or collection ID if applicable
	Code    int    // device error code for Op == "playback"
	Err     error
}
