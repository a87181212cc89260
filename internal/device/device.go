// Package device defines the contract with the external media player.
//
// The device is asynchronous: commands return immediately (or fail), and
// everything the device actually does comes back on the event channel.
// Commands are ordered relative to each other, but their effects are not
// ordered relative to events, so consumers must tolerate events about a
// previous track arriving after a new load.
package device

import "time"

// State is the playback state reported by the device.
type State int

const (
	StateUnstarted State = iota
	StatePlaying
	StatePaused
	StateBuffering
	StateEnded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "Unstarted"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateBuffering:
		return "Buffering"
	case StateEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}

// EventKind discriminates Event.
type EventKind int

const (
	// EventReady means the device finished initializing and accepts commands.
	EventReady EventKind = iota
	// EventStateChange carries a new State.
	EventStateChange
	// EventError carries a device error code for the current track.
	EventError
)

// Event is emitted by the device on its event channel.
type Event struct {
	Kind  EventKind
	State State // valid when Kind == EventStateChange
	Code  int   // valid when Kind == EventError
}

// Device is the external playback surface the engine drives.
//
// All command methods may fail (device torn down, not yet ready); the
// engine treats such failures as non-fatal and never retries.
type Device interface {
	// Load loads a single track by ID and starts playing it.
	Load(id string) error
	// LoadCollection loads an externally-identified collection by ID.
	// The resolved item IDs become available via CollectionItemIDs later.
	LoadCollection(collectionID string) error

	Play() error
	Pause() error
	Seek(pos time.Duration) error
	SetVolume(level int) error // 0-100
	Mute() error
	Unmute() error

	// CurrentTime and Duration report the device's playback clock.
	// Duration may be zero while the device is still loading.
	CurrentTime() (time.Duration, error)
	Duration() (time.Duration, error)

	// CollectionItemIDs returns the raw item IDs of the last loaded
	// collection, or an empty slice while the device is still resolving it.
	CollectionItemIDs() ([]string, error)

	// Events returns the channel the device emits on. The channel is
	// closed when the device is torn down.
	Events() <-chan Event
}
