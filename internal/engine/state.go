package engine

// State represents the engine's playback state.
//
// Valid transitions:
//   - Idle    → Loading (StartPlayback, Toggle on a non-empty queue)
//   - Loading → Playing (device confirms playing)
//   - Loading → Paused  (hydration finished without device confirmation)
//   - Playing → Paused  (Toggle, device pause)
//   - Playing → Loading (device buffering, track change)
//   - Paused  → Playing (Toggle)
//   - any     → Idle    (queue exhausted, queue cleared)
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is selected (anything but idle).
func (s State) IsActive() bool {
	return s != StateIdle
}

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Unknown"
	}
}
