// Package keymap defines key bindings and action dispatch for the
// application.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	ActionQuit Action = "quit"

	// Playback actions
	ActionPlayPause     Action = "play_pause"
	ActionNextTrack     Action = "next_track"
	ActionPrevTrack     Action = "prev_track"
	ActionSeekForward   Action = "seek_forward"
	ActionSeekBack      Action = "seek_back"
	ActionToggleShuffle Action = "toggle_shuffle"
	ActionCycleRepeat   Action = "cycle_repeat"

	// Volume actions
	ActionVolumeUp   Action = "volume_up"
	ActionVolumeDown Action = "volume_down"
	ActionToggleMute Action = "toggle_mute"

	// Queue actions
	ActionRemoveCurrent Action = "remove_current"
	ActionClearQueue    Action = "clear_queue"

	// Collection actions
	ActionCollectionOne Action = "collection_one"
	ActionCollectionTwo Action = "collection_two"
)
