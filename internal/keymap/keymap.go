package keymap

// Binding describes a single key binding.
type Binding struct {
	Keys        []string
	Action      Action
	Description string
	Context     string // "global", "playback", "queue"
}

// All contains all key bindings for dispatch and help generation.
var All = []Binding{
	// Global
	{[]string{"q", "ctrl+c"}, ActionQuit, "Quit", "global"},

	// Playback
	{[]string{" "}, ActionPlayPause, "Play/pause", "playback"},
	{[]string{"n"}, ActionNextTrack, "Next track", "playback"},
	{[]string{"b"}, ActionPrevTrack, "Previous track", "playback"},
	{[]string{"right"}, ActionSeekForward, "Seek +5%", "playback"},
	{[]string{"left"}, ActionSeekBack, "Seek -5%", "playback"},
	{[]string{"s"}, ActionToggleShuffle, "Toggle shuffle", "playback"},
	{[]string{"r"}, ActionCycleRepeat, "Cycle repeat mode", "playback"},
	{[]string{"+", "="}, ActionVolumeUp, "Volume up", "playback"},
	{[]string{"-"}, ActionVolumeDown, "Volume down", "playback"},
	{[]string{"m"}, ActionToggleMute, "Toggle mute", "playback"},

	// Queue
	{[]string{"d", "delete"}, ActionRemoveCurrent, "Remove current track", "queue"},
	{[]string{"c"}, ActionClearQueue, "Clear queue", "queue"},
	{[]string{"1"}, ActionCollectionOne, "Load first collection", "queue"},
	{[]string{"2"}, ActionCollectionTwo, "Load second collection", "queue"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range All {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}
