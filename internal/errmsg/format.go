// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

const (
	// Playback operations
	OpPlayback Op = "play track"
	OpLoad     Op = "load track"
	OpSeek     Op = "seek"
	OpPause    Op = "pause playback"
	OpVolume   Op = "set volume"
	OpMute     Op = "change mute state"

	// Collection operations
	OpCollectionLoad Op = "load collection"
	OpHydrate        Op = "hydrate collection"

	// Metadata operations
	OpResolve Op = "resolve track metadata"

	// Initialization
	OpInitialize Op = "initialize application"
	OpConfig     Op = "load configuration"
)

// deviceOps maps the short operation names carried by engine error events
// to user-facing operations.
var deviceOps = map[string]Op{
	"playback":        OpPlayback,
	"load":            OpLoad,
	"load-collection": OpCollectionLoad,
	"hydrate":         OpHydrate,
	"play":            OpPlayback,
	"pause":           OpPause,
	"seek":            OpSeek,
	"volume":          OpVolume,
	"mute":            OpMute,
	"unmute":          OpMute,
}

// FromEngine translates an engine event operation name into an Op.
// Unknown names pass through verbatim.
func FromEngine(op string) Op {
	if mapped, ok := deviceOps[op]; ok {
		return mapped
	}
	return Op(op)
}

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
