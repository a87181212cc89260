package queue

// Track represents a single track in the queue.
// Identity is the ID; everything else is display metadata.
type Track struct {
	ID            string // opaque stable identifier from the device's catalog
	Title         string
	Artist        string
	ThumbnailURL  string
	DurationLabel string // preformatted, e.g. "03:41" (may be empty)
}
