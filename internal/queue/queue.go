package queue

// Queue holds an ordered list of tracks plus a cursor into it.
//
// Invariant: if the queue is non-empty and a track is selected,
// 0 <= currentIndex < len(tracks); otherwise currentIndex == -1 and
// Current() returns nil. Every mutation re-derives the cursor in the
// same call, so Current() never disagrees with Tracks()[CurrentIndex()].
type Queue struct {
	tracks       []Track
	currentIndex int // -1 if nothing selected
}

// New creates a new empty queue.
func New() *Queue {
	return &Queue{
		tracks:       make([]Track, 0),
		currentIndex: -1,
	}
}

// Current returns the currently selected track, or nil if none.
func (q *Queue) Current() *Track {
	if q.currentIndex < 0 || q.currentIndex >= len(q.tracks) {
		return nil
	}
	return &q.tracks[q.currentIndex]
}

// CurrentIndex returns the index of the currently selected track (-1 if none).
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// SetCurrentIndex moves the cursor to index.
// Returns the track at that position, or nil if the index is invalid.
func (q *Queue) SetCurrentIndex(index int) *Track {
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// Deselect clears the cursor without touching the tracks.
func (q *Queue) Deselect() {
	q.currentIndex = -1
}

// Replace swaps the whole queue for tracks and selects startIndex.
// An out-of-range startIndex leaves nothing selected.
// Returns the selected track, or nil.
func (q *Queue) Replace(tracks []Track, startIndex int) *Track {
	q.tracks = q.tracks[:0]
	q.tracks = append(q.tracks, tracks...)
	q.currentIndex = -1
	if startIndex >= 0 && startIndex < len(q.tracks) {
		q.currentIndex = startIndex
	}
	return q.Current()
}

// Append adds a track to the end of the queue.
// Membership is a set keyed by ID: appending a track whose ID is already
// present is a no-op. Returns true if the track was added.
func (q *Queue) Append(t Track) bool {
	if q.IndexOf(t.ID) >= 0 {
		return false
	}
	q.tracks = append(q.tracks, t)
	return true
}

// Remove removes the track with the given ID.
// If a track before the cursor is removed, the cursor shifts down by one so
// it keeps pointing at the same logical track. If the current track is
// removed, the cursor stays at the same position clamped to the new last
// index, or becomes -1 when the queue empties.
// Returns false if no track with that ID exists.
func (q *Queue) Remove(id string) bool {
	index := q.IndexOf(id)
	if index < 0 {
		return false
	}
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)

	if q.currentIndex > index {
		q.currentIndex--
	} else if q.currentIndex == index {
		if q.currentIndex >= len(q.tracks) {
			q.currentIndex = len(q.tracks) - 1
		}
	}
	return true
}

// Clear removes all tracks and resets the cursor.
func (q *Queue) Clear() {
	q.tracks = q.tracks[:0]
	q.currentIndex = -1
}

// IndexOf returns the index of the track with the given ID, or -1.
func (q *Queue) IndexOf(id string) int {
	for i := range q.tracks {
		if q.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// Track returns the track at the given index, or nil if out of bounds.
func (q *Queue) Track(index int) *Track {
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	return &q.tracks[index]
}

// Tracks returns a copy of all tracks.
func (q *Queue) Tracks() []Track {
	result := make([]Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}
