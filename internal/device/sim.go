package device

import (
	"fmt"
	"sync"
	"time"
)

const simTick = 250 * time.Millisecond

// Sim is an in-process Device for the demo application and integration
// tests. It behaves like a remote player: commands return immediately,
// ready/state events arrive asynchronously, and the playback clock only
// advances while the device reports Playing.
type Sim struct {
	mu sync.Mutex

	ready     bool
	playing   bool
	loaded    string
	pos       time.Duration
	dur       time.Duration
	itemIDs   []string
	pending   []string // collection being "resolved"
	resolve   time.Time
	catalog   map[string][]SimItem
	durations map[string]time.Duration

	events chan Event
	done   chan struct{}
	closed bool
}

// SimItem describes one entry of a simulated collection.
type SimItem struct {
	ID       string
	Duration time.Duration
}

// NewSim creates a simulated device with the given collection catalog.
// The device emits Ready after a short startup delay.
func NewSim(catalog map[string][]SimItem) *Sim {
	s := &Sim{
		catalog:   catalog,
		durations: make(map[string]time.Duration),
		events:    make(chan Event, 32),
		done:      make(chan struct{}),
	}
	for _, items := range catalog {
		for _, item := range items {
			s.durations[item.ID] = item.Duration
		}
	}
	go s.run()
	return s
}

func (s *Sim) run() {
	// Startup latency before the device is usable.
	select {
	case <-time.After(300 * time.Millisecond):
	case <-s.done:
		return
	}
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	s.emit(Event{Kind: EventReady})

	ticker := time.NewTicker(simTick)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Sim) tick() {
	s.mu.Lock()
	// Finish pending collection resolution.
	if s.pending != nil && time.Now().After(s.resolve) {
		s.itemIDs = s.pending
		s.pending = nil
	}
	if !s.playing {
		s.mu.Unlock()
		return
	}
	s.pos += simTick
	ended := s.dur > 0 && s.pos >= s.dur
	if ended {
		s.pos = s.dur
		s.playing = false
	}
	s.mu.Unlock()
	if ended {
		s.emit(Event{Kind: EventStateChange, State: StateEnded})
	}
}

// emit sends an event, dropping it if the buffer is full or the device is
// closed. Sends happen under the mutex so Close never races a send.
func (s *Sim) emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- e:
	default:
	}
}

func (s *Sim) Load(id string) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return fmt.Errorf("sim: not ready")
	}
	s.loaded = id
	s.pos = 0
	dur, ok := s.durations[id]
	if !ok {
		dur = 3 * time.Minute
	}
	s.dur = dur
	s.playing = true
	s.mu.Unlock()

	go s.announceLoad()
	return nil
}

// announceLoad emits the buffering then playing transitions a load
// produces on a real player.
func (s *Sim) announceLoad() {
	s.emit(Event{Kind: EventStateChange, State: StateBuffering})
	select {
	case <-time.After(200 * time.Millisecond):
		s.emit(Event{Kind: EventStateChange, State: StatePlaying})
	case <-s.done:
	}
}

func (s *Sim) LoadCollection(collectionID string) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return fmt.Errorf("sim: not ready")
	}
	items, ok := s.catalog[collectionID]
	if !ok || len(items) == 0 {
		// Unknown collection: the device just never produces item IDs,
		// like a remote player given a bad playlist ID.
		s.itemIDs = nil
		s.pending = nil
		s.mu.Unlock()
		return nil
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	s.itemIDs = nil
	s.pending = ids
	s.resolve = time.Now().Add(700 * time.Millisecond)

	// A real player starts the collection's first item on its own while
	// the item list is still resolving.
	first := items[0]
	s.loaded = first.ID
	s.pos = 0
	s.dur = first.Duration
	if s.dur == 0 {
		s.dur = 3 * time.Minute
	}
	s.playing = true
	s.mu.Unlock()

	go s.announceLoad()
	return nil
}

func (s *Sim) Play() error {
	s.mu.Lock()
	if s.loaded == "" {
		s.mu.Unlock()
		return fmt.Errorf("sim: nothing loaded")
	}
	s.playing = true
	s.mu.Unlock()
	s.emit(Event{Kind: EventStateChange, State: StatePlaying})
	return nil
}

func (s *Sim) Pause() error {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	s.emit(Event{Kind: EventStateChange, State: StatePaused})
	return nil
}

func (s *Sim) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if s.dur > 0 && pos > s.dur {
		pos = s.dur
	}
	s.pos = pos
	return nil
}

func (s *Sim) SetVolume(_ int) error { return nil }
func (s *Sim) Mute() error           { return nil }
func (s *Sim) Unmute() error         { return nil }

func (s *Sim) CurrentTime() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, nil
}

func (s *Sim) Duration() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dur, nil
}

func (s *Sim) CollectionItemIDs() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.itemIDs))
	copy(ids, s.itemIDs)
	return ids, nil
}

func (s *Sim) Events() <-chan Event {
	return s.events
}

// Close tears the device down and closes the event channel.
func (s *Sim) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	close(s.events)
}

// Verify Sim implements Device at compile time.
var _ Device = (*Sim)(nil)
