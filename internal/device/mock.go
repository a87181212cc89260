package device

import (
	"sync"
	"time"
)

// Mock is a test double for Device.
//
// Tests drive it by setting reported values and emitting events; it records
// every command so assertions can inspect what the engine issued.
type Mock struct {
	mu sync.Mutex

	currentTime time.Duration
	duration    time.Duration
	itemIDs     []string

	cmdErr error // returned by every command when set

	loadCalls       []string
	collectionCalls []string
	playCalls       int
	pauseCalls      int
	seekCalls       []time.Duration
	volumeCalls     []int
	muteCalls       int
	unmuteCalls     int

	events chan Event
}

// NewMock creates a new mock device.
func NewMock() *Mock {
	return &Mock{
		events: make(chan Event, 32),
	}
}

func (m *Mock) Load(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls = append(m.loadCalls, id)
	return m.cmdErr
}

func (m *Mock) LoadCollection(collectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collectionCalls = append(m.collectionCalls, collectionID)
	return m.cmdErr
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playCalls++
	return m.cmdErr
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCalls++
	return m.cmdErr
}

func (m *Mock) Seek(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, pos)
	return m.cmdErr
}

func (m *Mock) SetVolume(level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volumeCalls = append(m.volumeCalls, level)
	return m.cmdErr
}

func (m *Mock) Mute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muteCalls++
	return m.cmdErr
}

func (m *Mock) Unmute() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unmuteCalls++
	return m.cmdErr
}

func (m *Mock) CurrentTime() (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime, m.cmdErr
}

func (m *Mock) Duration() (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration, m.cmdErr
}

func (m *Mock) CollectionItemIDs() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.itemIDs))
	copy(ids, m.itemIDs)
	return ids, m.cmdErr
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

// Test helpers

// EmitReady emits a ready event.
func (m *Mock) EmitReady() { m.events <- Event{Kind: EventReady} }

// EmitState emits a state-change event.
func (m *Mock) EmitState(s State) { m.events <- Event{Kind: EventStateChange, State: s} }

// EmitError emits a device error event.
func (m *Mock) EmitError(code int) { m.events <- Event{Kind: EventError, Code: code} }

// CloseEvents closes the event channel, simulating device teardown.
func (m *Mock) CloseEvents() { close(m.events) }

// SetCommandError makes every subsequent command return err.
func (m *Mock) SetCommandError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cmdErr = err
}

// SetCurrentTime sets the reported playback position.
func (m *Mock) SetCurrentTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = d
}

// SetDuration sets the reported track duration.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// SetCollectionItemIDs sets the resolved collection item IDs.
func (m *Mock) SetCollectionItemIDs(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.itemIDs = ids
}

func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.loadCalls))
	copy(calls, m.loadCalls)
	return calls
}

func (m *Mock) CollectionCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, len(m.collectionCalls))
	copy(calls, m.collectionCalls)
	return calls
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]time.Duration, len(m.seekCalls))
	copy(calls, m.seekCalls)
	return calls
}

func (m *Mock) VolumeCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]int, len(m.volumeCalls))
	copy(calls, m.volumeCalls)
	return calls
}

func (m *Mock) MuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muteCalls
}

func (m *Mock) UnmuteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unmuteCalls
}

// Verify Mock implements Device at compile time.
var _ Device = (*Mock)(nil)
