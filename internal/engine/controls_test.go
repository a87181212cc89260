package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/nlaurent/cadence/internal/device"
)

func TestStartPlayback_LoadsTrack(t *testing.T) {
	e, dev := newTestEngine(t, Options{})

	e.StartPlayback(someTracks("a", "b", "c"), 1)

	if e.State() != StateLoading {
		t.Errorf("State() = %v, want Loading", e.State())
	}
	if e.QueueIndex() != 1 {
		t.Errorf("QueueIndex() = %d, want 1", e.QueueIndex())
	}
	calls := dev.LoadCalls()
	if len(calls) != 1 || calls[0] != "b" {
		t.Errorf("LoadCalls() = %v, want [b]", calls)
	}
}

func TestStartPlayback_EmptyGoesIdle(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a"), 0)

	e.StartPlayback(nil, 0)

	if e.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", e.State())
	}
	if e.QueueLen() != 0 {
		t.Errorf("QueueLen() = %d, want 0", e.QueueLen())
	}
	if dev.PauseCalls() == 0 {
		t.Error("expected a pause command")
	}
}

func TestStartPlayback_OutOfRangeIndexClampsToZero(t *testing.T) {
	e, dev := newTestEngine(t, Options{})

	e.StartPlayback(someTracks("a", "b"), 7)

	if e.QueueIndex() != 0 {
		t.Errorf("QueueIndex() = %d, want 0", e.QueueIndex())
	}
	if calls := dev.LoadCalls(); len(calls) != 1 || calls[0] != "a" {
		t.Errorf("LoadCalls() = %v, want [a]", calls)
	}
}

func TestToggle_EmptyQueueIsNoop(t *testing.T) {
	e, dev := newTestEngine(t, Options{})

	e.Toggle()

	if e.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", e.State())
	}
	if len(dev.LoadCalls()) != 0 {
		t.Error("no device command expected")
	}
}

func TestToggle_NoSelectionStartsAtZero(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.AddTrack(someTracks("a")[0])
	e.AddTrack(someTracks("b")[0])

	e.Toggle()

	if e.QueueIndex() != 0 {
		t.Errorf("QueueIndex() = %d, want 0", e.QueueIndex())
	}
	if e.State() != StateLoading {
		t.Errorf("State() = %v, want Loading", e.State())
	}
	if calls := dev.LoadCalls(); len(calls) != 1 || calls[0] != "a" {
		t.Errorf("LoadCalls() = %v, want [a]", calls)
	}
}

func TestToggle_FlipsPlayingPaused(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a"), 0)
	dev.EmitState(device.StatePlaying)
	eventually(t, func() bool { return e.State() == StatePlaying }, "never reached Playing")

	e.Toggle()
	if e.State() != StatePaused {
		t.Errorf("State() = %v, want Paused", e.State())
	}
	if dev.PauseCalls() != 1 {
		t.Errorf("PauseCalls() = %d, want 1", dev.PauseCalls())
	}

	e.Toggle()
	if e.State() != StatePlaying {
		t.Errorf("State() = %v, want Playing", e.State())
	}
	if dev.PlayCalls() != 1 {
		t.Errorf("PlayCalls() = %d, want 1", dev.PlayCalls())
	}
}

func TestNext_Advances(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b", "c"), 0)

	e.Next()

	if e.QueueIndex() != 1 {
		t.Errorf("QueueIndex() = %d, want 1", e.QueueIndex())
	}
	calls := dev.LoadCalls()
	if len(calls) != 2 || calls[1] != "b" {
		t.Errorf("LoadCalls() = %v, want [a b]", calls)
	}
}

func TestNext_AtEndWithRepeatAllWraps(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b"), 1)
	e.CycleRepeat() // -> RepeatAll

	e.Next()

	if e.QueueIndex() != 0 {
		t.Errorf("QueueIndex() = %d, want 0", e.QueueIndex())
	}
}

func TestNext_AtEndWithRepeatOffStops(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b"), 1)

	e.Next()

	if e.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", e.State())
	}
	if e.QueueIndex() != -1 {
		t.Errorf("QueueIndex() = %d, want -1", e.QueueIndex())
	}
	if e.CurrentTrack() != nil {
		t.Error("CurrentTrack() should be nil")
	}
	// Queue is kept for inspection
	if e.QueueLen() != 2 {
		t.Errorf("QueueLen() = %d, want 2", e.QueueLen())
	}
}

func TestNext_ShuffleNeverRepeatsCurrent(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b", "c", "d"), 0)
	e.ToggleShuffle()

	for i := 0; i < 50; i++ {
		before := e.QueueIndex()
		e.Next()
		if e.QueueIndex() == before {
			t.Fatal("shuffle advanced to the same index")
		}
	}
}

func TestNext_EmptyQueueIsNoop(t *testing.T) {
	e, dev := newTestEngine(t, Options{})

	e.Next()

	if e.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", e.State())
	}
	if len(dev.LoadCalls()) != 0 {
		t.Error("no device command expected")
	}
}

func TestPrevious_RestartsAfterThreshold(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b"), 1)

	e.mu.Lock()
	e.position = 5 * time.Second
	e.mu.Unlock()

	e.Previous()

	if e.QueueIndex() != 1 {
		t.Errorf("QueueIndex() = %d, want 1 (unchanged)", e.QueueIndex())
	}
	if e.Position() != 0 {
		t.Errorf("Position() = %v, want 0", e.Position())
	}
	seeks := dev.SeekCalls()
	if len(seeks) != 1 || seeks[0] != 0 {
		t.Errorf("SeekCalls() = %v, want [0]", seeks)
	}
}

func TestPrevious_MovesBackEarlyInTrack(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b"), 1)

	e.mu.Lock()
	e.position = time.Second
	e.mu.Unlock()

	e.Previous()

	if e.QueueIndex() != 0 {
		t.Errorf("QueueIndex() = %d, want 0", e.QueueIndex())
	}
}

func TestPrevious_AtStartClampsToZero(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b"), 0)

	e.mu.Lock()
	e.position = time.Second
	e.mu.Unlock()

	e.Previous()

	if e.QueueIndex() != 0 {
		t.Errorf("QueueIndex() = %d, want 0", e.QueueIndex())
	}
}

func TestPrevious_AtStartWithRepeatAllWraps(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b", "c"), 0)
	e.CycleRepeat() // -> RepeatAll

	e.Previous()

	if e.QueueIndex() != 2 {
		t.Errorf("QueueIndex() = %d, want 2", e.QueueIndex())
	}
}

func TestSeekToPercent(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a"), 0)

	e.mu.Lock()
	e.duration = 200 * time.Second
	e.mu.Unlock()

	e.SeekToPercent(50)

	if e.Position() != 100*time.Second {
		t.Errorf("Position() = %v, want 100s", e.Position())
	}
	seeks := dev.SeekCalls()
	if len(seeks) != 1 || seeks[0] != 100*time.Second {
		t.Errorf("SeekCalls() = %v, want [100s]", seeks)
	}
}

func TestSeekToPercent_NoDurationIsNoop(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a"), 0)

	e.SeekToPercent(50)

	if len(dev.SeekCalls()) != 0 {
		t.Error("seek should be ignored without a duration")
	}
}

func TestSeekToPercent_Clamps(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a"), 0)

	e.mu.Lock()
	e.duration = 100 * time.Second
	e.mu.Unlock()

	e.SeekToPercent(150)
	if e.Position() != 100*time.Second {
		t.Errorf("Position() = %v, want 100s", e.Position())
	}

	e.SeekToPercent(-10)
	if e.Position() != 0 {
		t.Errorf("Position() = %v, want 0", e.Position())
	}
}

func TestSetVolume_ClampsAndRemembers(t *testing.T) {
	e, dev := newTestEngine(t, Options{})

	e.SetVolume(150)
	if e.Volume() != 100 {
		t.Errorf("Volume() = %d, want 100", e.Volume())
	}

	e.SetVolume(-5)
	if e.Volume() != 0 {
		t.Errorf("Volume() = %d, want 0", e.Volume())
	}

	calls := dev.VolumeCalls()
	if len(calls) != 2 || calls[0] != 100 || calls[1] != 0 {
		t.Errorf("VolumeCalls() = %v, want [100 0]", calls)
	}
}

func TestToggleMute_RestoresLastNonZeroVolume(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.SetVolume(40)
	e.SetVolume(0)

	e.ToggleMute()
	if !e.Muted() {
		t.Error("Muted() = false, want true")
	}
	if dev.MuteCalls() != 1 {
		t.Errorf("MuteCalls() = %d, want 1", dev.MuteCalls())
	}

	e.ToggleMute()
	if e.Muted() {
		t.Error("Muted() = true, want false")
	}
	// Unmuting at volume 0 restores the last non-zero level, not 0
	if e.Volume() != 40 {
		t.Errorf("Volume() = %d, want 40", e.Volume())
	}
	if dev.UnmuteCalls() != 1 {
		t.Errorf("UnmuteCalls() = %d, want 1", dev.UnmuteCalls())
	}
}

func TestToggleShuffle_ForcesRepeatOff(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.CycleRepeat() // -> RepeatAll

	e.ToggleShuffle()

	if !e.Shuffle() {
		t.Error("Shuffle() = false, want true")
	}
	if e.Repeat() != RepeatOff {
		t.Errorf("Repeat() = %v, want Off", e.Repeat())
	}
}

func TestCycleRepeat_ForcesShuffleOff(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.ToggleShuffle()

	e.CycleRepeat() // -> RepeatAll

	if e.Shuffle() {
		t.Error("Shuffle() = true, want false")
	}
	if e.Repeat() != RepeatAll {
		t.Errorf("Repeat() = %v, want All", e.Repeat())
	}
}

func TestCycleRepeat_Cycles(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	want := []RepeatMode{RepeatAll, RepeatOne, RepeatOff}
	for _, mode := range want {
		if got := e.CycleRepeat(); got != mode {
			t.Errorf("CycleRepeat() = %v, want %v", got, mode)
		}
	}
}

func TestAddTrack_DuplicateIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, Options{})

	if !e.AddTrack(someTracks("a")[0]) {
		t.Error("first AddTrack should return true")
	}
	if e.AddTrack(someTracks("a")[0]) {
		t.Error("duplicate AddTrack should return false")
	}
	if e.QueueLen() != 1 {
		t.Errorf("QueueLen() = %d, want 1", e.QueueLen())
	}
}

func TestRemoveTrack_CurrentLastTrackStops(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("only"), 0)

	if !e.RemoveTrack("only") {
		t.Fatal("RemoveTrack should return true")
	}

	if e.QueueIndex() != -1 {
		t.Errorf("QueueIndex() = %d, want -1", e.QueueIndex())
	}
	if e.CurrentTrack() != nil {
		t.Error("CurrentTrack() should be nil")
	}
	if e.IsPlaying() {
		t.Error("IsPlaying() = true, want false")
	}
}

func TestRemoveTrack_CurrentLoadsReplacement(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b", "c"), 1)

	e.RemoveTrack("b")

	if e.QueueIndex() != 1 {
		t.Errorf("QueueIndex() = %d, want 1", e.QueueIndex())
	}
	if cur := e.CurrentTrack(); cur == nil || cur.ID != "c" {
		t.Errorf("CurrentTrack() = %v, want c", cur)
	}
	calls := dev.LoadCalls()
	if len(calls) != 2 || calls[1] != "c" {
		t.Errorf("LoadCalls() = %v, want [b c]", calls)
	}
}

func TestRemoveTrack_NonCurrentKeepsPlayback(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b", "c"), 2)

	e.RemoveTrack("a")

	if e.QueueIndex() != 1 {
		t.Errorf("QueueIndex() = %d, want 1", e.QueueIndex())
	}
	if cur := e.CurrentTrack(); cur == nil || cur.ID != "c" {
		t.Errorf("CurrentTrack() = %v, want c", cur)
	}
	if len(dev.LoadCalls()) != 1 {
		t.Error("no reload expected for a non-current removal")
	}
}

func TestClearQueue_Stops(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b"), 0)

	e.ClearQueue()

	if e.QueueLen() != 0 {
		t.Errorf("QueueLen() = %d, want 0", e.QueueLen())
	}
	if e.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", e.State())
	}
}

func TestCommands_DeviceFailureDoesNotPropagate(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	dev.SetCommandError(errors.New("device gone"))
	sub := e.Subscribe()

	// None of these may panic or error out
	e.StartPlayback(someTracks("a", "b"), 0)
	e.Toggle()
	e.Next()
	e.SetVolume(10)
	e.ToggleMute()

	// The suppressed failure is observable as a structured event
	select {
	case ev := <-sub.Error:
		if ev.Err == nil {
			t.Error("ErrorEvent.Err should carry the suppressed error")
		}
		if ev.Op == "" {
			t.Error("ErrorEvent.Op should name the failed command")
		}
	case <-time.After(waitFor):
		t.Fatal("expected an ErrorEvent for the suppressed failure")
	}
}
