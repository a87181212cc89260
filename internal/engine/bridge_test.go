package engine

import (
	"testing"
	"time"

	"github.com/nlaurent/cadence/internal/device"
)

func TestReady_AppliesVolumeAndLoadsSelection(t *testing.T) {
	e, dev := newTestEngine(t, Options{Volume: 55})
	e.StartPlayback(someTracks("a"), 0)

	dev.EmitReady()

	eventually(t, func() bool {
		calls := dev.VolumeCalls()
		return len(calls) == 1 && calls[0] == 55
	}, "ready never applied the configured volume")
	eventually(t, func() bool {
		// Initial load plus the reload after ready
		return len(dev.LoadCalls()) == 2
	}, "ready never reloaded the selected track")
	if e.State() != StateLoading {
		t.Errorf("State() = %v, want Loading", e.State())
	}
}

func TestReady_EmptyQueueStaysIdle(t *testing.T) {
	e, dev := newTestEngine(t, Options{})

	dev.EmitReady()

	eventually(t, func() bool { return len(dev.VolumeCalls()) == 1 }, "ready not handled")
	if e.State() != StateIdle {
		t.Errorf("State() = %v, want Idle", e.State())
	}
	if len(dev.LoadCalls()) != 0 {
		t.Error("no load expected without a selection")
	}
}

func TestDeviceState_PlayingStartsProgressPoll(t *testing.T) {
	e, dev := newTestEngine(t, Options{PollInterval: 10 * time.Millisecond})
	e.StartPlayback(someTracks("a"), 0)
	dev.SetCurrentTime(42 * time.Second)
	dev.SetDuration(180 * time.Second)
	sub := e.Subscribe()

	dev.EmitState(device.StatePlaying)

	eventually(t, func() bool { return e.State() == StatePlaying }, "never reached Playing")
	select {
	case ev := <-sub.PositionChanged:
		if ev.Position != 42*time.Second || ev.Duration != 180*time.Second {
			t.Errorf("PositionChange = %+v, want 42s/180s", ev)
		}
	case <-time.After(waitFor):
		t.Fatal("poll never published a position sample")
	}
	if e.Position() != 42*time.Second {
		t.Errorf("Position() = %v, want 42s", e.Position())
	}
}

func TestDeviceState_PausedStopsProgressPoll(t *testing.T) {
	e, dev := newTestEngine(t, Options{PollInterval: 10 * time.Millisecond})
	e.StartPlayback(someTracks("a"), 0)
	dev.SetCurrentTime(10 * time.Second)
	dev.SetDuration(60 * time.Second)

	dev.EmitState(device.StatePlaying)
	eventually(t, func() bool { return e.Position() > 0 }, "poll never sampled")

	dev.EmitState(device.StatePaused)
	eventually(t, func() bool { return e.State() == StatePaused }, "never reached Paused")

	dev.SetCurrentTime(50 * time.Second)
	time.Sleep(50 * time.Millisecond)
	if e.Position() != 10*time.Second {
		t.Errorf("Position() = %v, want 10s (poll should be stopped)", e.Position())
	}
}

func TestDeviceState_BufferingMapsToLoading(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a"), 0)
	dev.EmitState(device.StatePlaying)
	eventually(t, func() bool { return e.State() == StatePlaying }, "never reached Playing")

	dev.EmitState(device.StateBuffering)

	eventually(t, func() bool { return e.State() == StateLoading }, "buffering never mapped to Loading")
}

func TestDeviceState_EndedAdvancesQueue(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b"), 0)
	dev.EmitState(device.StatePlaying)
	eventually(t, func() bool { return e.State() == StatePlaying }, "never reached Playing")

	dev.EmitState(device.StateEnded)

	eventually(t, func() bool { return e.QueueIndex() == 1 }, "ended never advanced the queue")
	eventually(t, func() bool {
		calls := dev.LoadCalls()
		return len(calls) == 2 && calls[1] == "b"
	}, "replacement track never loaded")
}

func TestDeviceState_EndedOnLastTrackGoesIdle(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a"), 0)
	dev.EmitState(device.StatePlaying)
	eventually(t, func() bool { return e.State() == StatePlaying }, "never reached Playing")

	dev.EmitState(device.StateEnded)

	eventually(t, func() bool { return e.State() == StateIdle }, "never went idle after last track")
	if e.QueueIndex() != -1 {
		t.Errorf("QueueIndex() = %d, want -1", e.QueueIndex())
	}
}

func TestDeviceState_EndedWithRepeatOneReplays(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a"), 0)
	e.CycleRepeat()
	e.CycleRepeat() // -> RepeatOne
	dev.EmitState(device.StatePlaying)
	eventually(t, func() bool { return e.State() == StatePlaying }, "never reached Playing")

	dev.EmitState(device.StateEnded)

	eventually(t, func() bool {
		seeks := dev.SeekCalls()
		return len(seeks) == 1 && seeks[0] == 0
	}, "repeat-one never sought back to the start")
	eventually(t, func() bool { return dev.PlayCalls() == 1 }, "repeat-one never resumed playback")
	if e.QueueIndex() != 0 {
		t.Errorf("QueueIndex() = %d, want 0 (same track)", e.QueueIndex())
	}
	if len(dev.LoadCalls()) != 1 {
		t.Error("repeat-one must replay without reloading")
	}
}

func TestDeviceState_StaleEndedDuringLoadIsDiscarded(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b", "c"), 0)

	// A late ended event from the previous track arrives while the new
	// load is still in flight.
	dev.EmitState(device.StateEnded)

	time.Sleep(50 * time.Millisecond)
	if e.QueueIndex() != 0 {
		t.Errorf("QueueIndex() = %d, want 0 (stale ended must not advance)", e.QueueIndex())
	}
	if e.State() != StateLoading {
		t.Errorf("State() = %v, want Loading", e.State())
	}
}

func TestDeviceError_SkipsToNextTrack(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a", "b"), 0)
	sub := e.Subscribe()

	dev.EmitError(150)

	eventually(t, func() bool { return e.QueueIndex() == 1 }, "device error never skipped the track")
	select {
	case ev := <-sub.Error:
		if ev.Op != "playback" {
			t.Errorf("ErrorEvent.Op = %q, want playback", ev.Op)
		}
		if ev.TrackID != "a" {
			t.Errorf("ErrorEvent.TrackID = %q, want a", ev.TrackID)
		}
		if ev.Code != 150 {
			t.Errorf("ErrorEvent.Code = %d, want 150", ev.Code)
		}
	case <-time.After(waitFor):
		t.Fatal("no ErrorEvent published for the device error")
	}
}

func TestDeviceError_OnLastTrackGoesIdle(t *testing.T) {
	e, dev := newTestEngine(t, Options{})
	e.StartPlayback(someTracks("a"), 0)

	dev.EmitError(100)

	eventually(t, func() bool { return e.State() == StateIdle }, "never went idle after terminal error")
	if e.QueueIndex() != -1 {
		t.Errorf("QueueIndex() = %d, want -1", e.QueueIndex())
	}
}

func TestDeviceTeardown_GoesIdle(t *testing.T) {
	e, dev := newTestEngine(t, Options{PollInterval: 10 * time.Millisecond})
	e.StartPlayback(someTracks("a"), 0)
	dev.EmitState(device.StatePlaying)
	eventually(t, func() bool { return e.State() == StatePlaying }, "never reached Playing")

	dev.CloseEvents()

	eventually(t, func() bool { return e.State() == StateIdle }, "teardown never went idle")
}

func TestTrackChange_ResetsProgress(t *testing.T) {
	e, dev := newTestEngine(t, Options{PollInterval: 10 * time.Millisecond})
	e.StartPlayback(someTracks("a", "b"), 0)
	dev.SetCurrentTime(90 * time.Second)
	dev.SetDuration(120 * time.Second)
	dev.EmitState(device.StatePlaying)
	eventually(t, func() bool { return e.Position() == 90*time.Second }, "poll never sampled")

	e.Next()

	if e.Position() != 0 {
		t.Errorf("Position() = %v, want 0 after track change", e.Position())
	}
	if e.Duration() != 0 {
		t.Errorf("Duration() = %v, want 0 after track change", e.Duration())
	}
}
