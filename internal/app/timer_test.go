package app

import (
	"testing"
	"time"
)

func TestTimerFires(t *testing.T) {
	fired := make(chan struct{})
	NewTimerScheduler().Arm(time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("armed timer never fired")
	}
}

func TestTimerCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	handle := NewTimerScheduler().Arm(20*time.Millisecond, func() { fired <- struct{}{} })
	handle.Cancel()

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(60 * time.Millisecond):
	}

	// Repeated and late cancels are harmless.
	handle.Cancel()
	handle.Cancel()
}

func TestTimerCancelNilSafe(t *testing.T) {
	var handle *TimerHandle
	handle.Cancel()

	(&TimerHandle{}).Cancel()
}

func TestTimerCancelAfterFire(t *testing.T) {
	fired := make(chan struct{})
	handle := NewTimerScheduler().Arm(time.Millisecond, func() { close(fired) })
	<-fired
	handle.Cancel()
}
