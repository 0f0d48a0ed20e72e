package app

import "time"

// TimerScheduler arms one-shot deadline callbacks. Callbacks run on their own
// goroutine (time.AfterFunc), so a callback can never re-enter the call that
// armed it; the engine's per-session lock then serializes the two paths.
type TimerScheduler struct{}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// Arm schedules fn to run once after d.
func (s *TimerScheduler) Arm(d time.Duration, fn func()) *TimerHandle {
	return &TimerHandle{timer: time.AfterFunc(d, fn)}
}

// TimerHandle cancels an armed timer. Cancel is idempotent, nil-safe, and
// safe to call after the timer fired; it never reports an error. A cancel
// racing a concurrent fire may lose; the caller's answered flag, not the
// scheduler, decides that race.
type TimerHandle struct {
	timer *time.Timer
}

func (h *TimerHandle) Cancel() {
	if h == nil || h.timer == nil {
		return
	}
	h.timer.Stop()
}
