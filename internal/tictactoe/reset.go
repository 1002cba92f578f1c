package tictactoe

import "time"

// PendingReset is a scheduled auto-reset bound to the session it was scheduled for.
type PendingReset struct {
	sessionID string
	timer     *time.Timer
}

// ScheduleReset calls fn with sessionID after delay unless the handle is canceled first.
func ScheduleReset(sessionID string, delay time.Duration, fn func(sessionID string)) *PendingReset {
	return &PendingReset{
		sessionID: sessionID,
		timer: time.AfterFunc(delay, func() {
			fn(sessionID)
		}),
	}
}

func (that *PendingReset) SessionID() string {
	if that == nil {
		return ""
	}
	return that.sessionID
}

// Cancel stops the reset. It returns false if the reset already fired or was canceled before.
func (that *PendingReset) Cancel() bool {
	if that == nil {
		return false
	}
	return that.timer.Stop()
}
