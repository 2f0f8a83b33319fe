package model

import "time"

// Overlaps reports whether the closed intervals [s1, e1] and [s2, e2] share
// at least one instant. Endpoints count: a booking ending exactly when
// another starts is a conflict.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !s2.After(e1)
}

// TimeWindow is a closed availability window, always in UTC.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (w TimeWindow) OverlapsBooking(b *Booking) bool {
	return Overlaps(w.Start, w.End, b.StartTime, b.EndTime)
}
