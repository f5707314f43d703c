package smssensor

import "time"

// ScanWindow is the half-open time range [From, To) a run covers. A zero
// From means all time.
type ScanWindow struct {
	From time.Time
	To   time.Time
}

// scanWindow decides how far back a run must look. The first run, or a run
// after the configured lookback grew, covers the whole lookback. Later runs
// cover only the stretch since the last checkpoint, padded backwards by a
// safety overlap so clock skew and out-of-order delivery cannot lose
// messages, and clamped so an ancient checkpoint never widens the window
// past the lookback.
func scanWindow(cp *Checkpoint, now time.Time, lookbackDays int, overlap time.Duration, allTime bool) ScanWindow {
	w := ScanWindow{To: now}
	if allTime {
		return w
	}
	floor := now.AddDate(0, 0, -lookbackDays)
	if cp == nil || lookbackDays > cp.LookbackDays {
		w.From = floor
		return w
	}
	from := cp.ScannedAt.Add(-overlap)
	if from.Before(floor) {
		from = floor
	}
	w.From = from
	return w
}
