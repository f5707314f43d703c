package smssensor

import "time"

// ProcessingStats is a point-in-time snapshot of a scan run. The counters
// are copied out of the coordinator's atomics, so a snapshot is internally
// consistent enough for display but not a transactional view.
type ProcessingStats struct {
	Total                int64
	Processed            int64
	Parsed               int64
	Saved                int64
	Skipped              int64
	Triaged              int64
	SubscriptionsTouched int64
	StartTime            time.Time
}

// Throughput returns messages processed per second since the run started.
func (s ProcessingStats) Throughput() float64 {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Processed) / elapsed
}

// ETA estimates the remaining wall time at the current throughput.
func (s ProcessingStats) ETA() time.Duration {
	tp := s.Throughput()
	if tp <= 0 {
		return 0
	}
	remaining := s.Total - s.Processed
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/tp) * time.Second
}

// Done reports whether every scanned message has been accounted for.
func (s ProcessingStats) Done() bool {
	return s.Total > 0 && s.Processed >= s.Total
}
