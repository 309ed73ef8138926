package core

import (
	"math"
	"time"
)

// RTTStats contains the round-trip times observed in a session.
type RTTStats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
	// MDev is the standard deviation of the round-trip times.
	MDev time.Duration
}

// Summary aggregates the round trips of a session.
type Summary struct {
	// Sent is the amount of echo requests attempted.
	Sent int

	// Received is the amount of echo requests replied in time.
	Received int

	// LostPercent is the share of attempted requests that were not replied, between 0 and 100.
	LostPercent float64

	// RTT is nil when no request was replied.
	RTT *RTTStats

	// Start and End delimit the session. They are zero for summaries built outside a session.
	Start time.Time
	End   time.Time
}

// RoundTrips returns the round-trip statistics of the summary, or ErrNoSamples when there are none.
func (s *Summary) RoundTrips() (RTTStats, error) {
	if s.RTT == nil {
		return RTTStats{}, ErrNoSamples
	}
	return *s.RTT, nil
}

// Summarize computes the statistics of a sequence of round trips.
func Summarize(results []RoundTrip) Summary {
	summary := Summary{Sent: len(results)}

	var rtts []time.Duration
	for _, rt := range results {
		if rt.Res == Replied {
			rtts = append(rtts, rt.Time)
		}
	}
	summary.Received = len(rtts)

	if summary.Sent > 0 {
		summary.LostPercent = float64(summary.Sent-summary.Received) / float64(summary.Sent) * 100
	}

	if stats, err := summarizeRTTs(rtts); err == nil {
		summary.RTT = &stats
	}

	return summary
}

// summarizeRTTs computes min, max, mean and deviation over rtts.
func summarizeRTTs(rtts []time.Duration) (RTTStats, error) {
	if len(rtts) == 0 {
		return RTTStats{}, ErrNoSamples
	}

	stats := RTTStats{Min: rtts[0], Max: rtts[0]}

	var sum, sqSum float64
	for _, rtt := range rtts {
		stats.Min = min(stats.Min, rtt)
		stats.Max = max(stats.Max, rtt)

		ns := float64(rtt)
		sum += ns
		sqSum += ns * ns
	}

	n := float64(len(rtts))
	mean := sum / n
	variance := max(sqSum/n-mean*mean, 0)

	stats.Mean = time.Duration(mean)
	stats.MDev = time.Duration(math.Sqrt(variance))

	return stats, nil
}
