// Package stats accumulates transfer observations into a throughput estimate.
package stats

import "time"

// Tracker keeps a running harmonic mean of observed byte rates.
//
// Each observation contributes its duration divided by its byte count; the rate is
// the number of observations divided by that sum. Averaging inverse rates keeps a
// burst of small fast transfers from dominating the estimate.
//
// The zero value is ready to use. A Tracker is not safe for concurrent use; callers
// guard it with the lock of the resource it belongs to.
type Tracker struct {
	sumInverseRates float64 // seconds per byte
	observations    uint64
}

// Record adds a transfer of bytes that ran from start to end.
// Transfers of zero or fewer bytes are ignored. Durations that come out negative
// are treated as zero.
func (t *Tracker) Record(start, end time.Time, bytes int64) {
	if bytes <= 0 {
		return
	}
	elapsed := end.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	t.sumInverseRates += elapsed.Seconds() / float64(bytes)
	t.observations++
}

// Observations returns the number of recorded transfers.
func (t *Tracker) Observations() uint64 {
	return t.observations
}

// Rate returns the harmonic-mean rate in bytes per second, or 0 if nothing has been
// recorded. If every recorded transfer took no measurable time the rate is +Inf.
func (t *Tracker) Rate() float64 {
	if t.observations == 0 {
		return 0
	}
	return float64(t.observations) / t.sumInverseRates
}
