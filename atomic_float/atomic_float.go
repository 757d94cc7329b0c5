package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 supporting lock-free reads and updates. Sweep workers use it to
// reduce their per-row max change into a single delta without a mutex.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 returns an AtomicFloat64 holding val.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.bits.Store(math.Float64bits(val))
	return af
}

// AtomicRead returns the current value.
func (af *AtomicFloat64) AtomicRead() float64 {
	return math.Float64frombits(af.bits.Load())
}

// AtomicMax raises the value to candidate if candidate is larger, and returns the resulting
// value. It retries on contention while the candidate is still the larger value.
// NaN candidates are ignored.
func (af *AtomicFloat64) AtomicMax(candidate float64) float64 {
	for {
		old := af.bits.Load()
		current := math.Float64frombits(old)
		if !(candidate > current) {
			return current
		}
		if af.bits.CompareAndSwap(old, math.Float64bits(candidate)) {
			return candidate
		}
	}
}
