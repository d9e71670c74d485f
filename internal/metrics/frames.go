// Package metrics collects render-loop timing.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// FrameStats records per-frame render durations. It is safe for concurrent use.
type FrameStats struct {
	mu      sync.Mutex
	samples []time.Duration
	limit   int
	total   int
}

// NewFrameStats keeps the most recent limit samples; limit <= 0 keeps all.
func NewFrameStats(limit int) *FrameStats {
	return &FrameStats{limit: limit}
}

// Observe has the signature the viewport loop expects for frame observers.
func (f *FrameStats) Observe(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.total++
	f.samples = append(f.samples, d)
	if f.limit > 0 && len(f.samples) > f.limit {
		f.samples = f.samples[len(f.samples)-f.limit:]
	}
}

func (f *FrameStats) Samples() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.samples))
	copy(out, f.samples)
	return out
}

// Total counts every observed frame, including ones dropped from the window.
func (f *FrameStats) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

func (f *FrameStats) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = nil
	f.total = 0
}

// Summary is a snapshot of the retained samples, in milliseconds.
type Summary struct {
	Frames int     `json:"frames"`
	MeanMs float64 `json:"mean_ms"`
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
	// FPS is the rate the mean render time would sustain, zero when unmeasurable.
	FPS float64 `json:"fps"`
}

func (f *FrameStats) Summary() Summary {
	samples := f.Samples()
	s := Summary{Frames: len(samples)}
	if len(samples) == 0 {
		return s
	}

	ms := Milliseconds(samples)
	sorted := append([]float64(nil), ms...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range ms {
		sum += v
	}
	s.MeanMs = sum / float64(len(ms))
	s.MinMs = sorted[0]
	s.MaxMs = sorted[len(sorted)-1]
	s.P50Ms = percentile(sorted, 0.50)
	s.P95Ms = percentile(sorted, 0.95)
	s.P99Ms = percentile(sorted, 0.99)
	if s.MeanMs > 0 {
		s.FPS = 1000 / s.MeanMs
	}
	return s
}

// Milliseconds converts durations for plotting.
func Milliseconds(ds []time.Duration) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = float64(d) / float64(time.Millisecond)
	}
	return out
}

// percentile uses nearest-rank on an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
