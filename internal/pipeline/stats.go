package pipeline

import (
	"slices"
	"sync"
	"time"
)

type runSample struct {
	at       time.Time
	kind     Kind
	duration time.Duration
	failed   bool
}

// DurationSummary aggregates the runs of one kind.
type DurationSummary struct {
	Count  int     `json:"count"`
	Failed int     `json:"failed"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
}

// StatsSnapshot is a point-in-time view of recent runs.
type StatsSnapshot struct {
	WindowSeconds int64                   `json:"window_seconds"`
	All           DurationSummary         `json:"all"`
	ByKind        map[Kind]DurationSummary `json:"by_kind"`
}

// RunStats keeps run durations within a rolling window.
type RunStats struct {
	mu      sync.Mutex
	samples []runSample
	maxAge  time.Duration
	now     func() time.Time
}

func NewRunStats(maxAge time.Duration) *RunStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &RunStats{maxAge: maxAge, now: time.Now}
}

// Record adds one finished run.
func (s *RunStats) Record(kind Kind, d time.Duration, failed bool) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, runSample{at: now, kind: kind, duration: d, failed: failed})
}

func (s *RunStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())

	byKind := make(map[Kind][]runSample)
	for _, sm := range s.samples {
		byKind[sm.kind] = append(byKind[sm.kind], sm)
	}
	snap := StatsSnapshot{
		WindowSeconds: int64(s.maxAge / time.Second),
		All:           summarize(s.samples),
		ByKind:        make(map[Kind]DurationSummary, len(byKind)),
	}
	for k, samples := range byKind {
		snap.ByKind[k] = summarize(samples)
	}
	return snap
}

func (s *RunStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.samples = slices.DeleteFunc(s.samples, func(sm runSample) bool {
		return sm.at.Before(cutoff)
	})
}

func summarize(samples []runSample) DurationSummary {
	if len(samples) == 0 {
		return DurationSummary{}
	}
	values := make([]int64, 0, len(samples))
	var sum int64
	var failed int
	for _, sm := range samples {
		ms := sm.duration.Milliseconds()
		values = append(values, ms)
		sum += ms
		if sm.failed {
			failed++
		}
	}
	slices.Sort(values)
	return DurationSummary{
		Count:  len(values),
		Failed: failed,
		MinMs:  values[0],
		MaxMs:  values[len(values)-1],
		AvgMs:  float64(sum) / float64(len(values)),
		P50Ms:  percentile(values, 50),
		P95Ms:  percentile(values, 95),
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	index := float64(len(sorted)-1) * pct / 100
	lower := int(index)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(index-float64(lower))
}
