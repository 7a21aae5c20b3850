package game

import (
	"sort"
	"time"
)

// Frame phases timed by PerfStats.
const (
	FrameInput  = "input"
	FrameUpdate = "update"
	FrameDraw   = "draw"
)

// PerfStats tracks per-frame time spent in input, update and draw.
// Tick phases are timed separately by the telemetry perf collector.
type PerfStats struct {
	samples    map[string][]time.Duration
	next       map[string]int
	maxSamples int
}

// NewPerfStats creates a frame timer keeping the last maxSamples frames.
func NewPerfStats(maxSamples int) *PerfStats {
	if maxSamples < 1 {
		maxSamples = 120
	}
	return &PerfStats{
		samples:    make(map[string][]time.Duration),
		next:       make(map[string]int),
		maxSamples: maxSamples,
	}
}

// Time runs fn and records its duration under name.
func (p *PerfStats) Time(name string, fn func()) {
	start := time.Now()
	fn()
	p.Record(name, time.Since(start))
}

// Record adds a duration sample, overwriting the oldest once full.
func (p *PerfStats) Record(name string, d time.Duration) {
	s := p.samples[name]
	if len(s) < p.maxSamples {
		p.samples[name] = append(s, d)
		return
	}
	i := p.next[name]
	s[i] = d
	p.next[name] = (i + 1) % p.maxSamples
}

// Avg returns the average duration for name.
func (p *PerfStats) Avg(name string) time.Duration {
	s := p.samples[name]
	if len(s) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s {
		total += d
	}
	return total / time.Duration(len(s))
}

// Total returns the sum of all average durations.
func (p *PerfStats) Total() time.Duration {
	var total time.Duration
	for name := range p.samples {
		total += p.Avg(name)
	}
	return total
}

// SortedNames returns names sorted by average duration, slowest first.
func (p *PerfStats) SortedNames() []string {
	names := make([]string, 0, len(p.samples))
	for name := range p.samples {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ai, aj := p.Avg(names[i]), p.Avg(names[j])
		if ai != aj {
			return ai > aj
		}
		return names[i] < names[j]
	})
	return names
}

// Averages returns the average of every recorded name.
func (p *PerfStats) Averages() map[string]time.Duration {
	out := make(map[string]time.Duration, len(p.samples))
	for name := range p.samples {
		out[name] = p.Avg(name)
	}
	return out
}
