package telemetry

import "github.com/pthm-cable/beltworks/systems"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	events systems.Events
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record adds the events of one tick to the current window.
func (c *Collector) Record(ev systems.Events) {
	c.events.Add(ev)
}

// Pending returns the events counted so far in the current window.
func (c *Collector) Pending() systems.Events {
	return c.events
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Sample is the floor state captured at window end.
type Sample struct {
	Power     systems.PowerReport
	Running   int
	Idle      int
	Disabled  int
	Items     int       // Items on all belts
	Occupancy []float64 // Per-belt len(items)/max_items
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample Sample) WindowStats {
	ev := c.events
	elapsed := float64(currentTick-c.windowStartTick) * c.dt

	var perSec, refusal float64
	if elapsed > 0 {
		perSec = float64(ev.Delivered) / elapsed
	}
	if attempts := ev.Transfers + ev.TransferRefused; attempts > 0 {
		refusal = float64(ev.TransferRefused) / float64(attempts)
	}

	occMean, occP50, occP90 := ComputeOccupancyStats(sample.Occupancy)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Produced:        ev.Produced,
		Converted:       ev.Converted,
		Delivered:       ev.Delivered,
		Pickups:         ev.Pickups,
		Handoffs:        ev.Handoffs,
		Transfers:       ev.Transfers,
		IntakeRefused:   ev.IntakeRefused,
		TransferRefused: ev.TransferRefused,

		DeliveredPerSec: perSec,
		RefusalRate:     refusal,

		Generation: sample.Power.Generation,
		Demand:     sample.Power.Demand,
		PowerRatio: sample.Power.Ratio,

		Running:  sample.Running,
		Idle:     sample.Idle,
		Disabled: sample.Disabled,

		ItemsOnBelts:  sample.Items,
		OccupancyMean: occMean,
		OccupancyP50:  occP50,
		OccupancyP90:  occP90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.events = systems.Events{}

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
