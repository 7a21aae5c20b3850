package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/beltworks/systems"
)

func TestCollector_FlushAggregatesAndResets(t *testing.T) {
	c := NewCollector(1.0, 0.1) // 10 ticks per window

	if c.WindowDurationTicks() != 10 {
		t.Fatalf("expected 10 ticks per window, got %d", c.WindowDurationTicks())
	}

	for i := 0; i < 10; i++ {
		c.Record(systems.Events{Delivered: 1, Transfers: 3, TransferRefused: 1})
	}

	if c.ShouldFlush(9) {
		t.Error("window should not flush before 10 ticks")
	}
	if !c.ShouldFlush(10) {
		t.Fatal("window should flush at 10 ticks")
	}

	stats := c.Flush(10, Sample{
		Power:     systems.PowerReport{Generation: 50, Demand: 80, Ratio: 0.625},
		Running:   1,
		Idle:      2,
		Items:     4,
		Occupancy: []float64{0.5, 1.0},
	})

	if stats.Delivered != 10 || stats.Transfers != 30 || stats.TransferRefused != 10 {
		t.Errorf("unexpected counters %+v", stats)
	}
	if math.Abs(stats.DeliveredPerSec-10) > 1e-9 {
		t.Errorf("expected 10 delivered/sec, got %f", stats.DeliveredPerSec)
	}
	if math.Abs(stats.RefusalRate-0.25) > 1e-9 {
		t.Errorf("expected refusal rate 0.25, got %f", stats.RefusalRate)
	}
	if stats.PowerRatio != 0.625 || stats.Idle != 2 || stats.ItemsOnBelts != 4 {
		t.Errorf("sample not carried into stats: %+v", stats)
	}
	if math.Abs(stats.OccupancyMean-0.75) > 1e-9 {
		t.Errorf("expected occupancy mean 0.75, got %f", stats.OccupancyMean)
	}

	if c.Pending() != (systems.Events{}) {
		t.Error("counters should reset after flush")
	}
	if c.ShouldFlush(15) {
		t.Error("new window should start at the flush tick")
	}
}
