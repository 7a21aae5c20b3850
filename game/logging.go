package game

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/systems"
)

// logFloorState logs a one-line summary of the floor: machine counts by
// variant and state, items in transit and cumulative totals.
func (g *Game) logFloorState() {
	var counts [5]int
	var items, fullBelts int
	for _, e := range g.order {
		if !g.machineMap.Has(e) {
			continue
		}
		if v := g.machineMap.Get(e).Variant; int(v) < len(counts) {
			counts[v]++
		}
		if g.beltMap.Has(e) {
			b := g.beltMap.Get(e)
			items += len(b.Items)
			if b.Full() {
				fullBelts++
			}
		}
	}
	running, idle, disabled := g.countStates()

	slog.Info("floor",
		"tick", g.tick,
		"producers", counts[components.VariantProducer],
		"converters", counts[components.VariantConverter],
		"storage", counts[components.VariantStorage],
		"generators", counts[components.VariantGenerator],
		"belts", counts[components.VariantBelt],
		"running", running,
		"idle", idle,
		"disabled", disabled,
		"items", items,
		"full_belts", fullBelts,
		"produced", g.totals.Produced,
		"delivered", g.totals.Delivered,
		"power_ratio", g.lastPower.Ratio,
	)
}

// logFramePerf logs frame timing in windowed mode.
func (g *Game) logFramePerf() {
	if g.perf == nil {
		return
	}
	attrs := make([]any, 0, 2*len(g.perf.SortedNames())+2)
	attrs = append(attrs, "total", g.perf.Total().Round(time.Microsecond))
	for _, name := range g.perf.SortedNames() {
		attrs = append(attrs, name, g.perf.Avg(name).Round(time.Microsecond))
	}
	slog.Info("frame perf", attrs...)
}

// logMachine logs the state of one machine at debug level.
func (g *Game) logMachine(msg string, v MachineView) {
	attrs := []any{
		"variant", v.Variant.String(),
		"x", v.Position.X, "y", v.Position.Y, "z", v.Position.Z,
		"state", v.State.String(),
	}
	if v.State == systems.StateIdle {
		attrs = append(attrs, "power", v.CurrentPower, "demand", v.PowerDemand)
	}
	if v.Belt != nil {
		attrs = append(attrs, "items", len(v.Belt.Items), "upstream", !v.Belt.Upstream.IsZero(), "downstream", !v.Belt.Downstream.IsZero())
	}
	slog.Debug(msg, attrs...)
}
