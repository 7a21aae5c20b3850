package game

import (
	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/systems"
	"github.com/pthm-cable/beltworks/telemetry"
)

// step runs a single tick: queued commands, power, production, transport.
func (g *Game) step() {
	dt := g.cfg.Derived.UpdateRate
	var ev systems.Events

	g.perfCollector.StartTick()

	// 1. Commands queued since the last tick
	g.perfCollector.StartPhase(telemetry.PhaseCommands)
	g.applyCommands()

	// 2. Power must be assigned before production reads IsRunning
	g.perfCollector.StartPhase(telemetry.PhasePower)
	g.updatePower()

	// 3. Production cycles in list order; a belt's cycle does its pickup
	g.perfCollector.StartPhase(telemetry.PhaseProduction)
	g.updateProduction(dt, &ev)

	// 4. Transport for running belts in list order
	g.perfCollector.StartPhase(telemetry.PhaseTransport)
	g.updateTransport(dt, &ev)

	g.tick++
	g.totals.Add(ev)
	g.collector.Record(ev)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// updatePower distributes generator output across every machine's demand.
func (g *Game) updatePower() {
	var generation float64
	machines := g.machineScratch[:0]
	for _, e := range g.order {
		if !g.machineMap.Has(e) {
			continue
		}
		m := g.machineMap.Get(e)
		machines = append(machines, m)
		if m.ManuallyEnabled && g.generatorMap.Has(e) {
			generation += g.generatorMap.Get(e).Output
		}
	}
	g.lastPower = systems.DistributePower(machines, generation)
	g.machineScratch = machines[:0]
}

// updateProduction advances every machine's cycle and runs completed cycles.
func (g *Game) updateProduction(dt float64, ev *systems.Events) {
	eps := g.cfg.Derived.HandoffEpsilon
	for _, e := range g.order {
		p := g.parts(e)
		if p.Machine == nil {
			continue
		}
		if !systems.UpdateProduction(p.Machine, dt) {
			continue
		}
		var upstream systems.Endpoint
		if p.Belt != nil {
			upstream = g.endpoint(p.Belt.Upstream)
		}
		systems.ProcessMachine(p, upstream, eps, ev)
	}
}

// updateTransport moves the items of every running belt.
func (g *Game) updateTransport(dt float64, ev *systems.Events) {
	for _, e := range g.order {
		if !g.beltMap.Has(e) || !g.machineMap.Has(e) {
			continue
		}
		if !g.machineMap.Get(e).Running {
			continue
		}
		b := g.beltMap.Get(e)
		systems.StepBelt(b, dt, g.endpoint(b.Downstream), ev)
	}
}

// countStates tallies machine states for telemetry and the HUD.
func (g *Game) countStates() (running, idle, disabled int) {
	for _, e := range g.order {
		if !g.machineMap.Has(e) {
			continue
		}
		m := g.machineMap.Get(e)
		if m.Variant == components.VariantGenerator {
			continue
		}
		switch systems.StateOf(m) {
		case systems.StateRunning:
			running++
		case systems.StateIdle:
			idle++
		default:
			disabled++
		}
	}
	return running, idle, disabled
}
