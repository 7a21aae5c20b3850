package systems

import "github.com/pthm-cable/beltworks/components"

// MachineState is the externally visible production state.
type MachineState uint8

const (
	StateDisabled MachineState = iota // Manual switch off
	StateIdle                         // Switched on, not enough power
	StateRunning                      // Switched on and powered
)

// String returns the display name for a MachineState.
func (s MachineState) String() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	}
	return "Unknown"
}

// StateOf derives the state from the machine's switch and power.
func StateOf(m *components.Machine) MachineState {
	switch {
	case !m.ManuallyEnabled:
		return StateDisabled
	case m.CurrentPower < m.PowerDemand:
		return StateIdle
	default:
		return StateRunning
	}
}

// UpdateProduction advances the cycle timer of a running machine and
// reports whether a cycle completed this tick. A completed cycle resets the
// timer to zero; partial cycles never produce. A stopped machine keeps its
// timer where it was.
func UpdateProduction(m *components.Machine, dt float64) bool {
	m.Running = m.IsRunning()
	if !m.Running || m.CycleTime <= 0 {
		return false
	}

	m.CycleTimer += dt
	if m.CycleTimer < m.CycleTime {
		return false
	}
	m.CycleTimer = 0
	m.Cycles++
	return true
}

// Parts is the set of capability components a machine carries.
// Absent capabilities are nil.
type Parts struct {
	Machine *components.Machine
	Output  *components.OutputBuffer
	Input   *components.InputBuffer
	Recipe  *components.Recipe
	Storage *components.Storage
	Belt    *components.Belt
}

// Endpoint returns the capability view neighbours see of this machine.
func (p Parts) Endpoint() Endpoint {
	return Endpoint{Output: p.Output, Input: p.Input, Belt: p.Belt}
}

// ProcessMachine runs the side effect of one completed cycle.
// upstream is only used by belts; eps is the belt hand-off tolerance.
func ProcessMachine(p Parts, upstream Endpoint, eps float64, ev *Events) {
	switch p.Machine.Variant {
	case components.VariantProducer:
		if p.Output != nil && !p.Output.Full() {
			p.Output.Count++
			if ev != nil {
				ev.Produced++
			}
		}

	case components.VariantConverter:
		if p.Input == nil || p.Output == nil || p.Recipe == nil {
			return
		}
		if p.Input.Count < p.Recipe.Consume || p.Output.Count+p.Recipe.Produce > p.Output.Capacity {
			return
		}
		p.Input.Count -= p.Recipe.Consume
		p.Output.Count += p.Recipe.Produce
		if ev != nil {
			ev.Converted++
		}

	case components.VariantStorage:
		if p.Input != nil && p.Input.Count > 0 {
			p.Input.Count--
			if p.Storage != nil {
				p.Storage.Delivered++
			}
			if ev != nil {
				ev.Delivered++
			}
		}

	case components.VariantBelt:
		if p.Belt != nil {
			PickupUpstream(p.Belt, upstream, eps, ev)
		}
	}
}
