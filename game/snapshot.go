package game

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/systems"
)

// ItemView is a belt item with its presentation position.
type ItemView struct {
	Kind     string
	Amount   int
	Progress float64
	Position r3.Vec
}

// BeltView is the read-only state of a belt.
type BeltView struct {
	Shape      components.Shape
	Direction  r3.Vec
	Rotation   float64 // Degrees, for orienting the model
	Speed      float64
	MinSpacing float64
	MaxItems   int
	Upstream   ecs.Entity
	Downstream ecs.Entity
	Items      []ItemView
}

// MachineView is the read-only state of one machine.
type MachineView struct {
	Entity        ecs.Entity
	Variant       components.Variant
	Position      r3.Vec
	State         systems.MachineState
	Enabled       bool // Manual switch
	PowerDemand   float64
	CurrentPower  float64
	CycleProgress float64 // Fraction of the current cycle
	Cycles        uint64

	OutputKind     string
	OutputCount    int
	OutputCapacity int
	InputCount     int
	InputCapacity  int
	Delivered      int
	Generation     float64

	Belt *BeltView // nil unless a belt
}

// Snapshot is a read-only view of the floor for rendering and UI.
type Snapshot struct {
	Tick     int32
	SimTime  float64
	Power    systems.PowerReport
	Totals   systems.Events
	Machines []MachineView
}

// Snapshot builds a view of the current floor. It copies everything and
// never mutates simulation state.
func (g *Game) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:     g.tick,
		SimTime:  g.SimTime(),
		Power:    g.lastPower,
		Totals:   g.totals,
		Machines: make([]MachineView, 0, len(g.order)),
	}
	for _, e := range g.order {
		if v, ok := g.machineView(e); ok {
			snap.Machines = append(snap.Machines, v)
		}
	}
	return snap
}

// MachineView returns the view of a single machine.
func (g *Game) MachineView(e ecs.Entity) (MachineView, bool) {
	return g.machineView(e)
}

func (g *Game) machineView(e ecs.Entity) (MachineView, bool) {
	p := g.parts(e)
	if p.Machine == nil {
		return MachineView{}, false
	}
	m := p.Machine
	v := MachineView{
		Entity:       e,
		Variant:      m.Variant,
		Position:     g.position(e),
		State:        systems.StateOf(m),
		Enabled:      m.ManuallyEnabled,
		PowerDemand:  m.PowerDemand,
		CurrentPower: m.CurrentPower,
		Cycles:       m.Cycles,
	}
	if m.CycleTime > 0 {
		v.CycleProgress = m.CycleTimer / m.CycleTime
	}
	if p.Output != nil {
		v.OutputKind = p.Output.Kind
		v.OutputCount = p.Output.Count
		v.OutputCapacity = p.Output.Capacity
	}
	if p.Input != nil {
		v.InputCount = p.Input.Count
		v.InputCapacity = p.Input.Capacity
	}
	if p.Storage != nil {
		v.Delivered = p.Storage.Delivered
	}
	if g.generatorMap.Has(e) {
		v.Generation = g.generatorMap.Get(e).Output
	}
	if b := p.Belt; b != nil {
		bv := &BeltView{
			Shape:      b.Shape,
			Direction:  b.Direction,
			Rotation:   systems.PathRotation(b.Shape, b.Direction),
			Speed:      b.Speed,
			MinSpacing: b.MinSpacing,
			MaxItems:   b.MaxItems,
			Upstream:   b.Upstream,
			Downstream: b.Downstream,
			Items:      make([]ItemView, len(b.Items)),
		}
		positions := systems.ItemPositions(b, v.Position)
		for i, it := range b.Items {
			bv.Items[i] = ItemView{Kind: it.Kind, Amount: it.Amount, Progress: it.Progress, Position: positions[i]}
		}
		v.Belt = bv
	}
	return v, true
}
