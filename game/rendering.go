package game

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/ui"
)

// paletteItem is one buildable placement.
type paletteItem struct {
	label   string
	variant components.Variant
	shape   components.Shape
}

var buildItems = []paletteItem{
	{"Miner", components.VariantProducer, components.ShapeStraight},
	{"Furnace", components.VariantConverter, components.ShapeStraight},
	{"Storage", components.VariantStorage, components.ShapeStraight},
	{"Generator", components.VariantGenerator, components.ShapeStraight},
	{"Belt", components.VariantBelt, components.ShapeStraight},
	{"Curve L", components.VariantBelt, components.ShapeCurveLeft},
	{"Curve R", components.VariantBelt, components.ShapeCurveRight},
	{"Ramp Up", components.VariantBelt, components.ShapeRampUp},
	{"Ramp Down", components.VariantBelt, components.ShapeRampDown},
}

func paletteEntries() []ui.PaletteEntry {
	out := make([]ui.PaletteEntry, len(buildItems))
	for i, p := range buildItems {
		out[i] = ui.PaletteEntry{Label: p.label, Key: fmt.Sprint(i + 1)}
	}
	return out
}

// selectPalette makes palette entry i the next placement, keeping the
// current belt facing.
func (g *Game) selectPalette(i int) {
	if i < 0 || i >= len(buildItems) {
		return
	}
	g.paletteIndex = i
	dir := g.placing.Direction
	if r3.Norm(dir) == 0 {
		dir = r3.Vec{Z: 1}
	}
	g.placing = Placement{Variant: buildItems[i].variant, Shape: buildItems[i].shape, Direction: dir}
}

// rotatePlacement turns the placement facing 90 degrees clockwise seen from above.
func (g *Game) rotatePlacement() {
	d := g.placing.Direction
	g.placing.Direction = r3.Vec{X: d.Z, Z: -d.X}
}

// facingName labels a floor direction by its nearest axis.
func facingName(d r3.Vec) string {
	switch {
	case math.Abs(d.X) > math.Abs(d.Z) && d.X > 0:
		return "+X"
	case math.Abs(d.X) > math.Abs(d.Z):
		return "-X"
	case d.Z < 0:
		return "-Z"
	default:
		return "+Z"
	}
}

// describe labels a machine for the inspector.
func (g *Game) describe(e ecs.Entity) string {
	if !g.alive(e) || !g.machineMap.Has(e) {
		return "none"
	}
	p := g.position(e)
	return fmt.Sprintf("%s (%.0f, %.0f, %.0f)", g.machineMap.Get(e).Variant, p.X, p.Y, p.Z)
}

// hudData gathers the HUD numbers from a snapshot.
func (g *Game) hudData(snap Snapshot) ui.HUDData {
	d := ui.HUDData{
		Title:           "Beltworks",
		Tick:            snap.Tick,
		SimTime:         snap.SimTime,
		Speed:           g.stepsPerUpdate,
		FPS:             rl.GetFPS(),
		Paused:          g.paused,
		Machines:        len(snap.Machines),
		Generation:      snap.Power.Generation,
		Demand:          snap.Power.Demand,
		PowerRatio:      snap.Power.Ratio,
		Delivered:       snap.Totals.Delivered,
		DeliveredPerSec: g.lastStats.DeliveredPerSec,
		RefusalRate:     g.lastStats.RefusalRate,
	}
	d.Running, d.Idle, d.Disabled = g.countStates()
	for _, m := range snap.Machines {
		if m.Belt != nil {
			d.Items += len(m.Belt.Items)
		}
	}
	if rl.GetTime() < g.statusUntil {
		d.Status = g.status
	}
	return d
}

// inspectorData converts a machine view for the inspector panel.
func inspectorData(v MachineView, describe func(ecs.Entity) string) ui.InspectorData {
	d := ui.InspectorData{
		Title:          fmt.Sprintf("%s #%d", v.Variant, v.Entity.ID()),
		Variant:        v.Variant.String(),
		State:          v.State.String(),
		Enabled:        v.Enabled,
		Position:       [3]float64{v.Position.X, v.Position.Y, v.Position.Z},
		PowerDemand:    v.PowerDemand,
		CurrentPower:   v.CurrentPower,
		CycleProgress:  v.CycleProgress,
		Cycles:         v.Cycles,
		HasOutput:      v.OutputCapacity > 0,
		OutputKind:     v.OutputKind,
		OutputCount:    v.OutputCount,
		OutputCapacity: v.OutputCapacity,
		HasInput:       v.InputCapacity > 0,
		InputCount:     v.InputCount,
		InputCapacity:  v.InputCapacity,
		IsStorage:      v.Variant == components.VariantStorage,
		Delivered:      v.Delivered,
		IsGenerator:    v.Variant == components.VariantGenerator,
		Generation:     v.Generation,
	}
	if b := v.Belt; b != nil {
		info := &ui.BeltInfo{
			Shape:      b.Shape.String(),
			Facing:     facingName(b.Direction),
			Speed:      b.Speed,
			MinSpacing: b.MinSpacing,
			Items:      len(b.Items),
			MaxItems:   b.MaxItems,
			Upstream:   describe(b.Upstream),
			Downstream: describe(b.Downstream),
		}
		if n := len(b.Items); n > 0 {
			info.Lead = b.Items[n-1].Progress
		}
		d.Belt = info
	}
	return d
}
