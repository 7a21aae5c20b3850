package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/config"
)

// Placement describes a machine to construct. Position, direction and shape
// are fixed at construction.
type Placement struct {
	Variant   components.Variant
	Position  r3.Vec
	Direction r3.Vec // Belts only; zero means +Z
	Shape     components.Shape
	Kind      string // Producer output kind; empty = config default
	Disabled  bool
}

// PlacementFromConfig converts a layout entry.
func PlacementFromConfig(pc config.PlacementConfig) (Placement, error) {
	v, ok := components.ParseVariant(pc.Variant)
	if !ok {
		return Placement{}, fmt.Errorf("unknown variant %q", pc.Variant)
	}
	shape := components.ShapeStraight
	if pc.Shape != "" {
		s, ok := components.ParseShape(pc.Shape)
		if !ok {
			return Placement{}, fmt.Errorf("unknown shape %q", pc.Shape)
		}
		shape = s
	}
	return Placement{
		Variant:   v,
		Position:  r3.Vec{X: pc.Position[0], Y: pc.Position[1], Z: pc.Position[2]},
		Direction: r3.Vec{X: pc.Direction[0], Y: pc.Direction[1], Z: pc.Direction[2]},
		Shape:     shape,
		Kind:      pc.Kind,
		Disabled:  pc.Disabled,
	}, nil
}

// createMachine builds the entity for p with variant defaults from config.
func (g *Game) createMachine(p Placement) ecs.Entity {
	cfg := g.cfg
	pos := components.PositionOf(p.Position)
	m := components.Machine{Variant: p.Variant, ManuallyEnabled: !p.Disabled}

	switch p.Variant {
	case components.VariantProducer:
		m.CycleTime = cfg.Producer.CycleTime
		m.PowerDemand = cfg.Producer.PowerDemand
		kind := p.Kind
		if kind == "" {
			kind = cfg.Producer.Kind
		}
		e := g.machineMapper.NewEntity(&pos, &m)
		g.outputMap.Add(e, &components.OutputBuffer{Kind: kind, Capacity: cfg.Producer.OutputCapacity})
		return e

	case components.VariantConverter:
		m.CycleTime = cfg.Converter.CycleTime
		m.PowerDemand = cfg.Converter.PowerDemand
		e := g.machineMapper.NewEntity(&pos, &m)
		g.inputMap.Add(e, &components.InputBuffer{Accepts: cfg.Converter.Accepts, Capacity: cfg.Converter.InputCapacity})
		g.outputMap.Add(e, &components.OutputBuffer{Kind: cfg.Converter.OutputKind, Capacity: cfg.Converter.OutputCapacity})
		g.recipeMap.Add(e, &components.Recipe{Consume: cfg.Converter.Consume, Produce: cfg.Converter.Produce})
		return e

	case components.VariantStorage:
		m.CycleTime = cfg.Storage.CycleTime
		m.PowerDemand = cfg.Storage.PowerDemand
		e := g.machineMapper.NewEntity(&pos, &m)
		g.inputMap.Add(e, &components.InputBuffer{Capacity: cfg.Storage.InputCapacity})
		g.storageMap.Add(e, &components.Storage{})
		return e

	case components.VariantGenerator:
		e := g.machineMapper.NewEntity(&pos, &m)
		g.generatorMap.Add(e, &components.Generator{Output: cfg.Generator.Output})
		return e

	case components.VariantBelt:
		m.CycleTime = cfg.Belt.CycleTime
		m.PowerDemand = cfg.Belt.PowerDemand
		e := g.machineMapper.NewEntity(&pos, &m)
		b := g.newBelt(p.Shape, p.Direction)
		g.beltMap.Add(e, &b)
		return e
	}

	return g.machineMapper.NewEntity(&pos, &m)
}

// newBelt returns a belt with the configured defaults.
func (g *Game) newBelt(shape components.Shape, dir r3.Vec) components.Belt {
	bc := g.cfg.Belt
	if r3.Norm(dir) == 0 {
		dir = r3.Vec{Z: 1}
	}
	return components.Belt{
		Shape:       shape,
		Direction:   r3.Unit(dir),
		Speed:       bc.Speed,
		SpawnBound:  bc.SpawnBound,
		EndBound:    bc.EndBound,
		MinSpacing:  bc.MinSpacing,
		MaxItems:    bc.MaxItems,
		CurveRadius: bc.CurveRadius,
		Length:      bc.Length,
		Height:      bc.Height,
		RampRise:    bc.RampRise,
	}
}

// applyBeltUpdate copies the set fields of u onto b. A new MinSpacing drops
// items that no longer fit behind the one ahead of them.
func applyBeltUpdate(u ConfigUpdate, b *components.Belt) {
	if u.Speed != nil {
		b.Speed = *u.Speed
	}
	if u.MinSpacing != nil {
		b.MinSpacing = *u.MinSpacing
		if n := b.EnforceSpacing(spacingTolerance); n > 0 {
			slog.Debug("dropped belt items after spacing change", "count", n, "min_spacing", b.MinSpacing)
		}
	}
	if u.CurveRadius != nil {
		b.CurveRadius = *u.CurveRadius
	}
}
