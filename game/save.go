package game

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/persist"
	"github.com/pthm-cable/beltworks/systems"
)

// SaveStore stores named saves.
type SaveStore interface {
	Save(ctx context.Context, name string, save persist.SaveFile) (int64, error)
	Load(ctx context.Context, name string) (persist.SaveFile, error)
}

// SaveFile converts the floor into flat machine records in list order.
// Belt connections are written as indices into that list.
func (g *Game) SaveFile() persist.SaveFile {
	index := make(map[ecs.Entity]int, len(g.order))
	for i, e := range g.order {
		index[e] = i
	}
	indexOf := func(e ecs.Entity) int {
		if i, ok := index[e]; ok && g.alive(e) {
			return i
		}
		return -1
	}

	save := persist.SaveFile{
		Header:  persist.Header{Version: persist.Version, Tick: uint64(g.tick)},
		Records: make([]persist.Record, 0, len(g.order)),
	}
	for _, e := range g.order {
		p := g.parts(e)
		rec := persist.NewRecord()
		pos := g.position(e)
		rec.SetFloat(persist.KeyX, pos.X)
		rec.SetFloat(persist.KeyY, pos.Y)
		rec.SetFloat(persist.KeyZ, pos.Z)

		if m := p.Machine; m != nil {
			rec.SetString(persist.KeyVariant, m.Variant.String())
			rec.SetBool(persist.KeyEnabled, m.ManuallyEnabled)
			rec.SetFloat(persist.KeyCycleTimer, m.CycleTimer)
		}
		if p.Output != nil {
			rec.SetString(persist.KeyOutputKind, p.Output.Kind)
			rec.SetInt(persist.KeyOutputCount, p.Output.Count)
		}
		if p.Input != nil {
			rec.SetInt(persist.KeyInputCount, p.Input.Count)
		}
		if p.Storage != nil {
			rec.SetInt(persist.KeyDelivered, p.Storage.Delivered)
		}
		if g.generatorMap.Has(e) {
			rec.SetFloat(persist.KeyGeneration, g.generatorMap.Get(e).Output)
		}
		if b := p.Belt; b != nil {
			rec.SetString(persist.KeyShape, b.Shape.String())
			rec.SetFloat(persist.KeyDirX, b.Direction.X)
			rec.SetFloat(persist.KeyDirY, b.Direction.Y)
			rec.SetFloat(persist.KeyDirZ, b.Direction.Z)
			rec.SetFloat(persist.KeySpeed, b.Speed)
			rec.SetFloat(persist.KeyCurveRadius, b.CurveRadius)
			rec.SetFloat(persist.KeyMinSpacing, b.MinSpacing)
			rec.SetInt(persist.KeyUpstream, indexOf(b.Upstream))
			rec.SetInt(persist.KeyDownstream, indexOf(b.Downstream))
			for _, it := range b.Items {
				rec.Items = append(rec.Items, persist.ItemRecord{Kind: it.Kind, Amount: it.Amount, Progress: it.Progress})
			}
		}
		save.Records = append(save.Records, rec)
	}
	return save
}

// Restore replaces the floor with the machines in save. Missing or invalid
// values fall back to config defaults; a record with an unknown variant is
// skipped without aborting the load.
func (g *Game) Restore(save persist.SaveFile) {
	for _, e := range g.order {
		g.world.RemoveEntity(e)
	}
	g.order = g.order[:0]
	g.commands = g.commands[:0]
	g.selected = ecs.Entity{}
	g.hovered = ecs.Entity{}
	g.stepper.Reset()
	g.tick = int32(min(save.Header.Tick, math.MaxInt32))

	entities := make([]ecs.Entity, len(save.Records))
	for i, rec := range save.Records {
		v, ok := components.ParseVariant(rec.String(persist.KeyVariant, ""))
		if !ok {
			slog.Warn("skipping record with unknown variant", "index", i, "variant", rec.Fields[persist.KeyVariant])
			continue
		}
		entities[i] = g.restoreMachine(v, rec)
	}

	// Explicit indices first, positional resolution for the rest
	sites := g.sites()
	probe, tol := g.cfg.Resolver.ProbeDistance, g.cfg.Resolver.Tolerance
	lookup := func(self ecs.Entity, idx int) ecs.Entity {
		if idx < 0 || idx >= len(entities) || entities[idx].IsZero() || entities[idx] == self {
			return ecs.Entity{}
		}
		return entities[idx]
	}
	for i, rec := range save.Records {
		e := entities[i]
		if e.IsZero() || !g.beltMap.Has(e) {
			continue
		}
		b := g.beltMap.Get(e)
		b.Upstream = lookup(e, rec.Int(persist.KeyUpstream, -1))
		b.Downstream = lookup(e, rec.Int(persist.KeyDownstream, -1))
		if b.Upstream.IsZero() || b.Downstream.IsZero() {
			conns := systems.ResolveConnections(e, g.position(e), b.Direction, sites, probe, tol)
			if b.Upstream.IsZero() {
				b.Upstream = conns.Upstream
			}
			if b.Downstream.IsZero() {
				b.Downstream = conns.Downstream
			}
		}
	}

	slog.Info("floor restored", "machines", len(g.order), "tick", g.tick)
}

func (g *Game) restoreMachine(v components.Variant, rec persist.Record) ecs.Entity {
	p := Placement{
		Variant:  v,
		Position: r3.Vec{X: rec.Float(persist.KeyX, 0), Y: rec.Float(persist.KeyY, 0), Z: rec.Float(persist.KeyZ, 0)},
		Kind:     rec.String(persist.KeyOutputKind, ""),
		Disabled: !rec.Bool(persist.KeyEnabled, true),
	}
	if v == components.VariantBelt {
		p.Shape, _ = components.ParseShape(rec.String(persist.KeyShape, "straight"))
		p.Direction = r3.Vec{
			X: rec.Float(persist.KeyDirX, 0),
			Y: rec.Float(persist.KeyDirY, 0),
			Z: rec.Float(persist.KeyDirZ, 1),
		}
	}
	e := g.placeMachine(p)

	parts := g.parts(e)
	m := parts.Machine
	m.CycleTimer = max(0, rec.Float(persist.KeyCycleTimer, 0))
	if parts.Output != nil {
		parts.Output.Count = clampCount(rec.Int(persist.KeyOutputCount, 0), parts.Output.Capacity)
	}
	if parts.Input != nil {
		parts.Input.Count = clampCount(rec.Int(persist.KeyInputCount, 0), parts.Input.Capacity)
	}
	if parts.Storage != nil {
		parts.Storage.Delivered = max(0, rec.Int(persist.KeyDelivered, 0))
	}
	if g.generatorMap.Has(e) {
		gen := g.generatorMap.Get(e)
		gen.Output = floatAtLeast(rec, persist.KeyGeneration, 0, gen.Output)
	}
	if b := parts.Belt; b != nil {
		b.Speed = positiveFloat(rec, persist.KeySpeed, b.Speed)
		b.CurveRadius = positiveFloat(rec, persist.KeyCurveRadius, b.CurveRadius)
		b.MinSpacing = floatAtLeast(rec, persist.KeyMinSpacing, 0, b.MinSpacing)
		b.Items = restoreItems(rec.Items, b)
	}
	return e
}

// positiveFloat reads key, keeping def when the value is not above zero.
func positiveFloat(rec persist.Record, key string, def float64) float64 {
	if v := rec.Float(key, def); v > 0 {
		return v
	}
	return def
}

// floatAtLeast reads key, keeping def when the value is below lo.
func floatAtLeast(rec persist.Record, key string, lo, def float64) float64 {
	if v := rec.Float(key, def); v >= lo {
		return v
	}
	return def
}

// spacingTolerance absorbs rounding in gaps produced by transport clamping.
const spacingTolerance = 1e-9

// restoreItems rebuilds a belt's item list so the ordering, spacing and
// capacity invariants hold. Items with no amount or a non-finite progress are
// discarded before spacing is enforced.
func restoreItems(recs []persist.ItemRecord, b *components.Belt) []components.Item {
	b.Items = b.Items[:0]
	for _, r := range recs {
		if r.Amount <= 0 || math.IsNaN(r.Progress) || math.IsInf(r.Progress, 0) {
			continue
		}
		b.Items = append(b.Items, components.Item{Kind: r.Kind, Amount: r.Amount, Progress: r.Progress})
	}
	if n := b.EnforceSpacing(spacingTolerance); n > 0 {
		slog.Warn("dropped belt items violating spacing", "count", n)
	}
	return b.Items
}

func clampCount(n, capacity int) int {
	return max(0, min(n, capacity))
}

// Save writes the floor to a save file.
func (g *Game) Save(path string) error {
	if err := persist.WriteSave(path, g.SaveFile()); err != nil {
		return fmt.Errorf("saving floor: %w", err)
	}
	slog.Info("floor saved", "path", path, "tick", g.tick, "machines", len(g.order))
	return nil
}

// Load replaces the floor with the contents of a save file.
func (g *Game) Load(path string) error {
	save, err := persist.ReadSave(path)
	if err != nil {
		return fmt.Errorf("loading floor: %w", err)
	}
	g.Restore(save)
	return nil
}

// SaveTo stores the floor under name.
func (g *Game) SaveTo(ctx context.Context, store SaveStore, name string) error {
	id, err := store.Save(ctx, name, g.SaveFile())
	if err != nil {
		return fmt.Errorf("saving floor %q: %w", name, err)
	}
	slog.Info("floor saved", "name", name, "id", id, "tick", g.tick)
	return nil
}

// LoadFrom replaces the floor with the save stored under name.
func (g *Game) LoadFrom(ctx context.Context, store SaveStore, name string) error {
	save, err := store.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("loading floor %q: %w", name, err)
	}
	g.Restore(save)
	return nil
}
