package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/beltworks/systems"
)

// PlaceMachine constructs a machine, appends it to the machine list and
// re-resolves every belt's connections.
func (g *Game) PlaceMachine(p Placement) ecs.Entity {
	e := g.placeMachine(p)
	g.ResolveAll()
	if v, ok := g.machineView(e); ok {
		g.logMachine("machine placed", v)
	}
	return e
}

func (g *Game) placeMachine(p Placement) ecs.Entity {
	e := g.createMachine(p)
	g.order = append(g.order, e)
	return e
}

// RemoveMachine destroys a machine. A removed belt's items are discarded.
// Every belt is re-resolved so nothing keeps pointing at the removed machine.
func (g *Game) RemoveMachine(e ecs.Entity) bool {
	if !g.alive(e) {
		return false
	}
	idx := -1
	for i, o := range g.order {
		if o == e {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	if v, ok := g.machineView(e); ok {
		g.logMachine("machine removed", v)
	}

	g.order = append(g.order[:idx], g.order[idx+1:]...)
	g.world.RemoveEntity(e)
	if g.selected == e {
		g.selected = ecs.Entity{}
	}
	g.ResolveAll()
	return true
}

// sites returns the flat machine list with positions.
func (g *Game) sites() []systems.Site {
	sites := make([]systems.Site, 0, len(g.order))
	for _, e := range g.order {
		sites = append(sites, systems.Site{Entity: e, Pos: g.position(e)})
	}
	return sites
}

// ResolveAll re-derives every belt's upstream and downstream by position.
func (g *Game) ResolveAll() {
	sites := g.sites()
	probe, tol := g.cfg.Resolver.ProbeDistance, g.cfg.Resolver.Tolerance
	for _, s := range sites {
		if !g.beltMap.Has(s.Entity) {
			continue
		}
		b := g.beltMap.Get(s.Entity)
		conns := systems.ResolveConnections(s.Entity, s.Pos, b.Direction, sites, probe, tol)
		b.Upstream = conns.Upstream
		b.Downstream = conns.Downstream
	}
}
