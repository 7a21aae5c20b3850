package game

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
)

type commandKind uint8

const (
	cmdSetEnabled commandKind = iota
	cmdConfigUpdate
)

// command is a mutation queued by the UI and applied at the start of the next tick.
type command struct {
	kind    commandKind
	entity  ecs.Entity
	enabled bool
	update  ConfigUpdate
}

// ConfigUpdate changes belt tunables between ticks. Nil fields are left
// unchanged. A zero Belt applies to every belt and to the defaults used for
// later placements.
type ConfigUpdate struct {
	Speed       *float64
	MinSpacing  *float64
	CurveRadius *float64
	Belt        ecs.Entity
}

// sanitized drops fields that are not finite and above zero.
func (u ConfigUpdate) sanitized() ConfigUpdate {
	for _, f := range []**float64{&u.Speed, &u.MinSpacing, &u.CurveRadius} {
		if v := *f; v != nil && !(*v > 0 && !math.IsInf(*v, 1)) {
			*f = nil
		}
	}
	return u
}

// SetEnabled queues a manual switch toggle. It takes effect on the next tick.
func (g *Game) SetEnabled(e ecs.Entity, enabled bool) {
	g.commands = append(g.commands, command{kind: cmdSetEnabled, entity: e, enabled: enabled})
}

// UpdateConfig queues a belt tunables change for the next tick.
func (g *Game) UpdateConfig(u ConfigUpdate) {
	g.commands = append(g.commands, command{kind: cmdConfigUpdate, update: u})
}

// applyCommands drains the command queue in submission order.
func (g *Game) applyCommands() {
	if len(g.commands) == 0 {
		return
	}
	for _, c := range g.commands {
		switch c.kind {
		case cmdSetEnabled:
			if !g.alive(c.entity) || !g.machineMap.Has(c.entity) {
				continue
			}
			g.machineMap.Get(c.entity).ManuallyEnabled = c.enabled

		case cmdConfigUpdate:
			g.applyConfigUpdate(c.update)
		}
	}
	g.commands = g.commands[:0]
}

func (g *Game) applyConfigUpdate(u ConfigUpdate) {
	u = u.sanitized()
	if !u.Belt.IsZero() {
		if !g.alive(u.Belt) || !g.beltMap.Has(u.Belt) {
			return
		}
		applyBeltUpdate(u, g.beltMap.Get(u.Belt))
		return
	}

	if u.Speed != nil {
		g.cfg.Belt.Speed = *u.Speed
	}
	if u.MinSpacing != nil {
		g.cfg.Belt.MinSpacing = *u.MinSpacing
	}
	if u.CurveRadius != nil {
		g.cfg.Belt.CurveRadius = *u.CurveRadius
	}
	for _, e := range g.order {
		if g.beltMap.Has(e) {
			applyBeltUpdate(u, g.beltMap.Get(e))
		}
	}
	slog.Debug("belt config updated", "speed", g.cfg.Belt.Speed, "min_spacing", g.cfg.Belt.MinSpacing, "curve_radius", g.cfg.Belt.CurveRadius)
}
