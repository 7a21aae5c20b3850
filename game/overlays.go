package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/renderer"
	"github.com/pthm-cable/beltworks/systems"
	"github.com/pthm-cable/beltworks/ui"
)

var (
	upstreamColor   = rl.Color{R: 90, G: 200, B: 255, A: 255}
	downstreamColor = rl.Color{R: 120, G: 255, B: 120, A: 255}
	pathColor       = rl.Color{R: 255, G: 220, B: 80, A: 200}
)

// pathSamples is the number of segments used to draw a belt path.
const pathSamples = 12

// drawWorldOverlays draws the enabled 3D overlays. Must run inside 3D mode.
func (g *Game) drawWorldOverlays(snap Snapshot) {
	showConns := g.overlays.IsEnabled(ui.OverlayConnections)
	showPaths := g.overlays.IsEnabled(ui.OverlayBeltPaths)
	if !showConns && !showPaths {
		return
	}

	for _, m := range snap.Machines {
		b := m.Belt
		if b == nil {
			continue
		}
		if showConns {
			if g.alive(b.Upstream) {
				g.scene.DrawConnection(g.position(b.Upstream), m.Position, upstreamColor)
			}
			if g.alive(b.Downstream) {
				g.scene.DrawConnection(m.Position, g.position(b.Downstream), downstreamColor)
			}
		}
		if showPaths && g.beltMap.Has(m.Entity) {
			g.scene.DrawPath(beltPath(g.beltMap.Get(m.Entity), m.Position), pathColor)
		}
	}
}

// beltPath samples a belt's item path from spawn to end bound.
func beltPath(b *components.Belt, origin r3.Vec) []r3.Vec {
	cfg := systems.PathConfigOf(origin, b)
	pts := make([]r3.Vec, pathSamples+1)
	span := b.EndBound - b.SpawnBound
	for i := range pts {
		p := b.SpawnBound + span*float64(i)/pathSamples
		pts[i] = systems.PathPosition(b.Shape, p, cfg)
	}
	return pts
}

// drawScreenOverlays draws 2D labels projected from world positions.
func (g *Game) drawScreenOverlays(snap Snapshot) {
	if !g.overlays.IsEnabled(ui.OverlayItemLabels) {
		return
	}
	for _, m := range snap.Machines {
		if m.Belt == nil {
			continue
		}
		for _, it := range m.Belt.Items {
			x, y := g.scene.ScreenPos(r3.Add(it.Position, r3.Vec{Y: 0.25}))
			rl.DrawText(fmt.Sprintf("%s %.2f", it.Kind, it.Progress), x-20, y, 10, renderer.KindColor(it.Kind))
		}
	}
}
