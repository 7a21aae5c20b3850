package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/renderer"
)

// machineAtMouse returns the nearest machine whose pick box the mouse ray hits.
func (g *Game) machineAtMouse() ecs.Entity {
	ray := g.scene.MouseRay()

	var closest ecs.Entity
	closestDist := float32(math.MaxFloat32)
	for _, e := range g.order {
		if !g.machineMap.Has(e) {
			continue
		}
		box := renderer.Bounds(g.machineMap.Get(e).Variant, g.position(e))
		hit := rl.GetRayCollisionBox(ray, box)
		if hit.Hit && hit.Distance < closestDist {
			closest = e
			closestDist = hit.Distance
		}
	}
	return closest
}

// hoverCell returns the floor grid cell under the mouse.
func (g *Game) hoverCell() (r3.Vec, bool) {
	p, ok := g.scene.FloorPoint()
	if !ok {
		return r3.Vec{}, false
	}
	return snapToGrid(p), true
}

// snapToGrid rounds a floor point to the nearest unit cell.
func snapToGrid(p r3.Vec) r3.Vec {
	return r3.Vec{X: math.Round(p.X), Y: 0, Z: math.Round(p.Z)}
}

// occupied reports whether a machine already stands at cell.
func (g *Game) occupied(cell r3.Vec) bool {
	for _, e := range g.order {
		if r3.Norm(r3.Sub(g.position(e), cell)) < 0.5 {
			return true
		}
	}
	return false
}
