package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Site is a machine's entry in the flat placement list.
type Site struct {
	Entity ecs.Entity
	Pos    r3.Vec
}

// Connections holds the resolved neighbours of a belt. Zero entities mean
// nothing was found within tolerance.
type Connections struct {
	Upstream   ecs.Entity
	Downstream ecs.Entity
}

// ResolveConnections probes probe units behind and ahead of a belt at pos
// facing dir and picks the nearest other machine within tol of each probe
// point. Ties go to the earlier site. This is a full scan of sites and is
// meant to be re-run after any placement or removal.
func ResolveConnections(self ecs.Entity, pos, dir r3.Vec, sites []Site, probe, tol float64) Connections {
	forward, _ := basis(dir)
	offset := r3.Scale(probe, forward)
	return Connections{
		Upstream:   nearestSite(self, r3.Sub(pos, offset), sites, tol),
		Downstream: nearestSite(self, r3.Add(pos, offset), sites, tol),
	}
}

// nearestSite returns the closest site to target within tol, excluding self.
func nearestSite(self ecs.Entity, target r3.Vec, sites []Site, tol float64) ecs.Entity {
	var best ecs.Entity
	bestDist := math.Inf(1)
	for _, s := range sites {
		if s.Entity == self {
			continue
		}
		d := r3.Norm(r3.Sub(s.Pos, target))
		if d <= tol && d < bestDist {
			best = s.Entity
			bestDist = d
		}
	}
	return best
}
