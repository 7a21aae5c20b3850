package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/components"
)

func newSites(t *testing.T, positions ...r3.Vec) []Site {
	t.Helper()
	world := ecs.NewWorld()
	mapper := ecs.NewMap1[components.Position](world)

	sites := make([]Site, len(positions))
	for i, p := range positions {
		pos := components.PositionOf(p)
		sites[i] = Site{Entity: mapper.NewEntity(&pos), Pos: p}
	}
	return sites
}

func TestResolveConnections_Chain(t *testing.T) {
	sites := newSites(t,
		r3.Vec{Z: 0}, // producer
		r3.Vec{Z: 1}, // belt
		r3.Vec{Z: 2}, // converter
	)
	self := sites[1]

	got := ResolveConnections(self.Entity, self.Pos, r3.Vec{Z: 1}, sites, 1.0, 0.25)
	if got.Upstream != sites[0].Entity {
		t.Errorf("upstream = %v, want %v", got.Upstream, sites[0].Entity)
	}
	if got.Downstream != sites[2].Entity {
		t.Errorf("downstream = %v, want %v", got.Downstream, sites[2].Entity)
	}
}

func TestResolveConnections_ReversedDirection(t *testing.T) {
	sites := newSites(t, r3.Vec{Z: 0}, r3.Vec{Z: 1}, r3.Vec{Z: 2})
	self := sites[1]

	got := ResolveConnections(self.Entity, self.Pos, r3.Vec{Z: -1}, sites, 1.0, 0.25)
	if got.Upstream != sites[2].Entity || got.Downstream != sites[0].Entity {
		t.Errorf("expected ends swapped, got %+v", got)
	}
}

func TestResolveConnections_NothingWithinTolerance(t *testing.T) {
	sites := newSites(t, r3.Vec{Z: 1}, r3.Vec{Z: 2.5}, r3.Vec{X: 1, Z: 1})
	self := sites[0]

	got := ResolveConnections(self.Entity, self.Pos, r3.Vec{Z: 1}, sites, 1.0, 0.25)
	if got.Upstream != (ecs.Entity{}) {
		t.Errorf("expected no upstream, got %v", got.Upstream)
	}
	if got.Downstream != (ecs.Entity{}) {
		t.Errorf("expected no downstream, got %v", got.Downstream)
	}
}

func TestResolveConnections_ExcludesSelf(t *testing.T) {
	// Zero probe distance would land on the belt itself
	sites := newSites(t, r3.Vec{})
	self := sites[0]

	got := ResolveConnections(self.Entity, self.Pos, r3.Vec{Z: 1}, sites, 0, 0.25)
	if got.Upstream != (ecs.Entity{}) || got.Downstream != (ecs.Entity{}) {
		t.Errorf("belt resolved to itself: %+v", got)
	}
}

func TestResolveConnections_NearestWins(t *testing.T) {
	sites := newSites(t,
		r3.Vec{Z: 1},           // belt
		r3.Vec{X: 0.2, Z: 2},   // farther
		r3.Vec{X: 0.05, Z: 2},  // nearer
		r3.Vec{X: -0.05, Z: 2}, // tie with nearer, placed later
	)
	self := sites[0]

	got := ResolveConnections(self.Entity, self.Pos, r3.Vec{Z: 1}, sites, 1.0, 0.25)
	if got.Downstream != sites[2].Entity {
		t.Errorf("downstream = %v, want nearest earlier site %v", got.Downstream, sites[2].Entity)
	}
}
