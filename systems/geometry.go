package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/components"
)

// PathConfig is the geometry a belt's path is mapped through.
type PathConfig struct {
	Origin      r3.Vec // Belt center in world space
	Direction   r3.Vec // Forward axis
	Length      float64
	Height      float64 // Fixed offset above the origin
	CurveRadius float64
	RampRise    float64 // Height gained per unit progress on ramps
}

// PathConfigOf builds the path geometry of a belt placed at origin.
func PathConfigOf(origin r3.Vec, b *components.Belt) PathConfig {
	return PathConfig{
		Origin:      origin,
		Direction:   b.Direction,
		Length:      b.Length,
		Height:      b.Height,
		CurveRadius: b.CurveRadius,
		RampRise:    b.RampRise,
	}
}

var up = r3.Vec{Y: 1}

// basis returns the forward and right axes for a direction.
// A zero direction falls back to +Z.
func basis(dir r3.Vec) (forward, right r3.Vec) {
	if r3.Norm(dir) == 0 {
		dir = r3.Vec{Z: 1}
	}
	forward = r3.Unit(dir)
	right = r3.Vec{X: -forward.Z, Z: forward.X}
	return forward, right
}

// PathPosition maps a progress value on a belt of the given shape to a world
// position. It is used for presentation only; transport never reads it.
func PathPosition(shape components.Shape, progress float64, cfg PathConfig) r3.Vec {
	forward, right := basis(cfg.Direction)
	base := r3.Add(cfg.Origin, r3.Scale(cfg.Height, up))

	switch shape {
	case components.ShapeCurveLeft, components.ShapeCurveRight:
		sign := 1.0
		if shape == components.ShapeCurveLeft {
			sign = -1.0
		}
		angle := progress * math.Pi / 2
		localX := cfg.CurveRadius * math.Sin(angle)
		localZ := sign * cfg.CurveRadius * (1 - math.Cos(angle))
		return r3.Add(base, r3.Add(r3.Scale(localX, forward), r3.Scale(localZ, right)))

	case components.ShapeRampUp, components.ShapeRampDown:
		rise := cfg.RampRise * progress
		if shape == components.ShapeRampDown {
			rise = cfg.RampRise * (1 - progress)
		}
		p := r3.Add(base, r3.Scale((progress-0.5)*cfg.Length, forward))
		return r3.Add(p, r3.Scale(rise, up))

	default:
		// Straight, and the single-lane shapes that share its path
		return r3.Add(base, r3.Scale((progress-0.5)*cfg.Length, forward))
	}
}

// shapeRotationOffset is the per-shape model offset in degrees.
// Ramps use 0 for both directions.
var shapeRotationOffset = [...]float64{
	components.ShapeStraight:   0,
	components.ShapeCurveLeft:  90,
	components.ShapeCurveRight: -90,
	components.ShapeRampUp:     0,
	components.ShapeRampDown:   0,
	components.ShapeMerger:     0,
	components.ShapeSplitter:   0,
	components.ShapeCrossing:   0,
}

// PathRotation returns the facing angle in degrees used to orient a belt model.
func PathRotation(shape components.Shape, dir r3.Vec) float64 {
	deg := math.Atan2(dir.X, dir.Z) * 180 / math.Pi
	if int(shape) < len(shapeRotationOffset) {
		deg += shapeRotationOffset[shape]
	}
	return deg
}

// ItemPositions returns the world position of every item on the belt, in item order.
func ItemPositions(b *components.Belt, origin r3.Vec) []r3.Vec {
	cfg := PathConfigOf(origin, b)
	out := make([]r3.Vec, len(b.Items))
	for i, it := range b.Items {
		out[i] = PathPosition(b.Shape, it.Progress, cfg)
	}
	return out
}
