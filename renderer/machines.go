package renderer

import (
	"hash/fnv"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/systems"
)

// Box sizes per variant (width, height, depth).
var machineSize = [...]rl.Vector3{
	components.VariantProducer:  {X: 0.9, Y: 0.8, Z: 0.9},
	components.VariantConverter: {X: 0.9, Y: 1.0, Z: 0.9},
	components.VariantStorage:   {X: 0.9, Y: 0.6, Z: 0.9},
	components.VariantGenerator: {X: 0.8, Y: 1.2, Z: 0.8},
	components.VariantBelt:      {X: 0.8, Y: 0.08, Z: 1.0},
}

var machineColor = [...]rl.Color{
	components.VariantProducer:  {R: 140, G: 100, B: 60, A: 255},
	components.VariantConverter: {R: 190, G: 90, B: 50, A: 255},
	components.VariantStorage:   {R: 80, G: 120, B: 160, A: 255},
	components.VariantGenerator: {R: 200, G: 190, B: 70, A: 255},
	components.VariantBelt:      {R: 70, G: 70, B: 75, A: 255},
}

// MachineStyle controls how a machine is drawn.
type MachineStyle struct {
	State       systems.MachineState
	StateColors bool // Tint by state
	Selected    bool
	Hovered     bool
}

// Bounds returns the pick box of a machine at pos.
func Bounds(v components.Variant, pos r3.Vec) rl.BoundingBox {
	size := sizeOf(v)
	// Belts get a taller pick box than their visible slab
	if v == components.VariantBelt {
		size.Y = 0.3
	}
	c := vec3(pos)
	return rl.BoundingBox{
		Min: rl.Vector3{X: c.X - size.X/2, Y: c.Y, Z: c.Z - size.Z/2},
		Max: rl.Vector3{X: c.X + size.X/2, Y: c.Y + size.Y, Z: c.Z + size.Z/2},
	}
}

func sizeOf(v components.Variant) rl.Vector3 {
	if int(v) < len(machineSize) {
		return machineSize[v]
	}
	return rl.Vector3{X: 1, Y: 1, Z: 1}
}

func colorOf(v components.Variant) rl.Color {
	if int(v) < len(machineColor) {
		return machineColor[v]
	}
	return rl.Magenta
}

// DrawMachine draws a non-belt machine as a box resting on the floor.
func (s *Scene) DrawMachine(v components.Variant, pos r3.Vec, style MachineStyle) {
	size := sizeOf(v)
	center := vec3(pos)
	center.Y += size.Y / 2

	col := colorOf(v)
	if style.StateColors {
		col = tint(col, style.State)
	}
	rl.DrawCubeV(center, size, col)
	rl.DrawCubeWiresV(center, size, rl.Fade(rl.Black, 0.6))
	s.drawHighlight(v, pos, style)
}

// DrawBelt draws a belt slab rotated to its facing, with a stripe showing
// the direction of travel.
func (s *Scene) DrawBelt(shape components.Shape, pos r3.Vec, rotation float64, style MachineStyle) {
	size := sizeOf(components.VariantBelt)
	col := colorOf(components.VariantBelt)
	if style.StateColors {
		col = tint(col, style.State)
	}

	rl.PushMatrix()
	rl.Translatef(float32(pos.X), float32(pos.Y)+size.Y/2, float32(pos.Z))
	rl.Rotatef(float32(rotation), 0, 1, 0)

	switch shape {
	case components.ShapeRampUp, components.ShapeRampDown:
		rl.Rotatef(rampPitch(shape), 1, 0, 0)
	}
	rl.DrawCubeV(rl.Vector3{}, size, col)
	rl.DrawCubeWiresV(rl.Vector3{}, size, rl.Fade(rl.Black, 0.5))

	// Arrow stripe along local +Z
	stripe := rl.Color{R: 230, G: 200, B: 60, A: 255}
	rl.DrawLine3D(rl.Vector3{Y: size.Y / 2, Z: -0.35}, rl.Vector3{Y: size.Y / 2, Z: 0.35}, stripe)
	rl.DrawLine3D(rl.Vector3{Y: size.Y / 2, Z: 0.35}, rl.Vector3{X: -0.15, Y: size.Y / 2, Z: 0.2}, stripe)
	rl.DrawLine3D(rl.Vector3{Y: size.Y / 2, Z: 0.35}, rl.Vector3{X: 0.15, Y: size.Y / 2, Z: 0.2}, stripe)
	rl.PopMatrix()

	s.drawHighlight(components.VariantBelt, pos, style)
}

// rampPitch is the slab tilt in degrees for ramps.
func rampPitch(shape components.Shape) float32 {
	if shape == components.ShapeRampUp {
		return -15
	}
	return 15
}

func (s *Scene) drawHighlight(v components.Variant, pos r3.Vec, style MachineStyle) {
	switch {
	case style.Selected:
		rl.DrawBoundingBox(Bounds(v, pos), rl.Yellow)
	case style.Hovered:
		rl.DrawBoundingBox(Bounds(v, pos), rl.Fade(rl.White, 0.6))
	}
}

// DrawItem draws a resource item as a small sphere.
func (s *Scene) DrawItem(kind string, pos r3.Vec) {
	rl.DrawSphereEx(vec3(pos), 0.12, 6, 8, KindColor(kind))
}

// DrawConnection draws a line between two machine positions, lifted off
// the floor.
func (s *Scene) DrawConnection(from, to r3.Vec, col rl.Color) {
	a, b := vec3(from), vec3(to)
	a.Y += 0.5
	b.Y += 0.5
	rl.DrawLine3D(a, b, col)
	rl.DrawSphere(b, 0.05, col)
}

// DrawPath draws a polyline through points.
func (s *Scene) DrawPath(points []r3.Vec, col rl.Color) {
	for i := 1; i < len(points); i++ {
		rl.DrawLine3D(vec3(points[i-1]), vec3(points[i]), col)
	}
}

// DrawGhost draws a translucent placement preview.
func (s *Scene) DrawGhost(v components.Variant, pos r3.Vec, rotation float64) {
	size := sizeOf(v)
	rl.PushMatrix()
	rl.Translatef(float32(pos.X), float32(pos.Y)+size.Y/2, float32(pos.Z))
	rl.Rotatef(float32(rotation), 0, 1, 0)
	rl.DrawCubeWiresV(rl.Vector3{}, size, rl.Fade(rl.SkyBlue, 0.8))
	rl.DrawCubeV(rl.Vector3{}, size, rl.Fade(rl.SkyBlue, 0.2))
	rl.PopMatrix()
}

// tint shifts a base color toward the state color.
func tint(base rl.Color, state systems.MachineState) rl.Color {
	switch state {
	case systems.StateIdle:
		return lerpColor(base, rl.Orange, 0.5)
	case systems.StateDisabled:
		return lerpColor(base, rl.DarkGray, 0.7)
	default:
		return base
	}
}

func lerpColor(a, b rl.Color, t float32) rl.Color {
	mix := func(x, y uint8) uint8 { return uint8(float32(x) + (float32(y)-float32(x))*t) }
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: a.A}
}

var kindColors = map[string]rl.Color{
	"Ore":   {R: 150, G: 90, B: 50, A: 255},
	"Ingot": {R: 200, G: 200, B: 210, A: 255},
}

// KindColor returns a stable color for a resource kind.
func KindColor(kind string) rl.Color {
	if c, ok := kindColors[kind]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(kind))
	sum := h.Sum32()
	return rl.Color{R: uint8(80 + sum%160), G: uint8(80 + (sum>>8)%160), B: uint8(80 + (sum>>16)%160), A: 255}
}
