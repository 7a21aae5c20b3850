// Package camera provides an orbit camera for viewing the factory floor.
package camera

import "math"

// Camera orbits a target point on the floor.
// Yaw and pitch are in radians; yaw 0 looks along +Z.
type Camera struct {
	// Target is the point the camera looks at in world coordinates
	TargetX, TargetY, TargetZ float32

	Yaw      float32
	Pitch    float32 // Elevation above the floor plane
	Distance float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Constraints
	MinDistance, MaxDistance float32
	MinPitch, MaxPitch       float32

	// PanSpeed scales screen pixels to world units at distance 1
	PanSpeed float32
}

// New creates a camera looking at the origin from a raised three-quarter view.
func New(viewportW, viewportH float32) *Camera {
	c := &Camera{
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: 2,
		MaxDistance: 80,
		MinPitch:    0.1,
		MaxPitch:    1.5,
		PanSpeed:    0.002,
	}
	c.Reset()
	return c
}

// Eye returns the camera position in world coordinates.
func (c *Camera) Eye() (x, y, z float32) {
	cp := float32(math.Cos(float64(c.Pitch)))
	sp := float32(math.Sin(float64(c.Pitch)))
	sy := float32(math.Sin(float64(c.Yaw)))
	cy := float32(math.Cos(float64(c.Yaw)))

	x = c.TargetX - c.Distance*cp*sy
	y = c.TargetY + c.Distance*sp
	z = c.TargetZ - c.Distance*cp*cy
	return x, y, z
}

// Forward returns the unit view direction projected onto the floor.
func (c *Camera) Forward() (x, z float32) {
	return float32(math.Sin(float64(c.Yaw))), float32(math.Cos(float64(c.Yaw)))
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the target across the floor by a screen-space delta.
// Dragging right moves the view right; dragging up moves it forward.
// The step grows with distance so panning feels the same at any zoom.
func (c *Camera) Pan(dx, dy float32) {
	fx, fz := c.Forward()
	// Right of forward on the floor plane
	rx, rz := -fz, fx
	scale := c.PanSpeed * c.Distance
	c.TargetX += (rx*dx + fx*dy) * scale
	c.TargetZ += (rz*dx + fz*dy) * scale
}

// Orbit rotates the camera around the target.
func (c *Camera) Orbit(dYaw, dPitch float32) {
	c.Yaw = mod(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dPitch, c.MinPitch, c.MaxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float32) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the orbit distance by factor, so factors above 1 move closer.
func (c *Camera) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Reset returns the camera to the default view of the origin.
func (c *Camera) Reset() {
	c.TargetX, c.TargetY, c.TargetZ = 0, 0, 0
	c.Yaw = math.Pi / 4
	c.Pitch = 0.8
	c.SetDistance(12)
}

// Frame centers the target on the floor-plane bounds and backs off far
// enough that the whole extent fits in view.
func (c *Camera) Frame(minX, minZ, maxX, maxZ float32) {
	c.TargetX = (minX + maxX) / 2
	c.TargetZ = (minZ + maxZ) / 2
	extent := max(absf(maxX-minX), absf(maxZ-minZ))
	c.SetDistance(extent*1.2 + 4)
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
