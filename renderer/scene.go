// Package renderer draws the factory floor in 3D with raylib.
// It only draws what it is handed and never touches simulation state.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/camera"
)

// Scene owns the raylib 3D camera and per-frame drawing state.
type Scene struct {
	cam   rl.Camera3D
	orbit *camera.Camera

	gridSlices int32
	background rl.Color
}

// NewScene creates a scene viewed through the given orbit camera.
func NewScene(orbit *camera.Camera) *Scene {
	s := &Scene{
		orbit:      orbit,
		gridSlices: 40,
		background: rl.Color{R: 24, G: 28, B: 34, A: 255},
	}
	s.cam = rl.Camera3D{
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
	s.Sync()
	return s
}

// Sync copies the orbit camera into the raylib camera.
func (s *Scene) Sync() {
	x, y, z := s.orbit.Eye()
	s.cam.Position = rl.Vector3{X: x, Y: y, Z: z}
	s.cam.Target = rl.Vector3{X: s.orbit.TargetX, Y: s.orbit.TargetY, Z: s.orbit.TargetZ}
}

// Camera returns the orbit camera.
func (s *Scene) Camera() *camera.Camera {
	return s.orbit
}

// Begin clears the frame and enters 3D mode.
func (s *Scene) Begin() {
	s.Sync()
	rl.ClearBackground(s.background)
	rl.BeginMode3D(s.cam)
}

// End leaves 3D mode.
func (s *Scene) End() {
	rl.EndMode3D()
}

// DrawGrid draws the unit floor grid centered under the camera target.
func (s *Scene) DrawGrid() {
	rl.PushMatrix()
	rl.Translatef(float32(int32(s.orbit.TargetX)), -0.01, float32(int32(s.orbit.TargetZ)))
	rl.DrawGrid(s.gridSlices, 1)
	rl.PopMatrix()
}

// MouseRay returns the world ray under the mouse cursor.
func (s *Scene) MouseRay() rl.Ray {
	return rl.GetScreenToWorldRay(rl.GetMousePosition(), s.cam)
}

// FloorPoint intersects the mouse ray with the y = 0 plane and reports
// whether it hit in front of the camera.
func (s *Scene) FloorPoint() (r3.Vec, bool) {
	ray := s.MouseRay()
	if ray.Direction.Y >= -1e-6 {
		return r3.Vec{}, false
	}
	t := -ray.Position.Y / ray.Direction.Y
	return r3.Vec{
		X: float64(ray.Position.X + ray.Direction.X*t),
		Z: float64(ray.Position.Z + ray.Direction.Z*t),
	}, true
}

// ScreenPos projects a world point to screen coordinates.
func (s *Scene) ScreenPos(p r3.Vec) (x, y int32) {
	v := rl.GetWorldToScreen(vec3(p), s.cam)
	return int32(v.X), int32(v.Y)
}

func vec3(p r3.Vec) rl.Vector3 {
	return rl.Vector3{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
}
