package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestNew(t *testing.T) {
	cam := New(1280, 720)

	if cam.TargetX != 0 || cam.TargetZ != 0 {
		t.Errorf("expected target at origin, got (%f, %f)", cam.TargetX, cam.TargetZ)
	}
	if cam.Distance != 12 {
		t.Errorf("expected distance 12, got %f", cam.Distance)
	}
}

func TestEyeDistance(t *testing.T) {
	cam := New(1280, 720)
	cam.TargetX, cam.TargetZ = 3, -2

	testCases := []struct{ yaw, pitch float32 }{
		{0, 0.5},
		{1.2, 0.3},
		{3.0, 1.4},
	}

	for _, tc := range testCases {
		cam.Yaw, cam.Pitch = tc.yaw, tc.pitch
		x, y, z := cam.Eye()
		dx, dy, dz := x-cam.TargetX, y-cam.TargetY, z-cam.TargetZ
		d := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))
		if !near(d, cam.Distance) {
			t.Errorf("yaw %f pitch %f: eye %f from target, want %f", tc.yaw, tc.pitch, d, cam.Distance)
		}
		if y <= cam.TargetY {
			t.Errorf("yaw %f pitch %f: eye below target", tc.yaw, tc.pitch)
		}
	}
}

func TestEyeBehindAlongYaw(t *testing.T) {
	cam := New(1280, 720)
	cam.Yaw = 0
	cam.Pitch = 0.5

	x, _, z := cam.Eye()
	if !near(x, 0) || z >= 0 {
		t.Errorf("yaw 0 should place the eye on -Z, got (%f, %f)", x, z)
	}
}

func TestPanFollowsYaw(t *testing.T) {
	cam := New(1280, 720)
	cam.Yaw = 0
	cam.SetDistance(10)
	cam.PanSpeed = 0.1

	// Forward along +Z
	cam.Pan(0, 1)
	if !near(cam.TargetX, 0) || !near(cam.TargetZ, 1) {
		t.Errorf("expected target (0, 1), got (%f, %f)", cam.TargetX, cam.TargetZ)
	}

	// Right of +Z is -X
	cam.Reset()
	cam.Yaw = 0
	cam.SetDistance(10)
	cam.Pan(1, 0)
	if !near(cam.TargetX, -1) || !near(cam.TargetZ, 0) {
		t.Errorf("expected target (-1, 0), got (%f, %f)", cam.TargetX, cam.TargetZ)
	}
}

func TestOrbitWrapsAndClamps(t *testing.T) {
	cam := New(1280, 720)
	cam.Yaw = 0.1
	cam.Orbit(-0.2, 0)
	if cam.Yaw < 0 || cam.Yaw >= 2*math.Pi {
		t.Errorf("yaw should wrap into [0, 2pi), got %f", cam.Yaw)
	}

	cam.Orbit(0, 10)
	if cam.Pitch != cam.MaxPitch {
		t.Errorf("expected pitch clamped to %f, got %f", cam.MaxPitch, cam.Pitch)
	}
	cam.Orbit(0, -10)
	if cam.Pitch != cam.MinPitch {
		t.Errorf("expected pitch clamped to %f, got %f", cam.MinPitch, cam.Pitch)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720)

	cam.ZoomBy(1000) // Far in
	if cam.Distance != cam.MinDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MinDistance, cam.Distance)
	}

	cam.ZoomBy(0.0001) // Far out
	if cam.Distance != cam.MaxDistance {
		t.Errorf("expected distance clamped to %f, got %f", cam.MaxDistance, cam.Distance)
	}

	before := cam.Distance
	cam.ZoomBy(0)
	if cam.Distance != before {
		t.Error("zero factor should be ignored")
	}
}

func TestFrame(t *testing.T) {
	cam := New(1280, 720)
	cam.Frame(-2, 0, 4, 10)

	if cam.TargetX != 1 || cam.TargetZ != 5 {
		t.Errorf("expected target (1, 5), got (%f, %f)", cam.TargetX, cam.TargetZ)
	}
	if cam.Distance < 10 {
		t.Errorf("distance %f too close to fit a 10 unit extent", cam.Distance)
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720)
	cam.TargetX = 5
	cam.Yaw = 2
	cam.Distance = 30

	cam.Reset()

	if cam.TargetX != 0 || cam.Distance != 12 || !near(cam.Yaw, math.Pi/4) {
		t.Errorf("reset left target %f yaw %f distance %f", cam.TargetX, cam.Yaw, cam.Distance)
	}
}
