package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"
)

// HandleInput processes keyboard and mouse input for one frame. Floor edits
// go through the same commands a headless caller uses.
func (g *Game) HandleInput() {
	if g.scene == nil {
		return
	}
	g.perf.Time(FrameInput, g.handleInput)
}

func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Speed multiplier with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}
	if key := rl.GetKeyPressed(); key != 0 {
		g.overlays.HandleKeyPress(key)
		if key >= rl.KeyOne && key <= rl.KeyNine {
			g.selectPalette(int(key - rl.KeyOne))
		}
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.rotatePlacement()
	}

	g.handleCameraInput()
	g.handleFloorInput()
	g.handleSaveInput()
}

// handleFloorInput picks, places, toggles and removes machines.
func (g *Game) handleFloorInput() {
	mouse := rl.GetMousePosition()
	mx, my := int32(mouse.X), int32(mouse.Y)
	if g.overUI(mx, my) {
		g.hovered = ecs.Entity{}
		return
	}
	g.hovered = g.machineAtMouse()

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.selected = g.hovered
	}
	if rl.IsKeyPressed(rl.KeyEscape) {
		g.selected = ecs.Entity{}
	}

	if rl.IsKeyPressed(rl.KeyB) {
		if cell, ok := g.hoverCell(); ok && !g.occupied(cell) {
			p := g.placing
			p.Position = cell
			g.selected = g.PlaceMachine(p)
		}
	}

	if !g.alive(g.selected) {
		return
	}
	if rl.IsKeyPressed(rl.KeyE) && g.machineMap.Has(g.selected) {
		g.SetEnabled(g.selected, !g.machineMap.Get(g.selected).ManuallyEnabled)
	}
	if rl.IsKeyPressed(rl.KeyDelete) || rl.IsKeyPressed(rl.KeyBackspace) {
		g.RemoveMachine(g.selected)
	}
}

// overUI reports whether a screen point is covered by a panel.
func (g *Game) overUI(x, y int32) bool {
	if g.controls.Contains(x, y, g.controlsBottom-140) {
		return true
	}
	if v, ok := g.MachineView(g.selected); ok && g.inspector.Contains(x, y, inspectorData(v, g.describe)) {
		return true
	}
	// Build palette strip
	return y > int32(rl.GetScreenHeight())-90
}

// handleSaveInput runs quick save and quick load.
func (g *Game) handleSaveInput() {
	if rl.IsKeyPressed(rl.KeyF5) {
		if err := g.Save(g.quickSave); err != nil {
			slog.Error("quick save failed", "error", err)
			g.setStatus("Save failed")
		} else {
			g.setStatus("Saved %s", g.quickSave)
		}
	}
	if rl.IsKeyPressed(rl.KeyF9) {
		if err := g.Load(g.quickSave); err != nil {
			slog.Error("quick load failed", "error", err)
			g.setStatus("Load failed")
		} else {
			g.setStatus("Loaded %s", g.quickSave)
		}
	}
}

// handleResize propagates window size changes.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	g.cfg.Screen.Width, g.cfg.Screen.Height = int(w), int(h)
	g.scene.Camera().Resize(float32(w), float32(h))
	g.inspector.SetPosition(w-290, 10)
	g.perfPanel.SetPosition(w-270, h-160)
}

// handleCameraInput processes orbit, pan and zoom controls.
func (g *Game) handleCameraInput() {
	cam := g.scene.Camera()

	// Arrow keys pan across the floor
	const keyPan = 8
	if rl.IsKeyDown(rl.KeyRight) {
		cam.Pan(keyPan, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		cam.Pan(-keyPan, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		cam.Pan(0, keyPan)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		cam.Pan(0, -keyPan)
	}

	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		cam.Orbit(-delta.X*0.005, delta.Y*0.005)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		cam.Pan(-delta.X, delta.Y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		cam.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
		g.frameFloor()
	}
}
