package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/beltworks/camera"
	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/renderer"
	"github.com/pthm-cable/beltworks/systems"
	"github.com/pthm-cable/beltworks/telemetry"
	"github.com/pthm-cable/beltworks/ui"
)

const controlsLegend = "LMB select | RMB orbit | MMB pan | Wheel zoom | B build | 1-9 palette | R rotate | E toggle | Del remove | Space pause | F5/F9 save/load | Tab panel"

// initPresentation creates the scene and UI. Requires an open raylib window.
func (g *Game) initPresentation() {
	w, h := float32(g.cfg.Screen.Width), float32(g.cfg.Screen.Height)
	cam := camera.New(w, h)
	g.scene = renderer.NewScene(cam)
	g.frameFloor()

	g.hud = ui.NewHUD()
	g.inspector = ui.NewInspector(int32(w)-290, 10, 280)
	g.overlays = ui.NewOverlayRegistry()
	g.controls = ui.NewControlsPanel(10, 140, 220)
	g.palette = ui.NewBuildPalette()
	g.perfPanel = ui.NewPerfPanel(int32(w)-270, int32(h)-160)
	g.registry = systems.NewSystemRegistry()
	g.perf = NewPerfStats(g.cfg.Telemetry.PerfCollectorWindow)
	g.selectPalette(0)
}

// frameFloor points the camera at the bounds of every machine.
func (g *Game) frameFloor() {
	if g.scene == nil || len(g.order) == 0 {
		return
	}
	first := g.position(g.order[0])
	minX, maxX, minZ, maxZ := first.X, first.X, first.Z, first.Z
	for _, e := range g.order[1:] {
		p := g.position(e)
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minZ, maxZ = min(minZ, p.Z), max(maxZ, p.Z)
	}
	g.scene.Camera().Frame(float32(minX), float32(minZ), float32(maxX), float32(maxZ))
}

// Draw renders the floor and UI for one frame.
func (g *Game) Draw() {
	if g.scene == nil {
		return
	}
	g.perfCollector.RecordFrame()
	g.perf.Time(FrameDraw, g.draw)
}

func (g *Game) draw() {
	snap := g.Snapshot()

	rl.BeginDrawing()
	g.scene.Begin()

	if g.overlays.IsEnabled(ui.OverlayGrid) {
		g.scene.DrawGrid()
	}
	g.drawMachines(snap)
	g.drawWorldOverlays(snap)
	g.drawPlacementGhost()

	g.scene.End()

	g.drawScreenOverlays(snap)
	g.drawUI(snap)

	rl.EndDrawing()
}

// drawMachines draws every machine and the items riding belts.
func (g *Game) drawMachines(snap Snapshot) {
	stateColors := g.overlays.IsEnabled(ui.OverlayStateColors)
	for _, m := range snap.Machines {
		style := renderer.MachineStyle{
			State:       m.State,
			StateColors: stateColors,
			Selected:    m.Entity == g.selected,
			Hovered:     m.Entity == g.hovered,
		}
		if m.Belt == nil {
			g.scene.DrawMachine(m.Variant, m.Position, style)
			continue
		}
		g.scene.DrawBelt(m.Belt.Shape, m.Position, m.Belt.Rotation, style)
		for _, it := range m.Belt.Items {
			g.scene.DrawItem(it.Kind, it.Position)
		}
	}
}

// drawPlacementGhost previews the palette machine at the hovered cell.
func (g *Game) drawPlacementGhost() {
	if g.hovered.IsZero() {
		if cell, ok := g.hoverCell(); ok {
			rot := 0.0
			if g.placing.Variant == components.VariantBelt {
				rot = systems.PathRotation(g.placing.Shape, g.placing.Direction)
			}
			g.scene.DrawGhost(g.placing.Variant, cell, rot)
		}
	}
}

// drawUI renders HUD, panels and the inspector.
func (g *Game) drawUI(snap Snapshot) {
	g.hud.Draw(g.hudData(snap))
	g.hud.DrawControls(int32(g.cfg.Screen.Width), int32(g.cfg.Screen.Height), controlsLegend)

	tuning, changed, bottom := g.controls.Draw(g.overlays, ui.BeltTuning{
		Speed:       float32(g.cfg.Belt.Speed),
		MinSpacing:  float32(g.cfg.Belt.MinSpacing),
		CurveRadius: float32(g.cfg.Belt.CurveRadius),
	})
	g.controlsBottom = bottom
	if changed {
		g.queueTuning(tuning)
	}

	if i := g.palette.Draw(paletteEntries(), g.paletteIndex, facingName(g.placing.Direction), int32(g.cfg.Screen.Width), int32(g.cfg.Screen.Height)); i >= 0 {
		g.selectPalette(i)
	}

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		stats := g.perfCollector.Stats()
		g.perfPanel.Draw(ui.PerfPanelData{
			SystemTimes: stats.PhaseAvg,
			Total:       stats.AvgTickDuration,
			Registry:    g.registry,
		}, telemetry.Phases)
	}

	if view, ok := g.MachineView(g.selected); ok {
		act := g.inspector.Draw(inspectorData(view, g.describe))
		if act.Toggled {
			g.SetEnabled(view.Entity, act.Enabled)
		}
		if act.Remove {
			g.RemoveMachine(view.Entity)
		}
	}
}

// queueTuning turns slider changes into a global belt config update.
func (g *Game) queueTuning(t ui.BeltTuning) {
	var u ConfigUpdate
	if t.Speed != float32(g.cfg.Belt.Speed) {
		s := float64(t.Speed)
		u.Speed = &s
	}
	if t.MinSpacing != float32(g.cfg.Belt.MinSpacing) {
		s := float64(t.MinSpacing)
		u.MinSpacing = &s
	}
	if t.CurveRadius != float32(g.cfg.Belt.CurveRadius) {
		r := float64(t.CurveRadius)
		u.CurveRadius = &r
	}
	g.UpdateConfig(u)
}

// setStatus shows a transient HUD message.
func (g *Game) setStatus(format string, args ...any) {
	g.status = fmt.Sprintf(format, args...)
	g.statusUntil = rl.GetTime() + 3
}
