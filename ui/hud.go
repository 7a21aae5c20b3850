package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/beltworks/systems"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title    string
	Tick     int32
	SimTime  float64
	Speed    int
	FPS      int32
	Paused   bool
	Machines int
	Running  int
	Idle     int
	Disabled int
	Items    int

	Generation float64
	Demand     float64
	PowerRatio float64

	Delivered       int
	DeliveredPerSec float64 // Last flushed stats window
	RefusalRate     float64
	Status          string // Transient message, e.g. after a save
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Machines: %d | Running: %d | Idle: %d | Off: %d | Items: %d",
			data.Machines, data.Running, data.Idle, data.Disabled, data.Items),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | Speed: %dx | FPS: %d", data.Tick, data.SimTime, data.Speed, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	powerColor := rl.Green
	if data.PowerRatio < 1 {
		powerColor = rl.Orange
	}
	if data.PowerRatio < 0.5 {
		powerColor = rl.Red
	}
	rl.DrawText(
		fmt.Sprintf("Power: %.0f / %.0f (%.0f%%)", data.Generation, data.Demand, data.PowerRatio*100),
		10, 75, 16, powerColor,
	)

	rl.DrawText(
		fmt.Sprintf("Delivered: %d | %.2f/s | Refused: %.0f%%", data.Delivered, data.DeliveredPerSec, data.RefusalRate*100),
		10, 95, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	if data.Status != "" {
		statusText += "  " + data.Status
	}
	rl.DrawText(statusText, 10, 115, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	SystemTimes map[string]time.Duration
	Total       time.Duration
	Registry    *systems.SystemRegistry
}

// PerfPanel renders the system performance panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData, sortedNames []string) {
	x := p.x
	y := p.y

	p.renderer.DrawPanel(x-6, y-6, 260, int32(len(sortedNames))*14+48)

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s", data.Total.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range sortedNames {
		avg := data.SystemTimes[name]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		displayName := name
		if data.Registry != nil {
			displayName = data.Registry.GetName(name)
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", displayName, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
