package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// BeltTuning holds the belt tunables shown by the controls panel.
type BeltTuning struct {
	Speed       float32
	MinSpacing  float32
	CurveRadius float32
}

// ControlsPanel renders the left-side panel with overlay toggles and
// global belt tunables.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the visible panel.
func (c *ControlsPanel) Contains(px, py int32, height int32) bool {
	return c.visible && px >= c.x && px < c.x+c.width && py >= c.y && py < c.y+height
}

// Draw renders the controls panel and returns the tunables after slider
// interaction, whether any changed, and the bottom Y of the panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry, tuning BeltTuning) (BeltTuning, bool, int32) {
	if !c.visible {
		return tuning, false, c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	sliderBlock := int32(3) * (lineHeight + 24)
	panelHeight := int32(totalItems)*lineHeight + padding*4 + lineHeight*2 + sliderBlock

	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, category := range categories {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}
		y += 4
	}

	// Belt tunables apply to every belt and to later placements
	rl.DrawText("Belts", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	out := tuning
	out.Speed = c.slider(&y, "Speed", tuning.Speed, 0.1, 5)
	out.MinSpacing = c.slider(&y, "Min spacing", tuning.MinSpacing, 0.05, 1)
	out.CurveRadius = c.slider(&y, "Curve radius", tuning.CurveRadius, 0.1, 2)

	return out, out != tuning, c.y + panelHeight
}

func (c *ControlsPanel) slider(y *int32, label string, value, minVal, maxVal float32) float32 {
	r := c.renderer
	x := c.x + r.Theme.Padding
	w := c.width - r.Theme.Padding*2 - 40

	rl.DrawText(label, x, *y, r.Theme.FontSize, r.Theme.LabelColor)
	*y += r.Theme.LineHeight
	next := gui.SliderBar(
		rl.Rectangle{X: float32(x), Y: float32(*y), Width: float32(w), Height: 16},
		"", "",
		value, minVal, maxVal,
	)
	rl.DrawText(fmt.Sprintf("%.2f", value), x+w+6, *y+2, r.Theme.FontSize, r.Theme.ValueColor)
	*y += 24
	return next
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "floor":
		return "Floor"
	case "transport":
		return "Transport"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}

// PaletteEntry is one buildable machine in the build palette.
type PaletteEntry struct {
	Label string
	Key   string
}

// BuildPalette renders the placement choices along the bottom of the screen.
type BuildPalette struct {
	renderer *Renderer
}

// NewBuildPalette creates a build palette.
func NewBuildPalette() *BuildPalette {
	return &BuildPalette{renderer: NewRenderer()}
}

// Draw renders the entries and returns the index clicked this frame, or -1.
// The current entry is highlighted and the belt facing shown beside it.
func (p *BuildPalette) Draw(entries []PaletteEntry, current int, facing string, screenW, screenH int32) int {
	const btnW, btnH = 110, 26
	gap := int32(6)
	total := int32(len(entries))*(btnW+gap) - gap
	x := (screenW - total) / 2
	y := screenH - btnH - 34

	clicked := -1
	for i, e := range entries {
		bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: btnW, Height: btnH}
		if i == current {
			rl.DrawRectangleLinesEx(rl.Rectangle{X: bounds.X - 2, Y: bounds.Y - 2, Width: bounds.Width + 4, Height: bounds.Height + 4}, 2, rl.Yellow)
		}
		if gui.Button(bounds, fmt.Sprintf("%s [%s]", e.Label, e.Key)) {
			clicked = i
		}
		x += btnW + gap
	}
	rl.DrawText("Facing: "+facing+"  [R] rotate", (screenW-total)/2, y-18, p.renderer.Theme.FontSize, p.renderer.Theme.LabelColor)
	return clicked
}
