package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// BeltInfo is the belt part of the inspector data.
type BeltInfo struct {
	Shape      string
	Facing     string
	Speed      float64
	MinSpacing float64
	Items      int
	MaxItems   int
	Upstream   string
	Downstream string
	Lead       float64 // Progress of the lead item, valid when Items > 0
}

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	Title         string
	Variant       string
	State         string
	Enabled       bool
	Position      [3]float64
	PowerDemand   float64
	CurrentPower  float64
	CycleProgress float64
	Cycles        uint64

	HasOutput      bool
	OutputKind     string
	OutputCount    int
	OutputCapacity int

	HasInput      bool
	InputCount    int
	InputCapacity int

	IsStorage bool
	Delivered int

	IsGenerator bool
	Generation  float64

	Belt *BeltInfo
}

// InspectorAction is what the user asked for this frame.
type InspectorAction struct {
	Toggled bool // Enabled switch changed
	Enabled bool // New switch value when Toggled
	Remove  bool
}

// Inspector renders the machine inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
	sections []SectionDescriptor
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		sections: inspectorSections(),
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Contains reports whether a screen point is over the panel.
func (ins *Inspector) Contains(px, py int32, data InspectorData) bool {
	return px >= ins.x && px < ins.x+ins.width && py >= ins.y && py < ins.y+ins.height(data)
}

func (ins *Inspector) height(data InspectorData) int32 {
	r := ins.renderer
	h := r.Theme.Padding*3 + r.Theme.LineHeight*2 + 34 // Title, state, buttons
	for _, sd := range ins.sections {
		h += r.SectionHeight(sd, data)
	}
	return h
}

// Draw renders the inspector panel for the given data and returns the
// user's action.
func (ins *Inspector) Draw(data InspectorData) InspectorAction {
	var act InspectorAction
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	r.DrawPanel(ins.x, ins.y, ins.width, ins.height(data))

	x := ins.x + padding
	y := ins.y + padding

	rl.DrawText(data.Title, x, y, 16, rl.White)
	y += r.Theme.LineHeight + 4
	y = r.DrawLabelValue(x, y, "State", data.State, stateColor(data.State))

	for _, sd := range ins.sections {
		y = r.DrawSection(x, y, sd, data, contentWidth)
	}

	// Manual switch, applied by the simulation on its next tick
	y += 4
	half := float32(contentWidth-6) / 2
	label := "Enabled"
	if !data.Enabled {
		label = "Disabled"
	}
	next := gui.Toggle(rl.Rectangle{X: float32(x), Y: float32(y), Width: half, Height: 24}, label, data.Enabled)
	if next != data.Enabled {
		act.Toggled = true
		act.Enabled = next
	}
	if gui.Button(rl.Rectangle{X: float32(x) + half + 6, Y: float32(y), Width: half, Height: 24}, "Remove") {
		act.Remove = true
	}
	return act
}

func stateColor(state string) rl.Color {
	switch state {
	case "Running":
		return rl.Green
	case "Idle":
		return rl.Orange
	default:
		return rl.Gray
	}
}

func inspectorSections() []SectionDescriptor {
	d := func(v any) InspectorData { return v.(InspectorData) }

	return []SectionDescriptor{
		{
			ID:    "machine",
			Title: "Machine",
			Fields: []FieldDescriptor{
				{ID: "variant", Label: "Variant", Widget: WidgetText, TextGetter: func(v any) string { return d(v).Variant }},
				{ID: "position", Label: "Position", Widget: WidgetText, TextGetter: func(v any) string {
					p := d(v).Position
					return fmt.Sprintf("%.1f, %.1f, %.1f", p[0], p[1], p[2])
				}},
				{ID: "power", Label: "Power", Widget: WidgetText, TextGetter: func(v any) string {
					return fmt.Sprintf("%.1f / %.1f", d(v).CurrentPower, d(v).PowerDemand)
				}, Visible: func(v any) bool { return !d(v).IsGenerator }},
				{ID: "cycle", Label: "Cycle", Widget: WidgetBar, Getter: func(v any) float32 { return float32(d(v).CycleProgress) },
					Visible: func(v any) bool { return !d(v).IsGenerator }},
				{ID: "cycles", Label: "Cycles", Widget: WidgetText, Format: "%.0f", Getter: func(v any) float32 { return float32(d(v).Cycles) },
					Visible: func(v any) bool { return !d(v).IsGenerator }},
			},
		},
		{
			ID:      "buffers",
			Title:   "Buffers",
			Visible: func(v any) bool { return d(v).HasInput || d(v).HasOutput },
			Fields: []FieldDescriptor{
				{ID: "input", Label: "Input", Widget: WidgetFillBar,
					Getter:    func(v any) float32 { return float32(d(v).InputCount) },
					MaxGetter: func(v any) float32 { return float32(d(v).InputCapacity) },
					Visible:   func(v any) bool { return d(v).HasInput }},
				{ID: "output", Label: "Output", Widget: WidgetFillBar,
					Getter:    func(v any) float32 { return float32(d(v).OutputCount) },
					MaxGetter: func(v any) float32 { return float32(d(v).OutputCapacity) },
					Visible:   func(v any) bool { return d(v).HasOutput }},
				{ID: "output_kind", Label: "Produces", Widget: WidgetText, TextGetter: func(v any) string { return d(v).OutputKind },
					Visible: func(v any) bool { return d(v).HasOutput }},
				{ID: "delivered", Label: "Delivered", Widget: WidgetText, Format: "%.0f", Getter: func(v any) float32 { return float32(d(v).Delivered) },
					Visible: func(v any) bool { return d(v).IsStorage }},
			},
		},
		{
			ID:      "generator",
			Title:   "Generator",
			Visible: func(v any) bool { return d(v).IsGenerator },
			Fields: []FieldDescriptor{
				{ID: "generation", Label: "Output", Widget: WidgetText, Format: "%.1f", Getter: func(v any) float32 { return float32(d(v).Generation) }},
			},
		},
		{
			ID:      "belt",
			Title:   "Belt",
			Visible: func(v any) bool { return d(v).Belt != nil },
			Fields: []FieldDescriptor{
				{ID: "shape", Label: "Shape", Widget: WidgetText, TextGetter: func(v any) string { return d(v).Belt.Shape }},
				{ID: "facing", Label: "Facing", Widget: WidgetText, TextGetter: func(v any) string { return d(v).Belt.Facing }},
				{ID: "speed", Label: "Speed", Widget: WidgetText, Format: "%.2f", Getter: func(v any) float32 { return float32(d(v).Belt.Speed) }},
				{ID: "spacing", Label: "Spacing", Widget: WidgetText, Format: "%.2f", Getter: func(v any) float32 { return float32(d(v).Belt.MinSpacing) }},
				{ID: "items", Label: "Items", Widget: WidgetFillBar,
					Getter:    func(v any) float32 { return float32(d(v).Belt.Items) },
					MaxGetter: func(v any) float32 { return float32(d(v).Belt.MaxItems) }},
				{ID: "lead", Label: "Lead", Widget: WidgetText, Format: "%.2f", Getter: func(v any) float32 { return float32(d(v).Belt.Lead) },
					Visible: func(v any) bool { return d(v).Belt.Items > 0 }},
				{ID: "upstream", Label: "Upstream", Widget: WidgetText, TextGetter: func(v any) string { return d(v).Belt.Upstream }},
				{ID: "downstream", Label: "Downstream", Widget: WidgetText, TextGetter: func(v any) string { return d(v).Belt.Downstream }},
			},
		},
	}
}
