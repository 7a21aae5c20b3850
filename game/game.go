// Package game runs the factory floor: it owns the ECS world, applies
// commands between ticks and drives power, production and transport in
// placement order.
package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/beltworks/components"
	"github.com/pthm-cable/beltworks/config"
	"github.com/pthm-cable/beltworks/renderer"
	"github.com/pthm-cable/beltworks/systems"
	"github.com/pthm-cable/beltworks/telemetry"
	"github.com/pthm-cable/beltworks/ui"
)

// Game holds the complete factory state.
type Game struct {
	world *ecs.World
	cfg   *config.Config

	// Every machine is created with Position and Machine
	machineMapper *ecs.Map2[components.Position, components.Machine]

	// Component mappers for lookups
	posMap       *ecs.Map[components.Position]
	machineMap   *ecs.Map[components.Machine]
	outputMap    *ecs.Map[components.OutputBuffer]
	inputMap     *ecs.Map[components.InputBuffer]
	recipeMap    *ecs.Map[components.Recipe]
	storageMap   *ecs.Map[components.Storage]
	generatorMap *ecs.Map[components.Generator]
	beltMap      *ecs.Map[components.Belt]

	// Flat machine list in placement order. Update order follows it.
	order []ecs.Entity

	// Fixed-step clock and between-tick command queue
	stepper  *systems.FixedStep
	commands []command

	// State
	tick           int32
	paused         bool
	stepsPerUpdate int
	lastPower      systems.PowerReport
	totals         systems.Events

	// Scratch reused every tick
	machineScratch []*components.Machine

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	snapshotDir      string

	// Presentation (nil when headless)
	headless       bool
	scene          *renderer.Scene
	hud            *ui.HUD
	inspector      *ui.Inspector
	overlays       *ui.OverlayRegistry
	controls       *ui.ControlsPanel
	palette        *ui.BuildPalette
	perfPanel      *ui.PerfPanel
	registry       *systems.SystemRegistry
	perf           *PerfStats
	selected       ecs.Entity
	hovered        ecs.Entity
	placing        Placement
	paletteIndex   int
	controlsBottom int32
	lastStats      telemetry.WindowStats
	status         string
	statusUntil    float64 // Wall-clock seconds
	quickSave      string
}

// NewGameWithOptions creates a game and builds the configured layout.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	cfg = cfg.Clone()

	g := newGame(cfg, opts)

	if !opts.EmptyFloor {
		for i, pc := range cfg.Layout {
			p, err := PlacementFromConfig(pc)
			if err != nil {
				slog.Warn("skipping layout entry", "index", i, "error", err)
				continue
			}
			g.placeMachine(p)
		}
		g.ResolveAll()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
	}

	if !g.headless {
		g.initPresentation()
	}

	slog.Info("factory floor ready", "machines", len(g.order), "headless", g.headless)
	return g
}

// NewGameFromLayout builds a headless game from an explicit layout and
// fails on the first invalid entry.
func NewGameFromLayout(cfg *config.Config, layout []config.PlacementConfig) (*Game, error) {
	g := newGame(cfg.Clone(), Options{Headless: true, StepsPerUpdate: 1})
	for _, pc := range layout {
		p, err := PlacementFromConfig(pc)
		if err != nil {
			return nil, err
		}
		g.placeMachine(p)
	}
	g.ResolveAll()
	return g, nil
}

func newGame(cfg *config.Config, opts Options) *Game {
	world := ecs.NewWorld()

	g := &Game{
		world:         world,
		cfg:           cfg,
		machineMapper: ecs.NewMap2[components.Position, components.Machine](world),
		posMap:        ecs.NewMap[components.Position](world),
		machineMap:    ecs.NewMap[components.Machine](world),
		outputMap:     ecs.NewMap[components.OutputBuffer](world),
		inputMap:      ecs.NewMap[components.InputBuffer](world),
		recipeMap:     ecs.NewMap[components.Recipe](world),
		storageMap:    ecs.NewMap[components.Storage](world),
		generatorMap:  ecs.NewMap[components.Generator](world),
		beltMap:       ecs.NewMap[components.Belt](world),
		stepper:       systems.NewFixedStep(cfg.Derived.UpdateRate),
		headless:      opts.Headless,
		logStats:      opts.LogStats,
		snapshotDir:   opts.SnapshotDir,
		quickSave:     opts.QuickSavePath,
	}
	if g.quickSave == "" {
		g.quickSave = "quicksave.save.zst"
	}

	g.stepsPerUpdate = opts.StepsPerUpdate
	if g.stepsPerUpdate < 1 {
		g.stepsPerUpdate = 1
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	if statsWindow <= 0 {
		statsWindow = 10
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Derived.UpdateRate)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)

	if opts.OutputDir != "" {
		om, err := telemetry.NewOutputManager(opts.OutputDir)
		if err != nil {
			slog.Error("failed to create output manager", "error", err)
		} else {
			g.outputManager = om
		}
	}

	return g
}

// Update accumulates frame time, scaled by the speed multiplier, and runs
// every whole tick that is due up to the per-frame cap. Time beyond the cap
// stays in the backlog. Returns the number of ticks run.
func (g *Game) Update(frameDt float64) int {
	if g.paused {
		return 0
	}
	g.stepper.Add(frameDt * float64(g.stepsPerUpdate))

	limit := g.cfg.Derived.MaxSteps * g.stepsPerUpdate
	steps := 0
	for steps < limit && g.stepper.Next() {
		g.step()
		steps++
	}
	return steps
}

// UpdateHeadless runs StepsPerUpdate ticks without frame timing.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// Step runs exactly one tick.
func (g *Game) Step() {
	g.step()
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// SimTime returns simulated seconds since tick 0.
func (g *Game) SimTime() float64 {
	return float64(g.tick) * g.cfg.Derived.UpdateRate
}

// Backlog returns frame time accumulated but not yet simulated.
func (g *Game) Backlog() float64 {
	return g.stepper.Pending()
}

// SetPaused pauses or resumes Update.
func (g *Game) SetPaused(paused bool) {
	g.paused = paused
}

// Paused reports whether Update is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// Totals returns event counts since the game started.
func (g *Game) Totals() systems.Events {
	return g.totals
}

// Power returns the most recent power distribution.
func (g *Game) Power() systems.PowerReport {
	return g.lastPower
}

// Config returns the game's configuration. Belt tunables change through UpdateConfig.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// SetStatsCallback sets a function called with each flushed stats window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}

// Machines returns the flat machine list in placement order.
func (g *Game) Machines() []ecs.Entity {
	return append([]ecs.Entity(nil), g.order...)
}

// Unload closes telemetry output.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// alive reports whether e refers to a live machine.
func (g *Game) alive(e ecs.Entity) bool {
	return !e.IsZero() && g.world.Alive(e)
}

// parts collects the capability components of a machine.
func (g *Game) parts(e ecs.Entity) systems.Parts {
	var p systems.Parts
	if !g.alive(e) {
		return p
	}
	if g.machineMap.Has(e) {
		p.Machine = g.machineMap.Get(e)
	}
	if g.outputMap.Has(e) {
		p.Output = g.outputMap.Get(e)
	}
	if g.inputMap.Has(e) {
		p.Input = g.inputMap.Get(e)
	}
	if g.recipeMap.Has(e) {
		p.Recipe = g.recipeMap.Get(e)
	}
	if g.storageMap.Has(e) {
		p.Storage = g.storageMap.Get(e)
	}
	if g.beltMap.Has(e) {
		p.Belt = g.beltMap.Get(e)
	}
	return p
}

// endpoint returns the capability view of e, or the zero Endpoint when e
// is not a live machine.
func (g *Game) endpoint(e ecs.Entity) systems.Endpoint {
	if !g.alive(e) {
		return systems.Endpoint{}
	}
	return g.parts(e).Endpoint()
}

// position returns the world position of a machine.
func (g *Game) position(e ecs.Entity) r3.Vec {
	if !g.alive(e) || !g.posMap.Has(e) {
		return r3.Vec{}
	}
	return g.posMap.Get(e).Vec()
}
