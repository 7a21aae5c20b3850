package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/beltworks/config"
	"github.com/pthm-cable/beltworks/game"
	"github.com/pthm-cable/beltworks/persist"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for bookmark snapshots")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster)")
	loadPath := flag.String("load", "", "Load a save file before starting")
	savePath := flag.String("save", "", "Write a save file on exit")
	dbPath := flag.String("db", "", "SQLite database for named saves")
	slot := flag.String("slot", "", "Named save slot in -db (loaded on start if present, written on exit)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	statsWindowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		statsWindowSec = *statsWindow
	}

	opts := game.Options{
		LogStats:       *logStats,
		StatsWindowSec: statsWindowSec,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	ctx := context.Background()

	var store *persist.SQLiteStore
	if *dbPath != "" {
		s, err := persist.Open(ctx, *dbPath)
		if err != nil {
			slog.Error("failed to open save database", "path", *dbPath, "error", err)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	if *headless {
		g := game.NewGameWithOptions(opts)
		defer g.Unload()
		restore(ctx, g, *loadPath, store, *slot)
		defer persistFloor(ctx, g, *savePath, store, *slot)

		slog.Info("starting headless simulation",
			"stats_window", statsWindowSec,
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate,
		)

		for {
			g.UpdateHeadless()

			if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return
			}
		}
	}

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Beltworks")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	rl.SetExitKey(0)

	g := game.NewGameWithOptions(opts)
	defer g.Unload()
	restore(ctx, g, *loadPath, store, *slot)
	defer persistFloor(ctx, g, *savePath, store, *slot)

	for !rl.WindowShouldClose() {
		g.HandleInput()
		g.Update(float64(rl.GetFrameTime()))
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// restore loads the starting floor. A file given with -load wins over a
// database slot; a missing slot leaves the configured layout in place.
func restore(ctx context.Context, g *game.Game, path string, store *persist.SQLiteStore, slot string) {
	if path != "" {
		if err := g.Load(path); err != nil {
			slog.Error("failed to load save", "path", path, "error", err)
			os.Exit(1)
		}
		return
	}
	if store == nil || slot == "" {
		return
	}
	if err := g.LoadFrom(ctx, store, slot); err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			slog.Info("save slot empty, using configured layout", "slot", slot)
			return
		}
		slog.Error("failed to load slot", "slot", slot, "error", err)
		os.Exit(1)
	}
}

func persistFloor(ctx context.Context, g *game.Game, path string, store *persist.SQLiteStore, slot string) {
	if path != "" {
		if err := g.Save(path); err != nil {
			slog.Error("failed to write save", "path", path, "error", err)
		}
	}
	if store != nil && slot != "" {
		if err := g.SaveTo(ctx, store, slot); err != nil {
			slog.Error("failed to write slot", "slot", slot, "error", err)
		}
	}
}
