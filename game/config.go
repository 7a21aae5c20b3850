package game

import "github.com/pthm-cable/beltworks/config"

// Options configures game initialization.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	LogStats       bool           // Log window stats and bookmarks via slog
	StatsWindowSec float64        // 0 = use config
	SnapshotDir    string         // Save the floor here when a bookmark fires
	OutputDir      string         // CSV telemetry output
	Headless       bool
	StepsPerUpdate int            // Ticks per UpdateHeadless call
	EmptyFloor     bool           // Skip the configured layout
	QuickSavePath  string         // F5/F9 target; empty = quicksave.save.zst
}

// DefaultOptions returns headless options using the global config.
func DefaultOptions() Options {
	return Options{
		Headless:       true,
		StepsPerUpdate: 1,
	}
}
