package game

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pthm-cable/beltworks/persist"
	"github.com/pthm-cable/beltworks/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sampleFloor())
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
		g.logFloorState()
		g.logFramePerf()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.outputManager.WriteBelts(g.beltRows(stats.WindowEndTick)); err != nil {
			slog.Error("failed to write belt occupancy", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
		if g.snapshotDir != "" {
			g.saveSnapshot(bm)
		}
	}
}

// sampleFloor captures power, machine states and belt occupancy.
func (g *Game) sampleFloor() telemetry.Sample {
	s := telemetry.Sample{Power: g.lastPower}
	s.Running, s.Idle, s.Disabled = g.countStates()

	for _, e := range g.order {
		if !g.beltMap.Has(e) {
			continue
		}
		b := g.beltMap.Get(e)
		s.Items += len(b.Items)
		if b.MaxItems > 0 {
			s.Occupancy = append(s.Occupancy, float64(len(b.Items))/float64(b.MaxItems))
		}
	}
	return s
}

// beltRows captures per-belt occupancy for belts.csv.
func (g *Game) beltRows(windowEnd int32) []telemetry.BeltRecord {
	var rows []telemetry.BeltRecord
	for i, e := range g.order {
		if !g.beltMap.Has(e) {
			continue
		}
		b := g.beltMap.Get(e)
		pos := g.position(e)
		row := telemetry.BeltRecord{
			WindowEnd: windowEnd,
			Belt:      i,
			X:         pos.X,
			Z:         pos.Z,
			Items:     len(b.Items),
			MaxItems:  b.MaxItems,
		}
		if b.MaxItems > 0 {
			row.Occupancy = float64(len(b.Items)) / float64(b.MaxItems)
		}
		if lead, ok := b.Tail(); ok {
			row.LeadProgress = lead.Progress
			row.Jammed = b.Full() && lead.Progress >= b.EndBound
		}
		rows = append(rows, row)
	}
	return rows
}

// saveSnapshot writes the floor to the snapshot directory.
func (g *Game) saveSnapshot(bm telemetry.Bookmark) {
	path := filepath.Join(g.snapshotDir, fmt.Sprintf("tick_%08d_%s.save.zst", g.tick, bm.Type))
	if err := persist.WriteSave(path, g.SaveFile()); err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}
