// Package telemetry provides throughput tracking, bookmarking and CSV output for the factory floor.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Events during window
	Produced        int `csv:"produced"`
	Converted       int `csv:"converted"`
	Delivered       int `csv:"delivered"`
	Pickups         int `csv:"pickups"`
	Handoffs        int `csv:"handoffs"`
	Transfers       int `csv:"transfers"`
	IntakeRefused   int `csv:"intake_refused"`
	TransferRefused int `csv:"transfer_refused"`

	// Rates
	DeliveredPerSec float64 `csv:"delivered_per_sec"`
	RefusalRate     float64 `csv:"refusal_rate"` // Refused transfers / attempted transfers

	// Power (sampled at window end)
	Generation float64 `csv:"generation"`
	Demand     float64 `csv:"demand"`
	PowerRatio float64 `csv:"power_ratio"`

	// Machine states (sampled at window end)
	Running  int `csv:"running"`
	Idle     int `csv:"idle"`
	Disabled int `csv:"disabled"`

	// Belt occupancy as a fraction of max items (sampled at window end)
	ItemsOnBelts  int     `csv:"items_on_belts"`
	OccupancyMean float64 `csv:"occupancy_mean"`
	OccupancyP50  float64 `csv:"occupancy_p50"`
	OccupancyP90  float64 `csv:"occupancy_p90"`
}

// ComputeOccupancyStats calculates mean and percentiles of belt occupancy.
func ComputeOccupancyStats(values []float64) (mean, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return mean, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("produced", s.Produced),
		slog.Int("converted", s.Converted),
		slog.Int("delivered", s.Delivered),
		slog.Int("handoffs", s.Handoffs),
		slog.Int("transfer_refused", s.TransferRefused),
		slog.Float64("delivered_per_sec", s.DeliveredPerSec),
		slog.Float64("power_ratio", s.PowerRatio),
		slog.Float64("occupancy_mean", s.OccupancyMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"produced", s.Produced,
		"converted", s.Converted,
		"delivered", s.Delivered,
		"pickups", s.Pickups,
		"handoffs", s.Handoffs,
		"transfers", s.Transfers,
		"intake_refused", s.IntakeRefused,
		"transfer_refused", s.TransferRefused,
		"delivered_per_sec", s.DeliveredPerSec,
		"refusal_rate", s.RefusalRate,
		"power_ratio", s.PowerRatio,
		"running", s.Running,
		"idle", s.Idle,
		"disabled", s.Disabled,
		"items_on_belts", s.ItemsOnBelts,
		"occupancy_mean", s.OccupancyMean,
		"occupancy_p90", s.OccupancyP90,
	)
}
