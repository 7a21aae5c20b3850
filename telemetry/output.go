package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/beltworks/config"
)

// BeltRecord is one belt's occupancy at the end of a telemetry window.
type BeltRecord struct {
	WindowEnd    int32   `csv:"window_end"`
	Belt         int     `csv:"belt"` // Index in machine list order
	X            float64 `csv:"x"`
	Z            float64 `csv:"z"`
	Items        int     `csv:"items"`
	MaxItems     int     `csv:"max_items"`
	Occupancy    float64 `csv:"occupancy"`
	LeadProgress float64 `csv:"lead_progress"`
	Jammed       bool    `csv:"jammed"` // Full with the lead parked at the end bound
}

// csvLog is an append-only CSV file. The header goes out with the first rows.
type csvLog struct {
	name   string
	file   *os.File
	header bool
}

func openLog(dir, name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{name: name, file: f}, nil
}

func appendRows[T any](l *csvLog, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	var err error
	if l.header {
		err = gocsv.MarshalWithoutHeaders(rows, l.file)
	} else {
		err = gocsv.Marshal(rows, l.file)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	l.header = true
	return nil
}

// OutputManager writes the per-window CSV logs of a run.
type OutputManager struct {
	dir       string
	telemetry *csvLog
	perf      *csvLog
	bookmarks *csvLog
	belts     *csvLog
}

// NewOutputManager creates dir and opens telemetry.csv, perf.csv,
// bookmarks.csv and belts.csv in it. Returns nil if dir is empty (output
// disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, slot := range []struct {
		log  **csvLog
		name string
	}{
		{&om.telemetry, "telemetry.csv"},
		{&om.perf, "perf.csv"},
		{&om.bookmarks, "bookmarks.csv"},
		{&om.belts, "belts.csv"},
	} {
		l, err := openLog(dir, slot.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*slot.log = l
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends a window to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return appendRows(om.telemetry, []WindowStats{stats})
}

// WritePerf appends a window's phase timings to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return appendRows(om.perf, []PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark appends a bookmark to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return appendRows(om.bookmarks, []Bookmark{b})
}

// WriteBelts appends one row per belt to belts.csv.
func (om *OutputManager) WriteBelts(rows []BeltRecord) error {
	if om == nil {
		return nil
	}
	return appendRows(om.belts, rows)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes every open log.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var errs []error
	for _, l := range []*csvLog{om.telemetry, om.perf, om.bookmarks, om.belts} {
		if l != nil {
			errs = append(errs, l.file.Close())
		}
	}
	return errors.Join(errs...)
}
