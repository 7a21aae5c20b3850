package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkJamOnset      BookmarkType = "jam_onset"
	BookmarkBrownout      BookmarkType = "brownout"
	BookmarkThroughputDip BookmarkType = "throughput_dip"
	BookmarkSteadyState   BookmarkType = "steady_state"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments on the floor.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	jammed             bool // last window was over the refusal threshold
	brownedOut         bool // last window ran below full power
	steadyWindowsCount int  // consecutive windows with stable delivery
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady state detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Jam onset: most end-of-belt transfers refused
	if b := bd.checkJamOnset(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Brownout: generation fell below demand
	if b := bd.checkBrownout(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Throughput dip: delivery rate < half the rolling average
		if b := bd.checkThroughputDip(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Steady state: delivery rate with low variance over 5 windows
		if b := bd.checkSteadyState(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkJamOnset(stats WindowStats) *Bookmark {
	jammed := stats.RefusalRate > 0.5 && stats.TransferRefused >= 10
	wasJammed := bd.jammed
	bd.jammed = jammed
	if !jammed || wasJammed {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkJamOnset,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%.0f%% of transfers refused (%d)", stats.RefusalRate*100, stats.TransferRefused),
	}
}

func (bd *BookmarkDetector) checkBrownout(stats WindowStats) *Bookmark {
	browned := stats.Demand > 0 && stats.PowerRatio < 1
	wasBrowned := bd.brownedOut
	bd.brownedOut = browned
	if !browned || wasBrowned {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkBrownout,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Power ratio %.3f (generation %.1f, demand %.1f)", stats.PowerRatio, stats.Generation, stats.Demand),
	}
}

func (bd *BookmarkDetector) checkThroughputDip(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.DeliveredPerSec
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.DeliveredPerSec < avg*0.5 {
		return &Bookmark{
			Type:        BookmarkThroughputDip,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Delivery %.2f/s is %.0f%% of average (%.2f/s)", stats.DeliveredPerSec, stats.DeliveredPerSec/avg*100, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSteadyState(stats WindowStats) *Bookmark {
	if stats.DeliveredPerSec <= 0 {
		bd.steadyWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.DeliveredPerSec
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.DeliveredPerSec - mean
		variance += d * d
	}
	variance /= 4

	// CV^2 < 0.01 means CV < 0.1
	if mean > 0 && variance/(mean*mean) < 0.01 {
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteadyState,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Steady delivery at %.2f/s over 5+ windows", stats.DeliveredPerSec),
		}
	}

	return nil
}
