package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_JamOnset(t *testing.T) {
	bd := NewBookmarkDetector(10)

	flowing := WindowStats{WindowEndTick: 600, Transfers: 50, TransferRefused: 2, RefusalRate: 2.0 / 52}
	if hasBookmark(bd.Check(flowing), BookmarkJamOnset) {
		t.Fatal("flowing window should not bookmark a jam")
	}

	jammed := WindowStats{WindowEndTick: 1200, Transfers: 5, TransferRefused: 300, RefusalRate: 300.0 / 305}
	if !hasBookmark(bd.Check(jammed), BookmarkJamOnset) {
		t.Error("expected jam_onset bookmark")
	}

	// Only the onset is bookmarked
	jammed.WindowEndTick = 1800
	if hasBookmark(bd.Check(jammed), BookmarkJamOnset) {
		t.Error("jam_onset should not repeat while jammed")
	}
}

func TestBookmarkDetector_Brownout(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndTick: 600, Generation: 100, Demand: 31, PowerRatio: 1})
	bookmarks := bd.Check(WindowStats{WindowEndTick: 1200, Generation: 50, Demand: 80, PowerRatio: 0.625})

	if !hasBookmark(bookmarks, BookmarkBrownout) {
		t.Error("expected brownout bookmark")
	}
}

func TestBookmarkDetector_ThroughputDip(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 600), DeliveredPerSec: 2.0})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 3000, DeliveredPerSec: 0.5})
	if !hasBookmark(bookmarks, BookmarkThroughputDip) {
		t.Error("expected throughput_dip bookmark")
	}
}

func TestBookmarkDetector_SteadyState(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := 0
	for i := 0; i < 12; i++ {
		stats := WindowStats{WindowEndTick: int32(i * 600), DeliveredPerSec: 1.0}
		if hasBookmark(bd.Check(stats), BookmarkSteadyState) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("expected steady_state exactly once, got %d", fired)
	}
}
