package systems

import (
	"math"
	"reflect"
	"testing"

	"github.com/pthm-cable/beltworks/components"
)

const stepDT = 1.0 / 60.0

// newTestBelt returns the reference belt used across transport tests.
func newTestBelt() *components.Belt {
	return &components.Belt{
		Shape:      components.ShapeStraight,
		Speed:      1.0,
		SpawnBound: -0.5,
		EndBound:   1.5,
		MinSpacing: 0.33,
		MaxItems:   6,
		Length:     1.0,
	}
}

// ---------- Intake ----------

func TestAddItem_EmptyBeltSpawnsAtSpawnBound(t *testing.T) {
	b := newTestBelt()
	if !b.AddItem("Ore", 1) {
		t.Fatal("expected AddItem to succeed on empty belt")
	}
	if len(b.Items) != 1 || b.Items[0].Progress != -0.5 {
		t.Errorf("expected one item at -0.5, got %+v", b.Items)
	}
}

func TestAddItem_SpacingGate(t *testing.T) {
	b := newTestBelt()
	b.Items = []components.Item{{Kind: "Ore", Amount: 1, Progress: 1.0}}

	if !b.AddItem("Ore", 1) {
		t.Fatal("distance 1.5 >= 0.33 should accept")
	}

	b = newTestBelt()
	b.Items = []components.Item{{Kind: "Ore", Amount: 1, Progress: -0.3}}
	if b.AddItem("Ore", 1) {
		t.Error("distance 0.2 < 0.33 should refuse")
	}
	if len(b.Items) != 1 {
		t.Errorf("refused intake changed the belt: %+v", b.Items)
	}
}

func TestAddItem_CapacityGate(t *testing.T) {
	b := newTestBelt()
	b.MaxItems = 2
	b.Items = []components.Item{{Progress: 0.5}, {Progress: 1.2}}

	if b.AddItem("Ore", 1) {
		t.Error("full belt should refuse intake")
	}
	if len(b.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(b.Items))
	}
}

// ---------- Advancement ----------

func TestStepBelt_ParksWithoutDownstream(t *testing.T) {
	b := newTestBelt()
	b.AddItem("Ore", 1)

	// Exactly 2.0 s of frames
	fs := NewFixedStep(stepDT)
	steps := 0
	for i := 0; i < 120; i++ {
		steps += fs.Advance(stepDT)
	}
	if steps != 120 {
		t.Fatalf("expected 120 steps, got %d", steps)
	}
	var ev Events
	for i := 0; i < steps; i++ {
		StepBelt(b, stepDT, Endpoint{}, &ev)
	}
	if ev.TransferRefused != 1 {
		t.Errorf("expected one refused transfer on arrival, got %d", ev.TransferRefused)
	}

	if len(b.Items) != 1 {
		t.Fatalf("item should stay on belt, got %d items", len(b.Items))
	}
	if b.Items[0].Progress != 1.5 {
		t.Errorf("expected item parked at 1.5, got %.6f", b.Items[0].Progress)
	}
}

func TestStepBelt_TransfersIntoConverter(t *testing.T) {
	b := newTestBelt()
	b.Items = []components.Item{{Kind: "Ore", Amount: 1, Progress: 1.5}}
	in := &components.InputBuffer{Capacity: 10}

	var ev Events
	StepBelt(b, stepDT, Endpoint{Input: in}, &ev)

	if in.Count != 1 {
		t.Errorf("expected converter input 1, got %d", in.Count)
	}
	if len(b.Items) != 0 {
		t.Errorf("expected item removed, got %+v", b.Items)
	}
	if ev.Transfers != 1 || ev.TransferRefused != 0 {
		t.Errorf("unexpected events %+v", ev)
	}
}

func TestStepBelt_RefusedTransferParks(t *testing.T) {
	b := newTestBelt()
	b.Items = []components.Item{{Kind: "Ore", Amount: 1, Progress: 1.49}}
	in := &components.InputBuffer{Count: 10, Capacity: 10}

	var ev Events
	StepBelt(b, stepDT, Endpoint{Input: in}, &ev)

	if len(b.Items) != 1 || b.Items[0].Progress != 1.5 {
		t.Errorf("expected item parked at end bound, got %+v", b.Items)
	}
	if ev.TransferRefused != 1 {
		t.Errorf("expected one refused transfer, got %d", ev.TransferRefused)
	}
}

func TestStepBelt_PushesOntoNextBelt(t *testing.T) {
	a := newTestBelt()
	next := newTestBelt()
	a.Items = []components.Item{{Kind: "Ore", Amount: 2, Progress: 1.5}}

	StepBelt(a, stepDT, Endpoint{Belt: next}, nil)

	if len(a.Items) != 0 || len(next.Items) != 1 {
		t.Fatalf("expected item moved to next belt, a=%v next=%v", a.Items, next.Items)
	}
	if next.Items[0].Amount != 2 || next.Items[0].Progress != next.SpawnBound {
		t.Errorf("unexpected item on next belt: %+v", next.Items[0])
	}
}

func TestStepBelt_SortsBeforeAdvancing(t *testing.T) {
	b := newTestBelt()
	b.Items = []components.Item{{Progress: 1.0}, {Progress: 0.0}}

	StepBelt(b, stepDT, Endpoint{}, nil)

	if b.Items[0].Progress > b.Items[1].Progress {
		t.Errorf("items not sorted after step: %+v", b.Items)
	}
}

// ---------- Invariants ----------

// feedAndStep runs a blocked belt that is fed whenever intake allows.
func feedAndStep(b *components.Belt, steps int, check func(step int)) {
	for i := 0; i < steps; i++ {
		b.AddItem("Ore", 1)
		StepBelt(b, stepDT, Endpoint{}, nil)
		if check != nil {
			check(i)
		}
	}
}

func TestStepBelt_SpacingAndCapacityInvariant(t *testing.T) {
	b := newTestBelt()
	feedAndStep(b, 600, func(step int) {
		if err := b.CheckInvariants(1e-9); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	})
}

func TestStepBelt_ProgressNeverDecreases(t *testing.T) {
	b := newTestBelt()
	b.Items = []components.Item{{Progress: -0.5}, {Progress: 0.2}, {Progress: 1.0}}

	for i := 0; i < 300; i++ {
		before := make([]float64, len(b.Items))
		for j, it := range b.Items {
			before[j] = it.Progress
		}
		StepBelt(b, stepDT, Endpoint{}, nil)
		for j, it := range b.Items {
			if it.Progress < before[j] {
				t.Fatalf("step %d: item %d moved back from %.6f to %.6f", i, j, before[j], it.Progress)
			}
		}
	}
}

func TestStepBelt_BackpressureStacksAtSpacing(t *testing.T) {
	b := newTestBelt()
	feedAndStep(b, 1200, nil)

	if len(b.Items) != b.MaxItems {
		t.Fatalf("expected belt to fill to %d, got %d", b.MaxItems, len(b.Items))
	}
	lead := len(b.Items) - 1
	for k := 0; k <= lead; k++ {
		want := b.EndBound - float64(k)*b.MinSpacing
		got := b.Items[lead-k].Progress
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("item %d behind lead at %.6f, want %.6f", k, got, want)
		}
		if got > want+1e-9 {
			t.Errorf("item %d exceeded its backpressure bound", k)
		}
	}
}

func TestStepBelt_Deterministic(t *testing.T) {
	frames := []float64{0.016, 0.021, 0.005, 0.033, 0.017, 0.0166, 0.04}

	run := func() []components.Item {
		b := newTestBelt()
		fs := NewFixedStep(stepDT)
		for i := 0; i < 200; i++ {
			n := fs.Advance(frames[i%len(frames)])
			for s := 0; s < n; s++ {
				b.AddItem("Ore", 1)
				StepBelt(b, stepDT, Endpoint{}, nil)
			}
		}
		return b.Items
	}

	a, c := run(), run()
	if !reflect.DeepEqual(a, c) {
		t.Errorf("runs diverged:\n%v\n%v", a, c)
	}
}

// ---------- FixedStep ----------

func TestFixedStep_CarriesFraction(t *testing.T) {
	fs := NewFixedStep(0.1)

	if n := fs.Advance(0.25); n != 2 {
		t.Errorf("expected 2 steps, got %d", n)
	}
	if math.Abs(fs.Pending()-0.05) > 1e-12 {
		t.Errorf("expected 0.05 pending, got %f", fs.Pending())
	}
	if n := fs.Advance(0.06); n != 1 {
		t.Errorf("expected carried time to complete a step, got %d", n)
	}
}

func TestFixedStep_NextConsumesOne(t *testing.T) {
	fs := NewFixedStep(0.1)
	fs.Add(0.35)

	taken := 0
	for taken < 2 && fs.Next() {
		taken++
	}
	if taken != 2 {
		t.Fatalf("expected 2 steps taken, got %d", taken)
	}
	if !fs.Next() {
		t.Error("backlog step should remain available")
	}
	if fs.Next() {
		t.Error("no whole step should remain")
	}
}

func TestFixedStep_ResetDropsBacklog(t *testing.T) {
	fs := NewFixedStep(0.1)
	fs.Add(0.35)
	fs.Reset()

	if fs.Pending() != 0 || fs.Next() {
		t.Errorf("expected no pending time after reset, have %v", fs.Pending())
	}
}

// ---------- Spacing repair ----------

func TestEnforceSpacing(t *testing.T) {
	tests := []struct {
		name    string
		spacing float64
		max     int
		items   []float64
		want    []float64
	}{
		{"already valid", 0.33, 6, []float64{0.1, 0.5, 1.0}, []float64{0.1, 0.5, 1.0}},
		{"raised spacing drops from the lead back", 0.5, 6, []float64{-0.15, 0.18, 0.51, 0.84, 1.17, 1.5}, []float64{0.18, 0.84, 1.5}},
		{"lead clamped to end bound", 0.33, 6, []float64{0.2, 2.5}, []float64{0.2, 1.5}},
		{"capacity keeps the lead items", 0.33, 2, []float64{0.0, 0.5, 1.0}, []float64{0.5, 1.0}},
		{"unsorted input", 0.33, 6, []float64{1.4, 0.2, 1.3}, []float64{0.2, 1.4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBelt()
			b.MinSpacing = tt.spacing
			b.MaxItems = tt.max
			for _, p := range tt.items {
				b.Items = append(b.Items, components.Item{Kind: "Ore", Amount: 1, Progress: p})
			}

			dropped := b.EnforceSpacing(1e-9)

			var got []float64
			for _, it := range b.Items {
				got = append(got, it.Progress)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("items %v, want %v", got, tt.want)
			}
			if dropped != len(tt.items)-len(tt.want) {
				t.Errorf("dropped %d, want %d", dropped, len(tt.items)-len(tt.want))
			}
			if err := b.CheckInvariants(1e-9); err != nil {
				t.Error(err)
			}
		})
	}
}
