package systems

import (
	"testing"

	"github.com/pthm-cable/beltworks/components"
)

func TestPickupUpstream_FromOutputBuffer(t *testing.T) {
	b := newTestBelt()
	out := &components.OutputBuffer{Kind: "Ore", Count: 2, Capacity: 10}

	var ev Events
	if !PickupUpstream(b, Endpoint{Output: out}, 1e-3, &ev) {
		t.Fatal("expected pickup to succeed")
	}
	if out.Count != 1 {
		t.Errorf("expected output buffer debited to 1, got %d", out.Count)
	}
	if len(b.Items) != 1 || b.Items[0].Kind != "Ore" || b.Items[0].Amount != 1 {
		t.Errorf("unexpected belt items %+v", b.Items)
	}
	if ev.Pickups != 1 {
		t.Errorf("expected 1 pickup event, got %d", ev.Pickups)
	}
}

func TestPickupUpstream_EmptyOutputBuffer(t *testing.T) {
	b := newTestBelt()
	out := &components.OutputBuffer{Kind: "Ore", Capacity: 10}

	if PickupUpstream(b, Endpoint{Output: out}, 1e-3, nil) {
		t.Error("pickup from empty buffer should fail")
	}
	if len(b.Items) != 0 {
		t.Errorf("belt should stay empty, got %+v", b.Items)
	}
}

func TestPickupUpstream_RefusedLeavesSourceIntact(t *testing.T) {
	b := newTestBelt()
	b.Items = []components.Item{{Progress: -0.4}}
	out := &components.OutputBuffer{Kind: "Ore", Count: 3, Capacity: 10}

	var ev Events
	if PickupUpstream(b, Endpoint{Output: out}, 1e-3, &ev) {
		t.Fatal("pickup should be refused by spacing")
	}
	if out.Count != 3 {
		t.Errorf("refused pickup must not debit the source, got %d", out.Count)
	}
	if ev.IntakeRefused != 1 {
		t.Errorf("expected refused intake to be counted, got %d", ev.IntakeRefused)
	}
}

func TestPickupUpstream_BeltHandoffIsAtomic(t *testing.T) {
	eps := 1e-3
	tests := []struct {
		name      string
		tail      float64
		bFull     bool
		wantMoved bool
	}{
		{"tail at end bound", 1.5, false, true},
		{"tail within epsilon", 1.5 - eps/2, false, true},
		{"tail short of epsilon", 1.5 - 2*eps, false, false},
		{"receiver full", 1.5, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestBelt()
			b := newTestBelt()
			a.Items = []components.Item{{Kind: "Ore", Amount: 1, Progress: 0.2}, {Kind: "Plate", Amount: 1, Progress: tt.tail}}
			if tt.bFull {
				b.MaxItems = 1
				b.Items = []components.Item{{Progress: 1.0}}
			}
			beforeA, beforeB := len(a.Items), len(b.Items)

			moved := PickupUpstream(b, Endpoint{Belt: a}, eps, nil)

			if moved != tt.wantMoved {
				t.Fatalf("moved = %v, want %v", moved, tt.wantMoved)
			}
			// The item is on exactly one belt either way
			if len(a.Items)+len(b.Items) != beforeA+beforeB {
				t.Errorf("item count not conserved: a=%d b=%d", len(a.Items), len(b.Items))
			}
			if moved {
				if len(a.Items) != beforeA-1 || b.Items[0].Kind != "Plate" {
					t.Errorf("tail item not handed over: a=%v b=%v", a.Items, b.Items)
				}
			} else if len(a.Items) != beforeA {
				t.Errorf("upstream lost an item without hand-off")
			}
		})
	}
}

func TestTransferOut_Capabilities(t *testing.T) {
	item := components.Item{Kind: "Ore", Amount: 2, Progress: 1.5}

	tests := []struct {
		name string
		ep   func() Endpoint
		want bool
	}{
		{"no downstream", func() Endpoint { return Endpoint{} }, false},
		{"input with room", func() Endpoint {
			return Endpoint{Input: &components.InputBuffer{Capacity: 10}}
		}, true},
		{"input without room for amount", func() Endpoint {
			return Endpoint{Input: &components.InputBuffer{Count: 9, Capacity: 10}}
		}, false},
		{"input wrong kind", func() Endpoint {
			return Endpoint{Input: &components.InputBuffer{Accepts: "Coal", Capacity: 10}}
		}, false},
		{"producer only", func() Endpoint {
			return Endpoint{Output: &components.OutputBuffer{Kind: "Ore", Capacity: 10}}
		}, false},
		{"next belt", func() Endpoint { return Endpoint{Belt: newTestBelt()} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TransferOut(item, tt.ep(), nil); got != tt.want {
				t.Errorf("TransferOut() = %v, want %v", got, tt.want)
			}
		})
	}
}
