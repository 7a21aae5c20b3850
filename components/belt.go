package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Shape is the path a belt moves items along.
type Shape uint8

const (
	ShapeStraight Shape = iota
	ShapeCurveLeft
	ShapeCurveRight
	ShapeRampUp
	ShapeRampDown
	ShapeMerger
	ShapeSplitter
	ShapeCrossing
)

var shapeNames = []string{"straight", "curve_left", "curve_right", "ramp_up", "ramp_down", "merger", "splitter", "crossing"}

// String returns the persisted tag of the shape.
func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unknown"
}

// ParseShape parses a shape tag (case-insensitive).
func ParseShape(s string) (Shape, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range shapeNames {
		if name == s {
			return Shape(i), true
		}
	}
	return ShapeStraight, false
}

// Item is a stack of resource units riding a belt.
// Progress is compared directly against the belt bounds, it is not normalized.
type Item struct {
	Kind     string
	Amount   int
	Progress float64
}

// Belt is the transport capability. The belt exclusively owns Items, kept
// sorted ascending by Progress. Upstream and Downstream are lookup handles
// into the machine registry; a zero entity means no connection.
type Belt struct {
	Shape       Shape
	Direction   r3.Vec
	Speed       float64
	SpawnBound  float64
	EndBound    float64
	MinSpacing  float64
	MaxItems    int
	CurveRadius float64
	Length      float64
	Height      float64
	RampRise    float64

	Items []Item

	Upstream   ecs.Entity
	Downstream ecs.Entity
}

// Full reports whether the belt holds its maximum number of items.
func (b *Belt) Full() bool {
	return len(b.Items) >= b.MaxItems
}

// SortItems restores ascending progress order.
func (b *Belt) SortItems() {
	sort.SliceStable(b.Items, func(i, j int) bool {
		return b.Items[i].Progress < b.Items[j].Progress
	})
}

// MinProgress returns the progress of the rearmost item.
func (b *Belt) MinProgress() (float64, bool) {
	if len(b.Items) == 0 {
		return 0, false
	}
	return b.Items[0].Progress, true
}

// CanAccept reports whether AddItem would succeed right now.
func (b *Belt) CanAccept() bool {
	if len(b.Items) >= b.MaxItems {
		return false
	}
	if minP, ok := b.MinProgress(); ok && minP-b.SpawnBound < b.MinSpacing {
		return false
	}
	return true
}

// AddItem places a new item at the spawn bound. It refuses, without error,
// when the belt is full or the rearmost item is closer than MinSpacing.
func (b *Belt) AddItem(kind string, amount int) bool {
	if !b.CanAccept() {
		return false
	}
	b.Items = append(b.Items, Item{})
	copy(b.Items[1:], b.Items)
	b.Items[0] = Item{Kind: kind, Amount: amount, Progress: b.SpawnBound}
	return true
}

// Tail returns the item with the highest progress.
func (b *Belt) Tail() (Item, bool) {
	if len(b.Items) == 0 {
		return Item{}, false
	}
	return b.Items[len(b.Items)-1], true
}

// PopTail removes and returns the item with the highest progress.
func (b *Belt) PopTail() (Item, bool) {
	it, ok := b.Tail()
	if !ok {
		return Item{}, false
	}
	b.Items = b.Items[:len(b.Items)-1]
	return it, true
}

// RemoveAt removes the item at index i, keeping order.
func (b *Belt) RemoveAt(i int) {
	b.Items = append(b.Items[:i], b.Items[i+1:]...)
}

// EnforceSpacing restores the spacing and capacity invariants after the
// items or MinSpacing changed from outside transport. Items are kept from the
// lead backwards: the lead is clamped to EndBound, any item closer than
// MinSpacing (within tol) to the kept item ahead is dropped, and at most
// MaxItems survive. It returns the number of items dropped.
func (b *Belt) EnforceSpacing(tol float64) int {
	b.SortItems()

	kept := make([]Item, 0, len(b.Items))
	for i := len(b.Items) - 1; i >= 0 && len(kept) < b.MaxItems; i-- {
		it := b.Items[i]
		it.Progress = min(it.Progress, b.EndBound)
		if n := len(kept); n > 0 && kept[n-1].Progress-it.Progress < b.MinSpacing-tol {
			continue
		}
		kept = append(kept, it)
	}
	// kept is lead-first
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	dropped := len(b.Items) - len(kept)
	b.Items = kept
	return dropped
}

// CheckInvariants verifies ordering, spacing (within tol) and capacity.
func (b *Belt) CheckInvariants(tol float64) error {
	if len(b.Items) > b.MaxItems {
		return fmt.Errorf("belt holds %d items, max %d", len(b.Items), b.MaxItems)
	}
	for i := 1; i < len(b.Items); i++ {
		gap := b.Items[i].Progress - b.Items[i-1].Progress
		if gap < 0 {
			return fmt.Errorf("items %d and %d out of order", i-1, i)
		}
		if gap < b.MinSpacing-tol {
			return fmt.Errorf("items %d and %d spaced %.6f, min %.6f", i-1, i, gap, b.MinSpacing)
		}
	}
	return nil
}
