package systems

import "github.com/pthm-cable/beltworks/components"

// endTolerance is how close the lead item must get to EndBound to count as
// arrived. Whole steps of 1/60 s sum to slightly under the bound.
const endTolerance = 1e-9

// StepBelt advances every item on b by one fixed step of dt seconds.
//
// Items are visited from the highest progress down, so each item is clamped
// against the already-updated position of the item ahead of it. The lead item
// tries to leave through down once it reaches EndBound and parks there when
// refused; everything behind it stays at least MinSpacing back. Progress never
// decreases.
func StepBelt(b *components.Belt, dt float64, down Endpoint, ev *Events) {
	b.SortItems()

	delta := b.Speed * dt
	for i := len(b.Items) - 1; i >= 0; i-- {
		it := &b.Items[i]
		next := it.Progress + delta

		if i == len(b.Items)-1 {
			if next >= b.EndBound-endTolerance {
				if TransferOut(*it, down, ev) {
					b.RemoveAt(i)
					continue
				}
				next = b.EndBound
			}
		} else {
			next = min(next, b.Items[i+1].Progress-b.MinSpacing)
		}

		if next > it.Progress {
			it.Progress = next
		}
	}
}

// FixedStep converts variable frame time into whole simulation steps.
// Fractional time carries over to the next frame.
type FixedStep struct {
	Rate float64
	acc  float64
}

// NewFixedStep creates an accumulator for steps of rate seconds.
func NewFixedStep(rate float64) *FixedStep {
	return &FixedStep{Rate: rate}
}

// Add accumulates frame time.
func (f *FixedStep) Add(frameDt float64) {
	if frameDt > 0 {
		f.acc += frameDt
	}
}

// Next consumes one step if a whole step of time is available.
func (f *FixedStep) Next() bool {
	if f.Rate <= 0 || f.acc < f.Rate {
		return false
	}
	f.acc -= f.Rate
	return true
}

// Advance adds frame time and consumes every whole step that is due,
// returning the count.
func (f *FixedStep) Advance(frameDt float64) int {
	f.Add(frameDt)
	n := 0
	for f.Next() {
		n++
	}
	return n
}

// Reset discards any pending time.
func (f *FixedStep) Reset() {
	f.acc = 0
}

// Pending returns the time not yet consumed.
func (f *FixedStep) Pending() float64 {
	return f.acc
}
