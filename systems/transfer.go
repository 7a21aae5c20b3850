package systems

import "github.com/pthm-cable/beltworks/components"

// Endpoint is the capability view of a machine next to a belt. Transfer
// behaviour is chosen by which capabilities are present, not by variant.
// The zero Endpoint means nothing is connected.
type Endpoint struct {
	Output *components.OutputBuffer // Can be pulled from
	Input  *components.InputBuffer  // Can be pushed into
	Belt   *components.Belt         // Belt-like neighbour
}

// Connected reports whether the endpoint exposes any capability.
func (e Endpoint) Connected() bool {
	return e.Output != nil || e.Input != nil || e.Belt != nil
}

// TransferOut hands an item that reached the end of a belt to the
// downstream endpoint. A refusal is the backpressure signal, not an error.
func TransferOut(item components.Item, down Endpoint, ev *Events) bool {
	var ok bool
	switch {
	case down.Input != nil:
		ok = down.Input.Accept(item.Kind, item.Amount)
	case down.Belt != nil:
		ok = down.Belt.AddItem(item.Kind, item.Amount)
	}

	if ev != nil {
		if ok {
			ev.Transfers++
		} else {
			ev.TransferRefused++
		}
	}
	return ok
}

// PickupUpstream pulls at most one unit or item from the upstream endpoint
// onto b. From an output buffer it takes one unit; from another belt it takes
// the tail item once it is within eps of that belt's end bound. The source is
// only debited after b accepted, so the unit is never on both or neither.
func PickupUpstream(b *components.Belt, up Endpoint, eps float64, ev *Events) bool {
	switch {
	case up.Output != nil:
		if up.Output.Count <= 0 {
			return false
		}
		if !b.AddItem(up.Output.Kind, 1) {
			if ev != nil {
				ev.IntakeRefused++
			}
			return false
		}
		up.Output.Count--
		if ev != nil {
			ev.Pickups++
		}
		return true

	case up.Belt != nil:
		tail, ok := up.Belt.Tail()
		if !ok || tail.Progress < up.Belt.EndBound-eps {
			return false
		}
		if !b.AddItem(tail.Kind, tail.Amount) {
			if ev != nil {
				ev.IntakeRefused++
			}
			return false
		}
		up.Belt.PopTail()
		if ev != nil {
			ev.Handoffs++
		}
		return true
	}
	return false
}
