package systems

// Events counts what happened during one or more ticks.
// A nil *Events is valid and records nothing.
type Events struct {
	Produced        int // Units created by producers
	Converted       int // Converter cycles that ran
	Delivered       int // Units consumed by storage
	Pickups         int // Units pulled from an output buffer onto a belt
	Handoffs        int // Items pulled from an upstream belt's tail
	Transfers       int // Items that left a belt at its end
	IntakeRefused   int // Pickups refused by capacity or spacing
	TransferRefused int // End-of-belt transfers refused (backpressure)
}

// Add accumulates other into e.
func (e *Events) Add(other Events) {
	if e == nil {
		return
	}
	e.Produced += other.Produced
	e.Converted += other.Converted
	e.Delivered += other.Delivered
	e.Pickups += other.Pickups
	e.Handoffs += other.Handoffs
	e.Transfers += other.Transfers
	e.IntakeRefused += other.IntakeRefused
	e.TransferRefused += other.TransferRefused
}
