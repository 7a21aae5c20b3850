// Package components defines ECS components for the factory simulation.
//
// Every placed machine is an entity carrying Position and Machine. What a
// machine can do is expressed by the optional capability components it also
// carries (OutputBuffer, InputBuffer, Belt, ...), never by a concrete type.
package components

import "strings"

// Variant identifies the kind of machine that was placed.
type Variant uint8

const (
	VariantProducer  Variant = iota // Generates resources into an output buffer
	VariantConverter                // Consumes input, produces output (furnace)
	VariantStorage                  // Consumes input into a delivered counter
	VariantGenerator                // Supplies power
	VariantBelt                     // Conveyor belt
)

var variantNames = []string{"producer", "converter", "storage", "generator", "belt"}

// String returns the lowercase variant name.
func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return "unknown"
}

// ParseVariant parses a variant name (case-insensitive).
func ParseVariant(s string) (Variant, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range variantNames {
		if name == s {
			return Variant(i), true
		}
	}
	return 0, false
}

// Machine holds the production state shared by every machine, belts included.
type Machine struct {
	Variant         Variant
	ManuallyEnabled bool
	Running         bool    // Derived each tick, see IsRunning
	PowerDemand     float64 // Power needed to run
	CurrentPower    float64 // Power assigned this tick
	CycleTime       float64 // Seconds per production cycle (0 = no cycle)
	CycleTimer      float64 // Seconds accumulated in the current cycle
	Cycles          uint64  // Completed cycles
}

// IsRunning reports whether the machine is switched on and fully powered.
func (m *Machine) IsRunning() bool {
	return m.ManuallyEnabled && m.CurrentPower >= m.PowerDemand
}

// OutputBuffer is the producer capability: units waiting to be picked up.
type OutputBuffer struct {
	Kind     string
	Count    int
	Capacity int
}

// Full reports whether no more units fit.
func (o *OutputBuffer) Full() bool {
	return o.Count >= o.Capacity
}

// InputBuffer is the consumer capability: room for incoming units.
// An empty Accepts admits any resource kind.
type InputBuffer struct {
	Accepts  string
	Count    int
	Capacity int
}

// Room reports whether amount units of kind fit.
func (in *InputBuffer) Room(kind string, amount int) bool {
	if in.Accepts != "" && in.Accepts != kind {
		return false
	}
	return in.Count+amount <= in.Capacity
}

// Accept adds amount units of kind if they fit.
func (in *InputBuffer) Accept(kind string, amount int) bool {
	if !in.Room(kind, amount) {
		return false
	}
	in.Count += amount
	return true
}

// Recipe is the per-cycle conversion of a converter.
type Recipe struct {
	Consume int
	Produce int
}

// Generator supplies power to the whole floor.
type Generator struct {
	Output float64
}

// Storage counts units consumed by a sink.
type Storage struct {
	Delivered int
}
