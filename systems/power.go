package systems

import "github.com/pthm-cable/beltworks/components"

// PowerReport summarises one power distribution pass.
type PowerReport struct {
	Generation float64
	Demand     float64
	Ratio      float64
}

// DistributePower applies a uniform brownout: every machine receives
// PowerDemand scaled by min(1, generation/demand). It must run before
// production evaluates IsRunning for the same tick.
func DistributePower(machines []*components.Machine, generation float64) PowerReport {
	var demand float64
	for _, m := range machines {
		demand += m.PowerDemand
	}

	ratio := 1.0
	if demand > 0 {
		ratio = min(1, generation/demand)
	}

	for _, m := range machines {
		m.CurrentPower = m.PowerDemand * ratio
	}

	return PowerReport{Generation: generation, Demand: demand, Ratio: ratio}
}
