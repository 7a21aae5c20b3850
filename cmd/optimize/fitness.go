package main

import (
	"fmt"
	"math"
	"sync"

	"github.com/pthm-cable/beltworks/config"
	"github.com/pthm-cable/beltworks/game"
	"github.com/pthm-cable/beltworks/telemetry"
)

// Scenario is one layout every parameter vector is scored on.
type Scenario struct {
	Name   string
	Layout []config.PlacementConfig
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int32
	warmupSec  float64
	scenarios  []Scenario
	baseConfig *config.Config

	mu          sync.Mutex
	last        evalResult
	bestFitness float64
}

// evalResult aggregates every scenario of one evaluation.
type evalResult struct {
	fitness         float64
	deliveredPerSec float64
	refusalRate     float64
	failed          int
}

// runResult holds the results from a single simulation run.
type runResult struct {
	delivered   int
	measuredSec float64
	windows     []telemetry.WindowStats
	err         error
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, warmupSec float64, scenarios []Scenario, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		warmupSec:   warmupSec,
		scenarios:   scenarios,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// Last returns the aggregate from the most recent evaluation.
func (fe *FitnessEvaluator) Last() evalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean delivery rate across scenarios.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.scenarios))
	var wg sync.WaitGroup

	for i, sc := range fe.scenarios {
		wg.Add(1)
		go func(idx int, sc Scenario) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, sc)
		}(i, sc)
	}
	wg.Wait()

	var agg evalResult
	var rateSum, refusalSum float64
	for _, r := range results {
		if r.err != nil {
			agg.failed++
			continue
		}
		rateSum += r.deliveredPerSec()
		refusalSum += refusalRate(r.windows)
	}

	n := float64(len(fe.scenarios))
	agg.deliveredPerSec = rateSum / n
	agg.refusalRate = refusalSum / n
	agg.fitness = -agg.deliveredPerSec

	fe.mu.Lock()
	fe.last = agg
	if agg.fitness < fe.bestFitness {
		fe.bestFitness = agg.fitness
	}
	fe.mu.Unlock()

	return agg.fitness
}

// runSimulation executes a single headless run of one scenario.
// Deliveries during the warmup are not counted.
func (fe *FitnessEvaluator) runSimulation(x []float64, sc Scenario) runResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	g, err := game.NewGameFromLayout(cfg, sc.Layout)
	if err != nil {
		return runResult{err: fmt.Errorf("scenario %s: %w", sc.Name, err)}
	}
	defer g.Unload()

	var result runResult
	g.SetStatsCallback(func(stats telemetry.WindowStats) {
		result.windows = append(result.windows, stats)
	})

	dt := cfg.Derived.UpdateRate
	warmupTicks := int32(fe.warmupSec / dt)
	warmupDelivered := 0

	for g.Tick() < fe.maxTicks {
		g.Step()
		if g.Tick() == warmupTicks {
			warmupDelivered = g.Totals().Delivered
		}
	}

	result.delivered = g.Totals().Delivered - warmupDelivered
	result.measuredSec = float64(fe.maxTicks-min(warmupTicks, fe.maxTicks)) * dt
	return result
}

func (r runResult) deliveredPerSec() float64 {
	if r.measuredSec <= 0 {
		return 0
	}
	return float64(r.delivered) / r.measuredSec
}

// refusalRate averages the per-window transfer refusal rate.
func refusalRate(windows []telemetry.WindowStats) float64 {
	if len(windows) == 0 {
		return 0
	}
	var sum float64
	for _, w := range windows {
		sum += w.RefusalRate
	}
	return sum / float64(len(windows))
}
