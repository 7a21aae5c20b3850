// Package main provides CMA-ES tuning of belt and machine timing for
// maximum delivered throughput.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/beltworks/config"
)

// evalRecord is one row of optimize_log.csv.
type evalRecord struct {
	Eval               int     `csv:"eval"`
	Fitness            float64 `csv:"fitness"`
	DeliveredPerSec    float64 `csv:"delivered_per_sec"`
	RefusalRate        float64 `csv:"refusal_rate"`
	FailedScenarios    int     `csv:"failed_scenarios"`
	BeltSpeed          float64 `csv:"belt_speed"`
	BeltMinSpacing     float64 `csv:"belt_min_spacing"`
	ProducerCycleTime  float64 `csv:"producer_cycle_time"`
	ConverterCycleTime float64 `csv:"converter_cycle_time"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	layouts := flag.String("layouts", "", "Comma-separated config files whose layouts are scored alongside the base layout")
	maxTicks := flag.Int("max-ticks", 36000, "Simulation duration in ticks per run")
	warmup := flag.Float64("warmup", 10, "Seconds of simulated time excluded from the delivery rate")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	scenarios := []Scenario{{Name: "base", Layout: baseCfg.Layout}}
	for _, path := range strings.Split(*layouts, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		cfg, err := config.Load(path)
		if err != nil {
			log.Fatalf("failed to load layout %s: %v", path, err)
		}
		scenarios = append(scenarios, Scenario{Name: filepath.Base(path), Layout: cfg.Layout})
	}

	params := NewParamVector(baseCfg)
	evaluator := NewFitnessEvaluator(params, int32(*maxTicks), *warmup, scenarios, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation; scenarios run in parallel
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			fitness := evaluator.Evaluate(raw)
			evalCount++

			clamped := params.Clamp(raw)
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = append([]float64(nil), clamped...)
			}

			last := evaluator.Last()
			rec := []evalRecord{{
				Eval:               evalCount,
				Fitness:            fitness,
				DeliveredPerSec:    last.deliveredPerSec,
				RefusalRate:        last.refusalRate,
				FailedScenarios:    last.failed,
				BeltSpeed:          clamped[0],
				BeltMinSpacing:     clamped[1],
				ProducerCycleTime:  clamped[2],
				ConverterCycleTime: clamped[3],
			}}
			var werr error
			if evalCount == 1 {
				werr = gocsv.Marshal(rec, logFile)
			} else {
				werr = gocsv.MarshalWithoutHeaders(rec, logFile)
			}
			if werr != nil {
				log.Printf("failed to log evaluation %d: %v", evalCount, werr)
			}

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

			fmt.Printf("Eval %d/%d: delivered=%.3f/s refusals=%.2f (best=%.3f/s) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, last.deliveredPerSec, last.refusalRate, -bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Scenarios: %d, ticks per run: %d\n", len(scenarios), *maxTicks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	// Best params may come from any evaluation, not just the final one
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	totalTime := time.Since(startTime)
	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(totalTime))
	fmt.Printf("Best delivery rate: %.3f/s\n", -bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
