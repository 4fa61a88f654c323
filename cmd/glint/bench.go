package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/glint-dev/glint/internal/config"
	"github.com/glint-dev/glint/pkg/glint"
)

// scenarioResult is one benchmark scenario's outcome.
type scenarioResult struct {
	Name       string  `json:"name"`
	Iterations int     `json:"iterations"`
	TotalMS    float64 `json:"total_ms"`
	OpsPerSec  float64 `json:"ops_per_sec"`
	P50US      float64 `json:"p50_us"`
	P95US      float64 `json:"p95_us"`
	P99US      float64 `json:"p99_us"`
}

func benchCmd() *cobra.Command {
	var (
		jsonOut    bool
		iterations int
		scenario   string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the reactive engine",
		Long: `Run engine micro-benchmarks: plain writes, derivation chains,
observer fanout, and batched write coalescing. Settings come from
glint.json (bench section) and can be overridden with flags.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if iterations > 0 {
				cfg.Bench.Iterations = iterations
			}

			scenarios := map[string]func(config.BenchConfig) scenarioResult{
				"writes": benchWrites,
				"chain":  benchChain,
				"fanout": benchFanout,
				"batch":  benchBatch,
			}

			order := []string{"writes", "chain", "fanout", "batch"}
			if scenario != "" {
				run, ok := scenarios[scenario]
				if !ok {
					return fmt.Errorf("unknown scenario %q", scenario)
				}
				scenarios = map[string]func(config.BenchConfig) scenarioResult{scenario: run}
				order = []string{scenario}
			}

			var results []scenarioResult
			for _, name := range order {
				results = append(results, scenarios[name](cfg.Bench))
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(results)
			}

			printBanner()
			for _, r := range results {
				fmt.Printf("\n  %s (%d iterations)\n", r.Name, r.Iterations)
				fmt.Printf("    total:   %.2f ms\n", r.TotalMS)
				fmt.Printf("    ops/sec: %.0f\n", r.OpsPerSec)
				fmt.Printf("    p50:     %.2f µs\n", r.P50US)
				fmt.Printf("    p95:     %.2f µs\n", r.P95US)
				fmt.Printf("    p99:     %.2f µs\n", r.P99US)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "Override iteration count")
	cmd.Flags().StringVar(&scenario, "scenario", "", "Run a single scenario (writes, chain, fanout, batch)")

	return cmd
}

// benchWrites measures one signal, one observer, one write per cycle.
func benchWrites(cfg config.BenchConfig) scenarioResult {
	e := glint.New()
	defer e.Close()

	count := glint.Declare(e, "count", 0)
	sink := 0
	e.Observe("sink", func() error {
		sink = count.Get()
		return nil
	})

	latencies := make([]time.Duration, 0, cfg.Iterations)
	start := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		t0 := time.Now()
		count.Set(i)
		latencies = append(latencies, time.Since(t0))
	}
	_ = sink

	return report("writes", cfg.Iterations, time.Since(start), latencies)
}

// benchChain measures a write rippling through a derivation chain.
func benchChain(cfg config.BenchConfig) scenarioResult {
	e := glint.New()
	defer e.Close()

	base := glint.Declare(e, "base", 0)

	prev := glint.Derive(e, "link-0", func() (int, error) {
		return base.Get() + 1, nil
	})
	for i := 1; i < cfg.ChainDepth; i++ {
		from := prev
		prev = glint.Derive(e, "link-"+strconv.Itoa(i), func() (int, error) {
			v, err := from.Get()
			return v + 1, err
		})
	}
	tail := prev

	sink := 0
	e.Observe("sink", func() error {
		v, err := tail.Get()
		sink = v
		return err
	})

	latencies := make([]time.Duration, 0, cfg.Iterations)
	start := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		t0 := time.Now()
		base.Set(i)
		latencies = append(latencies, time.Since(t0))
	}
	_ = sink

	return report("chain", cfg.Iterations, time.Since(start), latencies)
}

// benchFanout measures one write fanning out to many observers.
func benchFanout(cfg config.BenchConfig) scenarioResult {
	e := glint.New()
	defer e.Close()

	count := glint.Declare(e, "count", 0)
	sinks := make([]int, cfg.Fanout)
	for i := 0; i < cfg.Fanout; i++ {
		i := i
		e.Observe("sink-"+strconv.Itoa(i), func() error {
			sinks[i] = count.Get()
			return nil
		})
	}

	latencies := make([]time.Duration, 0, cfg.Iterations)
	start := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		t0 := time.Now()
		count.Set(i)
		latencies = append(latencies, time.Since(t0))
	}

	return report("fanout", cfg.Iterations, time.Since(start), latencies)
}

// benchBatch measures ten writes coalesced into one flush per cycle.
func benchBatch(cfg config.BenchConfig) scenarioResult {
	e := glint.New()
	defer e.Close()

	count := glint.Declare(e, "count", 0)
	sink := 0
	e.Observe("sink", func() error {
		sink = count.Get()
		return nil
	})

	latencies := make([]time.Duration, 0, cfg.Iterations)
	start := time.Now()
	for i := 0; i < cfg.Iterations; i++ {
		t0 := time.Now()
		e.Batch(func() {
			for j := 0; j < 10; j++ {
				count.Set(i*10 + j)
			}
		})
		latencies = append(latencies, time.Since(t0))
	}
	_ = sink

	return report("batch", cfg.Iterations, time.Since(start), latencies)
}

func report(name string, iterations int, total time.Duration, latencies []time.Duration) scenarioResult {
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	us := func(d time.Duration) float64 {
		return float64(d) / float64(time.Microsecond)
	}

	return scenarioResult{
		Name:       name,
		Iterations: iterations,
		TotalMS:    float64(total) / float64(time.Millisecond),
		OpsPerSec:  float64(iterations) / total.Seconds(),
		P50US:      us(percentile(latencies, 0.50)),
		P95US:      us(percentile(latencies, 0.95)),
		P99US:      us(percentile(latencies, 0.99)),
	}
}

// percentile returns the p-th percentile of a sorted latency slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
