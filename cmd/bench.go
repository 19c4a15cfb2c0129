package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/zipsearch/internal/engine"
	"github.com/sells-group/zipsearch/internal/index"
)

var benchReportPath string

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark query latency against a built container",
	Long:  "Runs a concurrent random mix of zip, city/state, prefix, and radius queries over the loaded engine and reports latency percentiles.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := index.Load(containerPath())
		if err != nil {
			return err
		}
		e := engine.NewFromContainer(c)
		defer e.Close()

		samples := collectSamples(c)
		if len(samples.codes) == 0 {
			return eris.New("bench: container has no records")
		}

		report, err := runBench(ctx, e, samples, cfg.Bench.Workers, cfg.Bench.Requests, cfg.Bench.RatePerS)
		if err != nil {
			return err
		}

		fmt.Printf("requests:  %d across %d workers in %s\n", report.Requests, report.Workers, report.Elapsed)
		fmt.Printf("throughput: %.0f lookups/s\n", report.PerSecond)
		for _, op := range report.Ops {
			fmt.Printf("%-10s p50=%s p95=%s p99=%s\n", op.Name, op.P50, op.P95, op.P99)
		}

		if benchReportPath != "" {
			data, err := yaml.Marshal(report)
			if err != nil {
				return eris.Wrap(err, "bench: marshal report")
			}
			if err := os.WriteFile(benchReportPath, data, 0o644); err != nil {
				return eris.Wrapf(err, "bench: write report %s", benchReportPath)
			}
			zap.L().Info("bench report written", zap.String("path", benchReportPath))
		}
		return nil
	},
}

// benchSamples holds query inputs drawn from the container so the benchmark
// exercises real keys rather than guaranteed misses.
type benchSamples struct {
	codes  []string
	pairs  []engine.CityStatePair
	coords [][2]float64
}

func collectSamples(c *index.Container) benchSamples {
	var s benchSamples
	for code := range c.ZipcodeIndex {
		s.codes = append(s.codes, code)
	}
	sort.Strings(s.codes)
	for _, entry := range c.CityStateIndex {
		s.pairs = append(s.pairs, engine.CityStatePair{City: entry.City, State: entry.State})
	}
	for _, g := range c.CoordinateGrid {
		for _, rec := range g.Records {
			s.coords = append(s.coords, [2]float64{*rec.Lat, *rec.Lng})
		}
	}
	return s
}

// benchOpReport holds latency percentiles for one operation type.
type benchOpReport struct {
	Name  string        `yaml:"name"`
	Count int           `yaml:"count"`
	P50   time.Duration `yaml:"p50"`
	P95   time.Duration `yaml:"p95"`
	P99   time.Duration `yaml:"p99"`
}

// benchReport is the YAML report emitted by --report.
type benchReport struct {
	BuildID   string          `yaml:"build_id"`
	Workers   int             `yaml:"workers"`
	Requests  int             `yaml:"requests"`
	Elapsed   time.Duration   `yaml:"elapsed"`
	PerSecond float64         `yaml:"per_second"`
	Ops       []benchOpReport `yaml:"ops"`
}

var benchOpNames = []string{"zip", "citystate", "prefix", "radius"}

func runBench(ctx context.Context, e *engine.Engine, samples benchSamples, workers, requests int, ratePerS float64) (*benchReport, error) {
	if workers <= 0 {
		workers = 1
	}

	var limiter *rate.Limiter
	if ratePerS > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerS), workers)
	}

	perWorker := make([]map[string][]time.Duration, workers)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		durations := make(map[string][]time.Duration)
		perWorker[w] = durations
		seed := int64(w + 1)

		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < requests/workers; i++ {
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						return eris.Wrap(err, "bench: rate limiter")
					}
				} else if gctx.Err() != nil {
					return eris.Wrap(gctx.Err(), "bench: cancelled")
				}

				op := benchOpNames[i%len(benchOpNames)]
				t0 := time.Now()
				switch op {
				case "zip":
					e.ByZipcode(samples.codes[rng.Intn(len(samples.codes))])
				case "citystate":
					if len(samples.pairs) > 0 {
						p := samples.pairs[rng.Intn(len(samples.pairs))]
						e.ByCityAndState(p.City, p.State)
					}
				case "prefix":
					code := samples.codes[rng.Intn(len(samples.codes))]
					e.ByPrefix(code[:3])
				case "radius":
					if len(samples.coords) > 0 {
						pt := samples.coords[rng.Intn(len(samples.coords))]
						e.ByCoordinates(pt[0], pt[1], 10.0)
					}
				}
				durations[op] = append(durations[op], time.Since(t0))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	// Merge per-worker samples.
	merged := make(map[string][]time.Duration)
	total := 0
	for _, durations := range perWorker {
		for op, ds := range durations {
			merged[op] = append(merged[op], ds...)
			total += len(ds)
		}
	}

	report := &benchReport{
		BuildID:   e.Manifest().BuildID,
		Workers:   workers,
		Requests:  total,
		Elapsed:   elapsed.Round(time.Millisecond),
		PerSecond: float64(total) / elapsed.Seconds(),
	}
	for _, op := range benchOpNames {
		ds := merged[op]
		if len(ds) == 0 {
			continue
		}
		sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
		report.Ops = append(report.Ops, benchOpReport{
			Name:  op,
			Count: len(ds),
			P50:   percentile(ds, 0.50),
			P95:   percentile(ds, 0.95),
			P99:   percentile(ds, 0.99),
		})
	}
	return report, nil
}

// percentile returns the p-th percentile of sorted durations.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func init() {
	benchCmd.Flags().StringVar(&benchReportPath, "report", "", "write a YAML report to this path")
	rootCmd.AddCommand(benchCmd)
}
