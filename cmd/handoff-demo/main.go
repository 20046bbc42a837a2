// Command handoff-demo moves generated items from feeders to drainers through a
// bounded queue and prints what arrived.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ygrebnov/handoff"
	"github.com/ygrebnov/handoff/metrics"
)

type options struct {
	demo         string
	capacity     int
	feeders      int
	drainers     int
	items        int
	pollInterval time.Duration
	verbosity    int
	stopOnError  bool
}

// scenario is one orchestrated run: a queue capacity, named sources and drainer count.
type scenario struct {
	title    string
	capacity int
	sources  map[string][]string
	order    []string
	drainers int
}

func main() {
	var opts options
	pflag.StringVar(&opts.demo, "demo", "all", "Demo to run: single, multi, all or custom (uses the sizing flags)")
	pflag.IntVar(&opts.capacity, "capacity", 5, "Queue capacity (custom demo)")
	pflag.IntVar(&opts.feeders, "feeders", 2, "Number of feeders (custom demo)")
	pflag.IntVar(&opts.drainers, "drainers", 2, "Number of drainers (custom demo)")
	pflag.IntVar(&opts.items, "items", 7, "Items generated per feeder (custom demo)")
	pflag.DurationVar(&opts.pollInterval, "poll-interval", 50*time.Millisecond, "Drainer poll interval")
	pflag.IntVarP(&opts.verbosity, "verbosity", "v", 2, "Log verbosity (0-5)")
	pflag.BoolVar(&opts.stopOnError, "stop-on-error", false, "Stop all feeders after the first source failure")
	pflag.Parse()

	scenarios, err := selectScenarios(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		pflag.Usage()
		os.Exit(2)
	}

	logger, flush, err := newLogger(opts.verbosity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, sc := range scenarios {
		if err := run(ctx, logger, opts, sc); err != nil {
			logger.Error(err, "Demo failed", "demo", sc.title)
			flush()
			os.Exit(1)
		}
	}
}

func newLogger(verbosity int) (logr.Logger, func(), error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, err
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}

func items(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return out
}

func singleScenario() scenario {
	return scenario{
		title:    "single feeder, single drainer",
		capacity: 5,
		sources:  map[string][]string{"producer": items("Item", 10)},
		order:    []string{"producer"},
		drainers: 1,
	}
}

func multiScenario() scenario {
	return scenario{
		title:    "multiple feeders, multiple drainers",
		capacity: 5,
		sources:  map[string][]string{"producer-A": items("A", 7), "producer-B": items("B", 7)},
		order:    []string{"producer-A", "producer-B"},
		drainers: 2,
	}
}

func customScenario(opts options) scenario {
	sc := scenario{
		title:    "custom",
		capacity: opts.capacity,
		sources:  make(map[string][]string, opts.feeders),
		drainers: opts.drainers,
	}
	for f := 0; f < opts.feeders; f++ {
		name := fmt.Sprintf("producer-%d", f+1)
		sc.sources[name] = items(name+"-item", opts.items)
		sc.order = append(sc.order, name)
	}
	return sc
}

func selectScenarios(opts options) ([]scenario, error) {
	switch opts.demo {
	case "single":
		return []scenario{singleScenario()}, nil
	case "multi":
		return []scenario{multiScenario()}, nil
	case "all":
		return []scenario{singleScenario(), multiScenario()}, nil
	case "custom":
		return []scenario{customScenario(opts)}, nil
	default:
		return nil, fmt.Errorf("unknown demo %q", opts.demo)
	}
}

func run(ctx context.Context, logger logr.Logger, opts options, sc scenario) error {
	reg := prometheus.NewRegistry()
	provider := metrics.NewPrometheusProvider(reg, "demo")

	o, err := handoff.New[string](sc.capacity,
		handoff.WithLogger(logger.WithValues("demo", sc.title)),
		handoff.WithMetrics(provider),
		handoff.WithPollInterval(opts.pollInterval),
		func() handoff.Option {
			if opts.stopOnError {
				return handoff.WithStopOnError()
			}
			return nil
		}(),
	)
	if err != nil {
		return err
	}

	total := 0
	for _, name := range sc.order {
		src := sc.sources[name]
		total += len(src)
		if _, err := o.AddFeederNamed(name, handoff.FromSlice(src)); err != nil {
			return err
		}
	}
	for d := 0; d < sc.drainers; d++ {
		if _, err := o.AddDrainer(); err != nil {
			return err
		}
	}

	o.Start(ctx)
	runErr := o.AwaitCompletion()

	stats := o.Stats()
	fmt.Printf("== %s (capacity %d, %d feeders, %d drainers)\n", sc.title, sc.capacity, len(sc.order), sc.drainers)
	fmt.Printf("source items: %d\n", total)
	fmt.Printf("produced: %d, consumed: %d, in sink: %d\n", stats.Produced, stats.Consumed, len(o.Results()))

	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Printf("%s %v\n", mf.GetName(), m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Printf("%s %v\n", mf.GetName(), m.GetGauge().GetValue())
			case m.GetHistogram() != nil:
				fmt.Printf("%s count=%d sum=%.6f\n", mf.GetName(), m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum())
			}
		}
	}
	return runErr
}
