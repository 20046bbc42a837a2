package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider creates Prometheus collectors and registers them on a
// Registerer. Counters map to prometheus.Counter, up/down counters to Gauge and
// histograms to Histogram with default buckets. Attributes become const labels.
type PrometheusProvider struct {
	reg       prometheus.Registerer
	namespace string

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// NewPrometheusProvider registers instruments on reg, or on
// prometheus.DefaultRegisterer when reg is nil. A non-empty namespace prefixes every name.
func NewPrometheusProvider(reg prometheus.Registerer, namespace string) *PrometheusProvider {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusProvider{
		reg:        reg,
		namespace:  namespace,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

func (p *PrometheusProvider) opts(name string, cfg InstrumentConfig) prometheus.Opts {
	help := cfg.Description
	if help == "" {
		help = name
	}
	return prometheus.Opts{
		Namespace:   p.namespace,
		Name:        name,
		Help:        help,
		ConstLabels: prometheus.Labels(cfg.Attributes),
	}
}

// register registers c, reusing an identical collector that is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.counters[name]
	if !ok {
		c = register(p.reg, prometheus.NewCounter(prometheus.CounterOpts(p.opts(name, applyOptions(opts)))))
		p.counters[name] = c
	}
	return promCounter{c}
}

func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.gauges[name]
	if !ok {
		g = register(p.reg, prometheus.NewGauge(prometheus.GaugeOpts(p.opts(name, applyOptions(opts)))))
		p.gauges[name] = g
	}
	return promGauge{g}
}

func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.histograms[name]
	if !ok {
		o := p.opts(name, applyOptions(opts))
		h = register(p.reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   o.Namespace,
			Name:        o.Name,
			Help:        o.Help,
			ConstLabels: o.ConstLabels,
			Buckets:     prometheus.DefBuckets,
		}))
		p.histograms[name] = h
	}
	return promHistogram{h}
}

type promCounter struct{ c prometheus.Counter }

func (c promCounter) Add(n int64) {
	if n > 0 {
		c.c.Add(float64(n))
	}
}

type promGauge struct{ g prometheus.Gauge }

func (g promGauge) Add(n int64) { g.g.Add(float64(n)) }

type promHistogram struct{ h prometheus.Histogram }

func (h promHistogram) Record(v float64) { h.h.Observe(v) }
