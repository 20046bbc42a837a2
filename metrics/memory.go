package metrics

import (
	"math"
	"sync"
	"sync/atomic"
)

// MemoryProvider keeps instruments in memory so tests and small programs can
// read them back by name. It is safe for concurrent use.
type MemoryProvider struct {
	mu         sync.RWMutex
	counters   map[string]*MemoryCounter
	updowns    map[string]*MemoryCounter
	histograms map[string]*MemoryHistogram
	meta       map[string]InstrumentConfig
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		counters:   make(map[string]*MemoryCounter),
		updowns:    make(map[string]*MemoryCounter),
		histograms: make(map[string]*MemoryHistogram),
		meta:       make(map[string]InstrumentConfig),
	}
}

// lookup returns m[name], creating it with newFn under the write lock on first use.
func lookup[V any](p *MemoryProvider, m map[string]V, name string, opts []InstrumentOption, newFn func() V) V {
	p.mu.RLock()
	v, ok := m[name]
	p.mu.RUnlock()
	if ok {
		return v
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok = m[name]; ok {
		return v
	}
	p.meta[name] = applyOptions(opts)
	v = newFn()
	m[name] = v
	return v
}

func (p *MemoryProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return lookup(p, p.counters, name, opts, func() *MemoryCounter { return &MemoryCounter{} })
}

func (p *MemoryProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return lookup(p, p.updowns, name, opts, func() *MemoryCounter { return &MemoryCounter{} })
}

func (p *MemoryProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return lookup(p, p.histograms, name, opts, func() *MemoryHistogram {
		return &MemoryHistogram{min: math.Inf(1), max: math.Inf(-1)}
	})
}

// CounterValue returns the value of a counter or up/down counter, 0 if unknown.
func (p *MemoryProvider) CounterValue(name string) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if c, ok := p.counters[name]; ok {
		return c.Value()
	}
	if u, ok := p.updowns[name]; ok {
		return u.Value()
	}
	return 0
}

// HistogramSnapshot returns the snapshot of a histogram; ok is false if unknown.
func (p *MemoryProvider) HistogramSnapshot(name string) (HistSnapshot, bool) {
	p.mu.RLock()
	h, ok := p.histograms[name]
	p.mu.RUnlock()
	if !ok {
		return HistSnapshot{}, false
	}
	return h.Snapshot(), true
}

// Config returns the metadata recorded when the instrument was created.
func (p *MemoryProvider) Config(name string) (InstrumentConfig, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.meta[name]
	return c, ok
}

// MemoryCounter backs both Counter and UpDownCounter.
type MemoryCounter struct {
	val atomic.Int64
}

func (c *MemoryCounter) Add(n int64) { c.val.Add(n) }
func (c *MemoryCounter) Value() int64 { return c.val.Load() }

// MemoryHistogram tracks count, sum, min and max; it keeps no buckets.
type MemoryHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

func (h *MemoryHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.min = math.Min(h.min, v)
	h.max = math.Max(h.max, v)
	h.count++
	h.sum += v
}

// HistSnapshot is an immutable view of a MemoryHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

func (h *MemoryHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := HistSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	if h.count > 0 {
		s.Mean = h.sum / float64(h.count)
	}
	return s
}
