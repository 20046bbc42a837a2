// Package metrics defines the small instrument surface the hand-off components
// record into, with no-op, in-memory and Prometheus-backed providers.
package metrics

// Provider constructs instruments by name. Asking twice for the same name
// returns the same instrument. Implementations must be safe for concurrent use.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records a value that moves both ways, such as queue depth.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of measurements, such as wait times in seconds.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional instrument metadata. Providers may ignore it.
type InstrumentConfig struct {
	Description string
	Unit        string
	// Attributes are static labels of the instrument itself; keep cardinality bounded.
	Attributes map[string]string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets the unit, e.g. "1" or "seconds".
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

// WithAttributes attaches static attributes. The map is copied.
func WithAttributes(attrs map[string]string) InstrumentOption {
	return func(c *InstrumentConfig) {
		if len(attrs) == 0 {
			return
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			c.Attributes[k] = v
		}
	}
}

func applyOptions(opts []InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
