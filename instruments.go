package handoff

import "github.com/ygrebnov/handoff/metrics"

const (
	metricItemsProduced = "handoff_items_produced_total"
	metricItemsConsumed = "handoff_items_consumed_total"
	metricQueueDepth    = "handoff_queue_depth"
	metricPutWait       = "handoff_put_wait_seconds"
	metricFeederErrors  = "handoff_feeder_errors_total"
)

type instruments struct {
	produced     metrics.Counter
	consumed     metrics.Counter
	depth        metrics.UpDownCounter
	putWait      metrics.Histogram
	feederErrors metrics.Counter
}

func newInstruments(p metrics.Provider) *instruments {
	return &instruments{
		produced: p.Counter(metricItemsProduced,
			metrics.WithDescription("Items accepted by the queue."), metrics.WithUnit("1")),
		consumed: p.Counter(metricItemsConsumed,
			metrics.WithDescription("Items taken from the queue and appended to the sink."), metrics.WithUnit("1")),
		depth: p.UpDownCounter(metricQueueDepth,
			metrics.WithDescription("Items currently buffered; updated by the queue under its lock."), metrics.WithUnit("1")),
		putWait: p.Histogram(metricPutWait,
			metrics.WithDescription("Time a feeder spent in a single put, including backpressure."), metrics.WithUnit("seconds")),
		feederErrors: p.Counter(metricFeederErrors,
			metrics.WithDescription("Feeders stopped by a source failure."), metrics.WithUnit("1")),
	}
}
