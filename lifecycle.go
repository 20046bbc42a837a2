package handoff

import (
	"sync"
)

// lifecycleCoordinator encapsulates the shutdown sequence for an Orchestrator.
// It is a wiring helper: it doesn't own the queue or the goroutines; it orders
// waits and closures deterministically.
//
// Await() is safe for concurrent calls; the sequence executes exactly once.
type lifecycleCoordinator struct {
	feeders     *sync.WaitGroup
	closeErrors func()
	collectorWG *sync.WaitGroup
	closeQueue  func()
	drainers    *sync.WaitGroup
	finish      func()

	once sync.Once
}

func newLifecycleCoordinator(
	feeders *sync.WaitGroup,
	closeErrors func(),
	collectorWG *sync.WaitGroup,
	closeQueue func(),
	drainers *sync.WaitGroup,
	finish func(),
) *lifecycleCoordinator {
	return &lifecycleCoordinator{
		feeders:     feeders,
		closeErrors: closeErrors,
		collectorWG: collectorWG,
		closeQueue:  closeQueue,
		drainers:    drainers,
		finish:      finish,
	}
}

// Await executes the shutdown sequence exactly once; concurrent callers block
// until it has completed:
// 1) wait for every feeder to return
// 2) close the feeder errors channel and wait for the collector
// 3) close the queue
// 4) wait for every drainer to return
// 5) run finish hooks
func (lc *lifecycleCoordinator) Await() {
	lc.once.Do(func() {
		if lc.feeders != nil {
			lc.feeders.Wait()
		}
		if lc.closeErrors != nil {
			lc.closeErrors()
		}
		if lc.collectorWG != nil {
			lc.collectorWG.Wait()
		}
		if lc.closeQueue != nil {
			lc.closeQueue()
		}
		if lc.drainers != nil {
			lc.drainers.Wait()
		}
		if lc.finish != nil {
			lc.finish()
		}
	})
}
