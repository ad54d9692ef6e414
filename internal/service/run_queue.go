package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/haatos/simple-qa/internal/store"
)

func NewRunQueue(
	launcher WorkerLauncher,
	collector *ResultCollector,
	merger *ReportMerger,
	maxRuns int64,
	runTimeout time.Duration,
	progressClients *SSEClientMap[ProgressEvent],
	statusClients *SSEClientMap[store.Run],
	cancelRunMap *CancelMap[string],
) *RunQueue {
	return &RunQueue{
		launcher:           launcher,
		collector:          collector,
		merger:             merger,
		runTimeout:         runTimeout,
		ProgressSSEClients: progressClients,
		StatusSSEClients:   statusClients,
		queue:              make(chan *store.Run, maxRuns),
		done:               make(chan struct{}),
		cancelRunMap:       cancelRunMap,
	}
}

// RunQueue executes ad-hoc single runs strictly one at a time in submission
// order.
type RunQueue struct {
	launcher   WorkerLauncher
	collector  *ResultCollector
	merger     *ReportMerger
	runTimeout time.Duration

	ProgressSSEClients *SSEClientMap[ProgressEvent]
	StatusSSEClients   *SSEClientMap[store.Run]

	queue        chan *store.Run
	done         chan struct{}
	cancelRunMap *CancelMap[string]
	mu           sync.Mutex
}

func (rq *RunQueue) CancelRun(runID string) bool {
	return rq.cancelRunMap.Call(runID)
}

func (rq *RunQueue) Enqueue(r *store.Run) error {
	select {
	case rq.queue <- r:
		return nil
	default:
		return NewErrRunQueueFull()
	}
}

func (rq *RunQueue) Run() {
	for {
		select {
		case run := <-rq.queue:
			rq.processRun(run)
		case <-rq.done:
			close(rq.queue)
			return
		}
	}
}

func (rq *RunQueue) Shutdown() {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	select {
	case <-rq.done:
	default:
		close(rq.done)
	}
}

func (rq *RunQueue) processRun(run *store.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), rq.runTimeout)
	defer cancel()
	rq.cancelRunMap.AddCancel(run.RunID, cancel)
	defer rq.cancelRunMap.RemoveCancel(run.RunID)

	if err := rq.collector.MarkRunning(context.Background(), run.RunID); err != nil {
		log.Println("err updating run started on:", err)
	}

	outcome := rq.launcher.Launch(
		ctx,
		WorkerSpec{
			RunID:       run.RunID,
			TestSetID:   run.TestSetID,
			ReleaseID:   run.ReleaseID,
			Environment: run.Environment,
			BaseURL:     run.BaseURL,
			BatchRun:    false,
		},
		func(p ProgressEvent) {
			rq.ProgressSSEClients.SendToClients(run.RunID, p)
		},
	)

	updated, err := rq.collector.Collect(context.Background(), run.RunID, outcome)
	if err != nil {
		log.Println("err collecting run result:", err)
		return
	}
	rq.StatusSSEClients.SendToClients(run.RunID, *updated)

	// let the worker's report file land before the next run starts
	rq.merger.WaitForReport(run.RunID)
}
