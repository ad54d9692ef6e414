package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/haatos/simple-qa/internal/store"
)

type batchStart struct {
	batchID string
	runs    []*store.Run
}

type workerDone struct {
	batchID string
	runID   string
	passed  bool
}

type snapshotRequest struct {
	batchID string
	reply   chan snapshotReply
}

type snapshotReply struct {
	snapshot BatchSnapshot
	ok       bool
}

func NewBatchOrchestrator(
	launcher WorkerLauncher,
	collector *ResultCollector,
	merger *ReportMerger,
	concurrencyLimit int,
	runTimeout time.Duration,
	progressClients *SSEClientMap[ProgressEvent],
	statusClients *SSEClientMap[store.Run],
	cancelRunMap *CancelMap[string],
) *BatchOrchestrator {
	return &BatchOrchestrator{
		launcher:           launcher,
		collector:          collector,
		merger:             merger,
		limit:              concurrencyLimit,
		runTimeout:         runTimeout,
		ProgressSSEClients: progressClients,
		StatusSSEClients:   statusClients,
		cancelRunMap:       cancelRunMap,
		registry:           newBatchRegistry(),
		startCh:            make(chan batchStart),
		doneCh:             make(chan workerDone),
		snapshotCh:         make(chan snapshotRequest),
		done:               make(chan struct{}),
	}
}

// BatchOrchestrator runs batches of test-set runs with a fixed concurrency
// ceiling. All batch state is mutated on a single control loop; worker
// processes post their completion back into the loop as messages, so slot
// accounting never races.
type BatchOrchestrator struct {
	launcher   WorkerLauncher
	collector  *ResultCollector
	merger     *ReportMerger
	limit      int
	runTimeout time.Duration

	ProgressSSEClients *SSEClientMap[ProgressEvent]
	StatusSSEClients   *SSEClientMap[store.Run]
	cancelRunMap       *CancelMap[string]

	registry   *batchRegistry
	startCh    chan batchStart
	doneCh     chan workerDone
	snapshotCh chan snapshotRequest
	done       chan struct{}
	mu         sync.Mutex
}

// StartBatch hands a batch to the control loop. Runs are started in the order
// given.
func (o *BatchOrchestrator) StartBatch(batchID string, runs []*store.Run) {
	select {
	case o.startCh <- batchStart{batchID: batchID, runs: runs}:
	case <-o.done:
	}
}

// Snapshot reads a live batch's progress. ok is false once the batch has
// finalized (or never existed).
func (o *BatchOrchestrator) Snapshot(batchID string) (BatchSnapshot, bool) {
	req := snapshotRequest{batchID: batchID, reply: make(chan snapshotReply, 1)}
	select {
	case o.snapshotCh <- req:
		r := <-req.reply
		return r.snapshot, r.ok
	case <-o.done:
		return BatchSnapshot{}, false
	}
}

func (o *BatchOrchestrator) CancelRun(runID string) bool {
	return o.cancelRunMap.Call(runID)
}

func (o *BatchOrchestrator) Run() {
	for {
		select {
		case msg := <-o.startCh:
			state := newBatchState(msg.batchID, msg.runs)
			o.registry.add(state)
			o.fillSlots(state)
		case msg := <-o.doneCh:
			o.handleWorkerDone(msg)
		case req := <-o.snapshotCh:
			snapshot, ok := o.registry.snapshot(req.batchID)
			req.reply <- snapshotReply{snapshot: snapshot, ok: ok}
		case <-o.done:
			return
		}
	}
}

func (o *BatchOrchestrator) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	select {
	case <-o.done:
	default:
		close(o.done)
	}
}

// fillSlots starts pending runs until the ceiling is reached or the pending
// queue drains. Called on the control loop only.
func (o *BatchOrchestrator) fillSlots(state *BatchState) {
	for len(state.running) < o.limit && len(state.pending) > 0 {
		run := state.pending[0]
		state.pending = state.pending[1:]
		state.running[run.RunID] = struct{}{}
		go o.runWorker(state.BatchID, run)
	}
}

// handleWorkerDone frees the finished worker's slot and refills it before the
// completion check, so the ceiling stays saturated while work remains and
// finalization fires exactly once.
func (o *BatchOrchestrator) handleWorkerDone(msg workerDone) {
	state, ok := o.registry.get(msg.batchID)
	if !ok {
		log.Println("worker done for unknown batch:", msg.batchID)
		return
	}

	delete(state.running, msg.runID)
	state.CompletedCount++
	if msg.passed {
		state.PassedCount++
	} else {
		state.FailedCount++
	}

	o.fillSlots(state)

	if state.CompletedCount == state.TotalCount {
		o.finalizeBatch(state)
	}
}

func (o *BatchOrchestrator) finalizeBatch(state *BatchState) {
	o.registry.remove(state.BatchID)
	runIDs := state.runIDs
	go func() {
		if err := o.merger.MergeBatchReports(runIDs); err != nil {
			log.Println("err merging batch reports:", err)
		}
	}()
}

// runWorker supervises one worker process off the control loop and posts the
// outcome back as a message.
func (o *BatchOrchestrator) runWorker(batchID string, run *store.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), o.runTimeout)
	defer cancel()
	o.cancelRunMap.AddCancel(run.RunID, cancel)
	defer o.cancelRunMap.RemoveCancel(run.RunID)

	if err := o.collector.MarkRunning(context.Background(), run.RunID); err != nil {
		log.Println("err updating run started on:", err)
	}

	outcome := o.launcher.Launch(
		ctx,
		WorkerSpec{
			RunID:       run.RunID,
			TestSetID:   run.TestSetID,
			ReleaseID:   run.ReleaseID,
			Environment: run.Environment,
			BaseURL:     run.BaseURL,
			BatchRun:    true,
		},
		func(p ProgressEvent) {
			o.ProgressSSEClients.SendToClients(run.RunID, p)
		},
	)

	passed := false
	updated, err := o.collector.Collect(context.Background(), run.RunID, outcome)
	if err != nil {
		log.Println("err collecting run result:", err)
	} else {
		passed = updated.Status == store.StatusPassed
		o.StatusSSEClients.SendToClients(run.RunID, *updated)
	}

	select {
	case o.doneCh <- workerDone{batchID: batchID, runID: run.RunID, passed: passed}:
	case <-o.done:
	}
}
