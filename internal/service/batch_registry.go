package service

import (
	"github.com/haatos/simple-qa/internal/store"
)

// BatchState is the in-memory accounting of one batch: allocated when the
// batch starts, freed when it finalizes. Never persisted.
type BatchState struct {
	BatchID        string
	TotalCount     int
	CompletedCount int
	PassedCount    int
	FailedCount    int

	pending []*store.Run
	running map[string]struct{}
	runIDs  []string
}

func newBatchState(batchID string, runs []*store.Run) *BatchState {
	runIDs := make([]string, len(runs))
	for i, r := range runs {
		runIDs[i] = r.RunID
	}
	return &BatchState{
		BatchID:    batchID,
		TotalCount: len(runs),
		pending:    runs,
		running:    make(map[string]struct{}),
		runIDs:     runIDs,
	}
}

// BatchSnapshot is a point-in-time copy of a batch's progress, safe to hand
// out to HTTP callers.
type BatchSnapshot struct {
	BatchID        string   `json:"batchId"`
	TotalCount     int      `json:"totalCount"`
	CompletedCount int      `json:"completedCount"`
	PassedCount    int      `json:"passedCount"`
	FailedCount    int      `json:"failedCount"`
	PendingCount   int      `json:"pendingCount"`
	Running        []string `json:"running"`
}

// batchRegistry owns all live BatchStates. It is touched only from the
// orchestrator's control loop, so it needs no locking.
type batchRegistry struct {
	batches map[string]*BatchState
}

func newBatchRegistry() *batchRegistry {
	return &batchRegistry{batches: make(map[string]*BatchState)}
}

func (r *batchRegistry) add(state *BatchState) {
	r.batches[state.BatchID] = state
}

func (r *batchRegistry) get(batchID string) (*BatchState, bool) {
	state, ok := r.batches[batchID]
	return state, ok
}

func (r *batchRegistry) remove(batchID string) {
	delete(r.batches, batchID)
}

func (r *batchRegistry) snapshot(batchID string) (BatchSnapshot, bool) {
	state, ok := r.batches[batchID]
	if !ok {
		return BatchSnapshot{}, false
	}
	running := make([]string, 0, len(state.running))
	for id := range state.running {
		running = append(running, id)
	}
	return BatchSnapshot{
		BatchID:        state.BatchID,
		TotalCount:     state.TotalCount,
		CompletedCount: state.CompletedCount,
		PassedCount:    state.PassedCount,
		FailedCount:    state.FailedCount,
		PendingCount:   len(state.pending),
		Running:        running,
	}, true
}
