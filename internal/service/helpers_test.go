package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/haatos/simple-qa/internal/store"
)

// fakeRunStore keeps runs in memory so queue and orchestrator tests can
// observe collected state without a database.
type fakeRunStore struct {
	mu    sync.Mutex
	runs  map[string]*store.Run
	steps map[string][]store.StepResult
	order []string
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{
		runs:  make(map[string]*store.Run),
		steps: make(map[string][]store.StepResult),
	}
}

func (f *fakeRunStore) CreateRun(ctx context.Context, r *store.Run) (*store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *r
	cp.CreatedOn = time.Now().UTC()
	f.runs[cp.RunID] = &cp
	f.order = append(f.order, cp.RunID)
	out := cp
	return &out, nil
}

func (f *fakeRunStore) ReadRunByID(ctx context.Context, id string) (*store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRunStore) UpdateRunStartedOn(
	ctx context.Context,
	id string,
	status store.RunStatus,
	startedOn *time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	r.StartedOn = startedOn
	return nil
}

func (f *fakeRunStore) FinalizeRun(
	ctx context.Context,
	id string,
	status store.RunStatus,
	durationMS *int64,
	totals store.RunTotals,
	failureDetails *string,
	endedOn *time.Time,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return sql.ErrNoRows
	}
	r.Status = status
	r.DurationMS = durationMS
	r.TotalScenarios = totals.Scenarios
	r.TotalSteps = totals.Steps
	r.PassedSteps = totals.Passed
	r.FailedSteps = totals.Failed
	r.FailureDetails = failureDetails
	r.EndedOn = endedOn
	return nil
}

func (f *fakeRunStore) ReplaceStepResults(
	ctx context.Context,
	runID string,
	steps []store.StepResult,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps[runID] = steps
	return nil
}

func (f *fakeRunStore) DeleteRun(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.runs, id)
	delete(f.steps, id)
	return nil
}

func (f *fakeRunStore) ListStepResults(
	ctx context.Context,
	runID string,
) ([]store.StepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.steps[runID], nil
}

func (f *fakeRunStore) ListBatchRuns(
	ctx context.Context,
	batchID string,
) ([]store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	runs := make([]store.Run, 0)
	for _, id := range f.order {
		r := f.runs[id]
		if r != nil && r.RunBatchID != nil && *r.RunBatchID == batchID {
			runs = append(runs, *r)
		}
	}
	return runs, nil
}

func (f *fakeRunStore) ListReleaseRunsPaginated(
	ctx context.Context,
	releaseID, limit, offset int64,
) ([]store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	runs := make([]store.Run, 0)
	for _, id := range f.order {
		r := f.runs[id]
		if r != nil && r.ReleaseID == releaseID {
			runs = append(runs, *r)
		}
	}
	if offset >= int64(len(runs)) {
		return []store.Run{}, nil
	}
	runs = runs[offset:]
	if limit < int64(len(runs)) {
		runs = runs[:limit]
	}
	return runs, nil
}

func (f *fakeRunStore) CountReleaseRuns(
	ctx context.Context,
	releaseID int64,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, r := range f.runs {
		if r.ReleaseID == releaseID {
			count++
		}
	}
	return count, nil
}

type launchedWorker struct {
	spec    WorkerSpec
	outcome chan WorkerOutcome
}

// fakeLauncher surfaces every Launch call on a channel and blocks the worker
// until the test feeds it an outcome.
type fakeLauncher struct {
	launches chan launchedWorker
}

func newFakeLauncher(buffer int) *fakeLauncher {
	return &fakeLauncher{launches: make(chan launchedWorker, buffer)}
}

func (f *fakeLauncher) Launch(
	ctx context.Context,
	spec WorkerSpec,
	progress func(ProgressEvent),
) WorkerOutcome {
	lw := launchedWorker{spec: spec, outcome: make(chan WorkerOutcome, 1)}
	f.launches <- lw
	select {
	case outcome := <-lw.outcome:
		return outcome
	case <-ctx.Done():
		return WorkerOutcome{ExitCode: -1, Err: RunCancelError{Message: "run cancelled"}}
	}
}

func passedOutcome() WorkerOutcome {
	return WorkerOutcome{
		ExitCode: 0,
		Result: &WorkerResult{
			Status:         "passed",
			DurationMS:     1200,
			TotalScenarios: 1,
			TotalSteps:     2,
			PassedSteps:    2,
		},
	}
}

func failedOutcome() WorkerOutcome {
	return WorkerOutcome{
		ExitCode: 0,
		Result: &WorkerResult{
			Status:         "failed",
			DurationMS:     900,
			TotalScenarios: 1,
			TotalSteps:     2,
			PassedSteps:    1,
			FailedSteps:    1,
		},
	}
}

func waitForLaunch(l *fakeLauncher, timeout time.Duration) (launchedWorker, bool) {
	select {
	case lw := <-l.launches:
		return lw, true
	case <-time.After(timeout):
		return launchedWorker{}, false
	}
}
