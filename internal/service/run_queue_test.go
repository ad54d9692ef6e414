package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/stretchr/testify/assert"
)

func newQueueFixture(t *testing.T, maxRuns int64) (*RunQueue, *fakeRunStore, *fakeLauncher, *ReportMerger) {
	rs := newFakeRunStore()
	launcher := newFakeLauncher(int(maxRuns))
	merger := NewReportMerger(t.TempDir())
	queue := NewRunQueue(
		launcher,
		NewResultCollector(rs),
		merger,
		maxRuns,
		time.Minute,
		NewSSEClientMap[ProgressEvent](),
		NewSSEClientMap[store.Run](),
		NewCancelMap[string](),
	)
	return queue, rs, launcher, merger
}

func createQueueRun(t *testing.T, rs *fakeRunStore, id string) *store.Run {
	run, err := rs.CreateRun(context.Background(), &store.Run{
		RunID:       id,
		TestSetID:   1,
		ReleaseID:   1,
		Environment: "staging",
		BaseURL:     "https://staging.example.com",
		Status:      store.StatusPending,
	})
	assert.NoError(t, err)
	return run
}

func writeEmptyReport(t *testing.T, merger *ReportMerger, runID string) {
	assert.NoError(t, os.WriteFile(merger.RunReportPath(runID), []byte("[]"), 0o644))
}

func waitForTerminal(t *testing.T, rs *fakeRunStore, runID string, timeout time.Duration) *store.Run {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		run, err := rs.ReadRunByID(context.Background(), runID)
		assert.NoError(t, err)
		if run.Status.Terminal() {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s never reached a terminal status", runID)
	return nil
}

func TestRunQueue_SerialExecution(t *testing.T) {
	queue, rs, launcher, merger := newQueueFixture(t, 10)
	go queue.Run()
	defer queue.Shutdown()

	r1 := createQueueRun(t, rs, "run-1")
	r2 := createQueueRun(t, rs, "run-2")
	assert.NoError(t, queue.Enqueue(r1))
	assert.NoError(t, queue.Enqueue(r2))

	first, ok := waitForLaunch(launcher, 2*time.Second)
	assert.True(t, ok)
	assert.Equal(t, "run-1", first.spec.RunID)
	assert.False(t, first.spec.BatchRun)

	// second run must not start while the first worker is alive
	_, ok = waitForLaunch(launcher, 200*time.Millisecond)
	assert.False(t, ok)

	writeEmptyReport(t, merger, "run-1")
	first.outcome <- passedOutcome()

	second, ok := waitForLaunch(launcher, 3*time.Second)
	assert.True(t, ok)
	assert.Equal(t, "run-2", second.spec.RunID)

	writeEmptyReport(t, merger, "run-2")
	second.outcome <- failedOutcome()

	run1 := waitForTerminal(t, rs, "run-1", 2*time.Second)
	run2 := waitForTerminal(t, rs, "run-2", 2*time.Second)
	assert.Equal(t, store.StatusPassed, run1.Status)
	assert.Equal(t, store.StatusFailed, run2.Status)
}

func TestRunQueue_FIFOOrder(t *testing.T) {
	queue, rs, launcher, merger := newQueueFixture(t, 10)

	ids := []string{"run-1", "run-2", "run-3"}
	for _, id := range ids {
		assert.NoError(t, queue.Enqueue(createQueueRun(t, rs, id)))
	}
	go queue.Run()
	defer queue.Shutdown()

	for i, want := range ids {
		lw, ok := waitForLaunch(launcher, 3*time.Second)
		assert.True(t, ok, fmt.Sprintf("launch %d never happened", i+1))
		assert.Equal(t, want, lw.spec.RunID)
		writeEmptyReport(t, merger, want)
		lw.outcome <- passedOutcome()
	}
}

func TestRunQueue_EnqueueFull(t *testing.T) {
	queue, rs, _, _ := newQueueFixture(t, 1)

	assert.NoError(t, queue.Enqueue(createQueueRun(t, rs, "run-1")))

	err := queue.Enqueue(createQueueRun(t, rs, "run-2"))

	assert.Error(t, err)
	var full *ErrRunQueueFull
	assert.True(t, errors.As(err, &full))
}

func TestRunQueue_CancelRun(t *testing.T) {
	queue, rs, launcher, merger := newQueueFixture(t, 10)
	go queue.Run()
	defer queue.Shutdown()

	assert.NoError(t, queue.Enqueue(createQueueRun(t, rs, "run-1")))

	lw, ok := waitForLaunch(launcher, 2*time.Second)
	assert.True(t, ok)
	writeEmptyReport(t, merger, "run-1")

	assert.True(t, queue.CancelRun("run-1"))
	_ = lw

	run := waitForTerminal(t, rs, "run-1", 2*time.Second)
	assert.Equal(t, store.StatusFailed, run.Status)
	assert.Equal(t, "run cancelled", *run.FailureDetails)

	// the slot is free again after the cancelled run is collected
	assert.False(t, queue.CancelRun("run-1"))
}
