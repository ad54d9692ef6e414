package testutil

import (
	"context"
	"time"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/stretchr/testify/mock"
)

type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) CreateRun(ctx context.Context, run *store.Run) (*store.Run, error) {
	args := m.Called(ctx, run)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockRunStore) ReadRunByID(ctx context.Context, runID string) (*store.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockRunStore) UpdateRunStartedOn(
	ctx context.Context,
	runID string,
	status store.RunStatus,
	startedOn *time.Time,
) error {
	args := m.Called(ctx, runID, status, startedOn)
	return args.Error(0)
}

func (m *MockRunStore) FinalizeRun(
	ctx context.Context,
	runID string,
	status store.RunStatus,
	durationMS *int64,
	totals store.RunTotals,
	failureDetails *string,
	endedOn *time.Time,
) error {
	args := m.Called(ctx, runID, status, durationMS, totals, failureDetails, endedOn)
	return args.Error(0)
}

func (m *MockRunStore) ReplaceStepResults(
	ctx context.Context,
	runID string,
	steps []store.StepResult,
) error {
	args := m.Called(ctx, runID, steps)
	return args.Error(0)
}

func (m *MockRunStore) DeleteRun(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockRunStore) ListStepResults(
	ctx context.Context,
	runID string,
) ([]store.StepResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.StepResult), args.Error(1)
}

func (m *MockRunStore) ListBatchRuns(
	ctx context.Context,
	batchID string,
) ([]store.Run, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockRunStore) ListReleaseRunsPaginated(
	ctx context.Context,
	releaseID, limit, offset int64,
) ([]store.Run, error) {
	args := m.Called(ctx, releaseID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockRunStore) CountReleaseRuns(
	ctx context.Context,
	releaseID int64,
) (int64, error) {
	args := m.Called(ctx, releaseID)
	return args.Get(0).(int64), args.Error(1)
}
