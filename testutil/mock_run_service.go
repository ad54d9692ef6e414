package testutil

import (
	"context"

	"github.com/haatos/simple-qa/internal/service"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/stretchr/testify/mock"
)

func NewMockRunService() *MockRunService {
	return &MockRunService{
		Progress: service.NewSSEClientMap[service.ProgressEvent](),
		Status:   service.NewSSEClientMap[store.Run](),
	}
}

type MockRunService struct {
	mock.Mock

	Progress *service.SSEClientMap[service.ProgressEvent]
	Status   *service.SSEClientMap[store.Run]
}

func (m *MockRunService) SubmitTestSetRun(
	ctx context.Context,
	testSetID, releaseID int64,
	environment string,
) (*store.Run, error) {
	args := m.Called(ctx, testSetID, releaseID, environment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockRunService) SubmitReleaseRun(
	ctx context.Context,
	releaseID int64,
	environment string,
	testSetIDs []int64,
) (string, []*store.Run, error) {
	args := m.Called(ctx, releaseID, environment, testSetIDs)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).([]*store.Run), args.Error(2)
}

func (m *MockRunService) GetRunByID(ctx context.Context, runID string) (*store.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockRunService) ListRunSteps(
	ctx context.Context,
	runID string,
) ([]store.StepResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.StepResult), args.Error(1)
}

func (m *MockRunService) ListBatchRuns(
	ctx context.Context,
	batchID string,
) ([]store.Run, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockRunService) ListReleaseRunsPaginated(
	ctx context.Context,
	releaseID, limit, offset int64,
) ([]store.Run, error) {
	args := m.Called(ctx, releaseID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockRunService) CountReleaseRuns(
	ctx context.Context,
	releaseID int64,
) (int64, error) {
	args := m.Called(ctx, releaseID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRunService) CancelRun(runID string) bool {
	args := m.Called(runID)
	return args.Bool(0)
}

func (m *MockRunService) BatchSnapshot(batchID string) (service.BatchSnapshot, bool) {
	args := m.Called(batchID)
	return args.Get(0).(service.BatchSnapshot), args.Bool(1)
}

func (m *MockRunService) CreateSchedule(
	ctx context.Context,
	releaseID int64,
	environment, cronExpression string,
) (*store.Schedule, error) {
	args := m.Called(ctx, releaseID, environment, cronExpression)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Schedule), args.Error(1)
}

func (m *MockRunService) RemoveSchedule(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRunService) ListSchedules(ctx context.Context) ([]*store.Schedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Schedule), args.Error(1)
}

func (m *MockRunService) ProgressClients() *service.SSEClientMap[service.ProgressEvent] {
	return m.Progress
}

func (m *MockRunService) StatusClients() *service.SSEClientMap[store.Run] {
	return m.Status
}

func (m *MockRunService) ArchiveReports() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
