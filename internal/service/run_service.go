package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/haatos/simple-qa/internal/store"
)

type RunServicer interface {
	SubmitTestSetRun(context.Context, int64, int64, string) (*store.Run, error)
	SubmitReleaseRun(context.Context, int64, string, []int64) (string, []*store.Run, error)
	GetRunByID(context.Context, string) (*store.Run, error)
	ListRunSteps(context.Context, string) ([]store.StepResult, error)
	ListBatchRuns(context.Context, string) ([]store.Run, error)
	ListReleaseRunsPaginated(context.Context, int64, int64, int64) ([]store.Run, error)
	CountReleaseRuns(context.Context, int64) (int64, error)
	CancelRun(string) bool
	BatchSnapshot(string) (BatchSnapshot, bool)
	CreateSchedule(context.Context, int64, string, string) (*store.Schedule, error)
	RemoveSchedule(context.Context, int64) error
	ListSchedules(context.Context) ([]*store.Schedule, error)
	ProgressClients() *SSEClientMap[ProgressEvent]
	StatusClients() *SSEClientMap[store.Run]
	ArchiveReports() (string, error)
}

func NewRunService(
	runStore store.RunStore,
	scheduleStore store.ScheduleStore,
	queue *RunQueue,
	orchestrator *BatchOrchestrator,
	scheduler gocron.Scheduler,
	catalog *EnvironmentCatalog,
	authoring AuthoringClient,
	merger *ReportMerger,
	cancelRunMap *CancelMap[string],
	progressClients *SSEClientMap[ProgressEvent],
	statusClients *SSEClientMap[store.Run],
) *RunService {
	return &RunService{
		runStore:        runStore,
		scheduleStore:   scheduleStore,
		queue:           queue,
		orchestrator:    orchestrator,
		scheduler:       scheduler,
		catalog:         catalog,
		authoring:       authoring,
		merger:          merger,
		cancelRunMap:    cancelRunMap,
		progressClients: progressClients,
		statusClients:   statusClients,
	}
}

// RunService is the submission surface of the execution core. It turns
// authoring-layer requests into run records and feeds them to the single-lane
// queue or the batch orchestrator.
type RunService struct {
	runStore      store.RunStore
	scheduleStore store.ScheduleStore
	queue         *RunQueue
	orchestrator  *BatchOrchestrator
	scheduler     gocron.Scheduler
	catalog       *EnvironmentCatalog
	authoring     AuthoringClient
	merger        *ReportMerger

	cancelRunMap    *CancelMap[string]
	progressClients *SSEClientMap[ProgressEvent]
	statusClients   *SSEClientMap[store.Run]
}

func (s *RunService) ProgressClients() *SSEClientMap[ProgressEvent] {
	return s.progressClients
}

func (s *RunService) StatusClients() *SSEClientMap[store.Run] {
	return s.statusClients
}

// SubmitTestSetRun creates one pending run and places it on the single-lane
// queue.
func (s *RunService) SubmitTestSetRun(
	ctx context.Context,
	testSetID, releaseID int64,
	environment string,
) (*store.Run, error) {
	env, err := s.catalog.Resolve(environment)
	if err != nil {
		return nil, err
	}

	run := &store.Run{
		RunID:       uuid.NewString(),
		TestSetID:   testSetID,
		ReleaseID:   releaseID,
		Environment: environment,
		BaseURL:     env.BaseURL,
		Status:      store.StatusPending,
	}
	run, err = s.runStore.CreateRun(ctx, run)
	if err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(run); err != nil {
		if delErr := s.runStore.DeleteRun(ctx, run.RunID); delErr != nil {
			return nil, errors.Join(err, delErr)
		}
		return nil, err
	}
	return run, nil
}

// SubmitReleaseRun creates one pending run per test set and starts them as a
// batch. An empty test-set list is resolved against the authoring API.
func (s *RunService) SubmitReleaseRun(
	ctx context.Context,
	releaseID int64,
	environment string,
	testSetIDs []int64,
) (string, []*store.Run, error) {
	env, err := s.catalog.Resolve(environment)
	if err != nil {
		return "", nil, err
	}

	if len(testSetIDs) == 0 {
		testSetIDs, err = s.authoring.ListReleaseTestSetIDs(ctx, releaseID)
		if err != nil {
			return "", nil, err
		}
	}
	if len(testSetIDs) == 0 {
		return "", nil, fmt.Errorf("release %d has no test sets to run", releaseID)
	}

	batchID := uuid.NewString()
	runs := make([]*store.Run, 0, len(testSetIDs))
	for _, testSetID := range testSetIDs {
		run := &store.Run{
			RunID:       uuid.NewString(),
			RunBatchID:  &batchID,
			TestSetID:   testSetID,
			ReleaseID:   releaseID,
			Environment: environment,
			BaseURL:     env.BaseURL,
			Status:      store.StatusPending,
		}
		run, err = s.runStore.CreateRun(ctx, run)
		if err != nil {
			for _, created := range runs {
				if delErr := s.runStore.DeleteRun(ctx, created.RunID); delErr != nil {
					log.Println("err deleting run after failed batch submit:", delErr)
				}
			}
			return "", nil, err
		}
		runs = append(runs, run)
	}

	s.orchestrator.StartBatch(batchID, runs)
	return batchID, runs, nil
}

func (s *RunService) GetRunByID(ctx context.Context, runID string) (*store.Run, error) {
	return s.runStore.ReadRunByID(ctx, runID)
}

func (s *RunService) ListRunSteps(
	ctx context.Context,
	runID string,
) ([]store.StepResult, error) {
	return s.runStore.ListStepResults(ctx, runID)
}

func (s *RunService) ListBatchRuns(
	ctx context.Context,
	batchID string,
) ([]store.Run, error) {
	return s.runStore.ListBatchRuns(ctx, batchID)
}

func (s *RunService) ListReleaseRunsPaginated(
	ctx context.Context,
	releaseID, limit, offset int64,
) ([]store.Run, error) {
	return s.runStore.ListReleaseRunsPaginated(ctx, releaseID, limit, offset)
}

func (s *RunService) CountReleaseRuns(
	ctx context.Context,
	releaseID int64,
) (int64, error) {
	return s.runStore.CountReleaseRuns(ctx, releaseID)
}

// CancelRun forces termination of an in-flight run on either lane. Returns
// false if the run is not in flight.
func (s *RunService) CancelRun(runID string) bool {
	return s.cancelRunMap.Call(runID)
}

func (s *RunService) BatchSnapshot(batchID string) (BatchSnapshot, bool) {
	return s.orchestrator.Snapshot(batchID)
}

func (s *RunService) ArchiveReports() (string, error) {
	return s.merger.ArchiveReports()
}

func (s *RunService) CreateSchedule(
	ctx context.Context,
	releaseID int64,
	environment, cronExpression string,
) (*store.Schedule, error) {
	if _, err := s.catalog.Resolve(environment); err != nil {
		return nil, err
	}

	schedule, err := s.scheduleStore.CreateSchedule(ctx, releaseID, environment, cronExpression)
	if err != nil {
		return nil, err
	}

	jobID, err := s.registerScheduleJob(schedule)
	if err != nil {
		return nil, err
	}
	if err := s.scheduleStore.UpdateScheduleJobID(ctx, schedule.ScheduleID, jobID); err != nil {
		return nil, err
	}
	schedule.JobID = jobID
	return schedule, nil
}

func (s *RunService) RemoveSchedule(ctx context.Context, id int64) error {
	schedule, err := s.scheduleStore.ReadScheduleByID(ctx, id)
	if err != nil {
		return err
	}
	if schedule.JobID != nil && s.scheduler != nil {
		if err := s.scheduler.RemoveJob(uuid.MustParse(*schedule.JobID)); err != nil {
			log.Println("unable to remove existing job: ", err)
		}
	}
	return s.scheduleStore.DeleteSchedule(ctx, id)
}

func (s *RunService) ListSchedules(ctx context.Context) ([]*store.Schedule, error) {
	return s.scheduleStore.ListSchedules(ctx)
}

// InitializeSchedules re-registers persisted schedules with the scheduler at
// boot.
func (s *RunService) InitializeSchedules(ctx context.Context) error {
	schedules, err := s.scheduleStore.ListSchedules(ctx)
	if err != nil {
		return err
	}
	for _, schedule := range schedules {
		jobID, err := s.registerScheduleJob(schedule)
		if err != nil {
			return err
		}
		if err := s.scheduleStore.UpdateScheduleJobID(
			ctx, schedule.ScheduleID, jobID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *RunService) registerScheduleJob(schedule *store.Schedule) (*string, error) {
	if s.scheduler == nil {
		return nil, nil
	}
	releaseID := schedule.ReleaseID
	environment := schedule.Environment
	job, err := s.scheduler.NewJob(
		gocron.CronJob(schedule.CronExpression, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, _, err := s.SubmitReleaseRun(ctx, releaseID, environment, nil); err != nil {
				log.Println("err submitting scheduled release run:", err)
			}
		}))
	if err != nil {
		return nil, fmt.Errorf("error scheduling release run: %+w", err)
	}
	jobID := job.ID().String()
	return &jobID, nil
}
