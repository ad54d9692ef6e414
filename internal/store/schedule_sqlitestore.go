package store

import (
	"context"
	"database/sql"

	"github.com/georgysavva/scany/v2/sqlscan"
)

type ScheduleSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewScheduleSQLiteStore(rdb, rwdb *sql.DB) *ScheduleSQLiteStore {
	return &ScheduleSQLiteStore{rdb, rwdb}
}

func (store *ScheduleSQLiteStore) CreateSchedule(
	ctx context.Context,
	releaseID int64,
	environment, cronExpression string,
) (*Schedule, error) {
	s := &Schedule{
		ReleaseID:      releaseID,
		Environment:    environment,
		CronExpression: cronExpression,
	}
	query := `insert into run_schedules (
		release_id,
		environment,
		cron_expression
	)
	values ($1, $2, $3)
	returning schedule_id`
	if err := sqlscan.Get(
		ctx, store.rwdb, s, query,
		s.ReleaseID,
		s.Environment,
		s.CronExpression,
	); err != nil {
		return nil, err
	}
	return s, nil
}

func (store *ScheduleSQLiteStore) ReadScheduleByID(
	ctx context.Context,
	id int64,
) (*Schedule, error) {
	s := &Schedule{ScheduleID: id}
	query := "select * from run_schedules where schedule_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, s, query, s.ScheduleID); err != nil {
		return nil, err
	}
	return s, nil
}

func (store *ScheduleSQLiteStore) UpdateScheduleJobID(
	ctx context.Context,
	id int64,
	jobID *string,
) error {
	query := "update run_schedules set job_id = $1 where schedule_id = $2"
	_, err := store.rwdb.ExecContext(ctx, query, jobID, id)
	return err
}

func (store *ScheduleSQLiteStore) DeleteSchedule(ctx context.Context, id int64) error {
	query := "delete from run_schedules where schedule_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *ScheduleSQLiteStore) ListSchedules(ctx context.Context) ([]*Schedule, error) {
	query := "select * from run_schedules order by schedule_id"
	schedules := make([]*Schedule, 0)
	err := sqlscan.Select(ctx, store.rdb, &schedules, query)
	return schedules, err
}
