package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/haatos/simple-qa/internal"
)

type RunSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewRunSQLiteStore(rdb, rwdb *sql.DB) *RunSQLiteStore {
	return &RunSQLiteStore{rdb, rwdb}
}

func (store *RunSQLiteStore) CreateRun(ctx context.Context, r *Run) (*Run, error) {
	if r.Status == "" {
		r.Status = StatusPending
	}
	query := `insert into runs (
		run_id,
		run_batch_id,
		test_set_id,
		release_id,
		environment,
		base_url,
		status
	)
	values ($1, $2, $3, $4, $5, $6, $7)
	returning run_id, created_on`
	if err := sqlscan.Get(
		ctx, store.rwdb, r, query,
		r.RunID,
		r.RunBatchID,
		r.TestSetID,
		r.ReleaseID,
		r.Environment,
		r.BaseURL,
		r.Status,
	); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) ReadRunByID(ctx context.Context, id string) (*Run, error) {
	r := &Run{RunID: id}
	query := "select * from runs where run_id = $1"
	if err := sqlscan.Get(ctx, store.rdb, r, query, r.RunID); err != nil {
		return nil, err
	}
	return r, nil
}

func (store *RunSQLiteStore) UpdateRunStartedOn(
	ctx context.Context,
	id string,
	status RunStatus,
	startedOn *time.Time,
) error {
	query := `update runs
	set status = $1,
		started_on = $2
	where run_id = $3`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		startedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

// FinalizeRun writes the terminal state of a run. Calling it again for the
// same run overwrites the previous terminal state.
func (store *RunSQLiteStore) FinalizeRun(
	ctx context.Context,
	id string,
	status RunStatus,
	durationMS *int64,
	totals RunTotals,
	failureDetails *string,
	endedOn *time.Time,
) error {
	query := `update runs
	set status = $1,
		duration_ms = $2,
		total_scenarios = $3,
		total_steps = $4,
		passed_steps = $5,
		failed_steps = $6,
		failure_details = $7,
		ended_on = $8
	where run_id = $9`
	_, err := store.rwdb.ExecContext(
		ctx, query,
		status,
		durationMS,
		totals.Scenarios,
		totals.Steps,
		totals.Passed,
		totals.Failed,
		failureDetails,
		endedOn.Format(internal.DBTimestampLayout),
		id,
	)
	return err
}

// ReplaceStepResults removes any step results previously written for the run
// and bulk-inserts the given ones in a single transaction.
func (store *RunSQLiteStore) ReplaceStepResults(
	ctx context.Context,
	runID string,
	steps []StepResult,
) error {
	tx, err := store.rwdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx, "delete from step_results where step_run_id = $1", runID,
	); err != nil {
		return err
	}

	if len(steps) > 0 {
		placeholders := make([]string, 0, len(steps))
		args := make([]any, 0, len(steps)*8)
		for i, s := range steps {
			base := i * 8
			placeholders = append(placeholders, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
			))
			args = append(
				args,
				runID,
				s.ScenarioID,
				s.ScenarioName,
				s.CaseName,
				s.StepDefinition,
				s.Status,
				s.ErrorMessage,
				s.DurationMS,
			)
		}
		query := `insert into step_results (
			step_run_id,
			scenario_id,
			scenario_name,
			case_name,
			step_definition,
			status,
			error_message,
			duration_ms
		)
		values ` + strings.Join(placeholders, ", ")
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (store *RunSQLiteStore) DeleteRun(ctx context.Context, id string) error {
	query := "delete from runs where run_id = $1"
	_, err := store.rwdb.ExecContext(ctx, query, id)
	return err
}

func (store *RunSQLiteStore) ListStepResults(
	ctx context.Context,
	runID string,
) ([]StepResult, error) {
	query := `select * from step_results
	where step_run_id = $1
	order by step_result_id`
	steps := make([]StepResult, 0)
	err := sqlscan.Select(ctx, store.rdb, &steps, query, runID)
	return steps, err
}

func (store *RunSQLiteStore) ListBatchRuns(
	ctx context.Context,
	batchID string,
) ([]Run, error) {
	query := `select * from runs
	where run_batch_id = $1
	order by created_on`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, batchID)
	return runs, err
}

func (store *RunSQLiteStore) ListReleaseRunsPaginated(
	ctx context.Context,
	releaseID, limit, offset int64,
) ([]Run, error) {
	query := `select * from runs
	where release_id = $1
	order by created_on desc limit $2 offset $3`
	runs := make([]Run, 0)
	err := sqlscan.Select(ctx, store.rdb, &runs, query, releaseID, limit, offset)
	return runs, err
}

func (store *RunSQLiteStore) CountReleaseRuns(
	ctx context.Context,
	releaseID int64,
) (int64, error) {
	var count int64
	query := `select count(*) from runs where release_id = $1`
	err := sqlscan.Get(ctx, store.rdb, &count, query, releaseID)
	return count, err
}
