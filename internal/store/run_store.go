package store

import (
	"context"
	"time"
)

type RunStore interface {
	CreateRun(context.Context, *Run) (*Run, error)
	ReadRunByID(context.Context, string) (*Run, error)
	UpdateRunStartedOn(context.Context, string, RunStatus, *time.Time) error
	FinalizeRun(context.Context, string, RunStatus, *int64, RunTotals, *string, *time.Time) error
	ReplaceStepResults(context.Context, string, []StepResult) error
	DeleteRun(context.Context, string) error
	ListStepResults(context.Context, string) ([]StepResult, error)
	ListBatchRuns(context.Context, string) ([]Run, error)
	ListReleaseRunsPaginated(context.Context, int64, int64, int64) ([]Run, error)
	CountReleaseRuns(context.Context, int64) (int64, error)
}
