package store

import (
	"context"
	"time"
)

// Schedule triggers a full-release batch run on a cron expression.
type Schedule struct {
	ScheduleID     int64
	ReleaseID      int64
	Environment    string
	CronExpression string
	JobID          *string
	CreatedOn      time.Time
}

type ScheduleStore interface {
	CreateSchedule(context.Context, int64, string, string) (*Schedule, error)
	ReadScheduleByID(context.Context, int64) (*Schedule, error)
	UpdateScheduleJobID(context.Context, int64, *string) error
	DeleteSchedule(context.Context, int64) error
	ListSchedules(context.Context) ([]*Schedule, error)
}
