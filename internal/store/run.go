package store

import (
	"time"
)

type RunStatus string

const (
	StatusPending RunStatus = "pending"
	StatusRunning RunStatus = "running"
	StatusFailed  RunStatus = "failed"
	StatusPassed  RunStatus = "passed"
)

func (rs RunStatus) Terminal() bool {
	return rs == StatusPassed || rs == StatusFailed
}

// Run is one execution of a single test set against one environment.
type Run struct {
	RunID          string     `param:"run_id" json:"run_id"`
	RunBatchID     *string    `json:"run_batch_id"`
	TestSetID      int64      `json:"test_set_id"`
	ReleaseID      int64      `json:"release_id"`
	Environment    string     `json:"environment"`
	BaseURL        string     `json:"base_url"`
	Status         RunStatus  `json:"status"`
	CreatedOn      time.Time  `json:"created_on"`
	StartedOn      *time.Time `json:"started_on"`
	EndedOn        *time.Time `json:"ended_on"`
	DurationMS     *int64     `json:"duration_ms"`
	TotalScenarios int64      `json:"total_scenarios"`
	TotalSteps     int64      `json:"total_steps"`
	PassedSteps    int64      `json:"passed_steps"`
	FailedSteps    int64      `json:"failed_steps"`
	FailureDetails *string    `json:"failure_details"`
}

// RunTotals carries the aggregate counts reported by a finished worker.
type RunTotals struct {
	Scenarios int64
	Steps     int64
	Passed    int64
	Failed    int64
}

type StepStatus string

const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

type StepResult struct {
	StepResultID   int64      `json:"step_result_id"`
	StepRunID      string     `json:"step_run_id"`
	ScenarioID     string     `json:"scenario_id"`
	ScenarioName   string     `json:"scenario_name"`
	CaseName       string     `json:"case_name"`
	StepDefinition string     `json:"step_definition"`
	Status         StepStatus `json:"status"`
	ErrorMessage   *string    `json:"error_message"`
	DurationMS     int64      `json:"duration_ms"`
}
