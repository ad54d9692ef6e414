package service

import (
	"context"
	"fmt"
	"time"

	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/util"
)

func NewResultCollector(runStore store.RunStore) *ResultCollector {
	return &ResultCollector{runStore: runStore}
}

// ResultCollector is the only component that writes terminal status to a run.
type ResultCollector struct {
	runStore store.RunStore
}

func (c *ResultCollector) MarkRunning(ctx context.Context, runID string) error {
	startedOn := time.Now().UTC()
	return c.runStore.UpdateRunStartedOn(ctx, runID, store.StatusRunning, &startedOn)
}

// Collect turns a worker outcome into durable state and returns the updated
// run. Collecting the same run twice overwrites the previous terminal state.
func (c *ResultCollector) Collect(
	ctx context.Context,
	runID string,
	outcome WorkerOutcome,
) (*store.Run, error) {
	endedOn := time.Now().UTC()

	var (
		status   store.RunStatus
		duration *int64
		totals   store.RunTotals
		details  *string
		steps    []store.StepResult
	)

	switch {
	case outcome.ExitCode != 0:
		status = store.StatusFailed
		if _, ok := outcome.Err.(RunCancelError); ok {
			details = util.AsPtr(outcome.Err.Error())
		} else if outcome.Err != nil {
			details = util.AsPtr(fmt.Sprintf("execution crashed: %v", outcome.Err))
		} else {
			details = util.AsPtr(fmt.Sprintf(
				"execution crashed: worker exited with code %d", outcome.ExitCode,
			))
		}
	case outcome.Result == nil:
		status = store.StatusFailed
		details = util.AsPtr("no result reported by worker")
	default:
		res := outcome.Result
		if res.Status == "passed" {
			status = store.StatusPassed
		} else {
			status = store.StatusFailed
		}
		duration = util.AsPtr(res.DurationMS)
		totals = store.RunTotals{
			Scenarios: res.TotalScenarios,
			Steps:     res.TotalSteps,
			Passed:    res.PassedSteps,
			Failed:    res.FailedSteps,
		}
		steps = make([]store.StepResult, 0, len(res.Steps))
		for _, s := range res.Steps {
			step := store.StepResult{
				StepRunID:      runID,
				ScenarioID:     s.ScenarioID,
				ScenarioName:   s.ScenarioName,
				CaseName:       s.CaseName,
				StepDefinition: s.StepDefinition,
				Status:         stepStatus(s.Status),
				DurationMS:     s.DurationMS,
			}
			if s.ErrorMessage != "" {
				step.ErrorMessage = util.AsPtr(s.ErrorMessage)
			}
			steps = append(steps, step)
		}
	}

	if err := c.runStore.FinalizeRun(
		ctx, runID, status, duration, totals, details, &endedOn,
	); err != nil {
		return nil, err
	}
	if err := c.runStore.ReplaceStepResults(ctx, runID, steps); err != nil {
		return nil, err
	}

	return c.runStore.ReadRunByID(ctx, runID)
}

func stepStatus(s string) store.StepStatus {
	switch store.StepStatus(s) {
	case store.StepPassed, store.StepSkipped:
		return store.StepStatus(s)
	default:
		return store.StepFailed
	}
}
