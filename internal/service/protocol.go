package service

import (
	"encoding/json"
	"strings"

	"github.com/haatos/simple-qa/internal"
)

type WorkerEventKind int

const (
	EventNoise WorkerEventKind = iota
	EventProgress
	EventResult
)

// ProgressEvent describes the worker's current scenario/step position. It is
// forwarded to live subscribers and never persisted.
type ProgressEvent struct {
	RunID           string `json:"runId"`
	CurrentScenario int    `json:"currentScenario"`
	TotalScenarios  int    `json:"totalScenarios"`
	ScenarioName    string `json:"scenarioName"`
	CaseName        string `json:"caseName"`
	CurrentStep     int    `json:"currentStep"`
	TotalSteps      int    `json:"totalSteps"`
	StepDefinition  string `json:"stepDefinition"`
}

type WorkerStep struct {
	ScenarioID     string `json:"scenarioId"`
	ScenarioName   string `json:"scenarioName"`
	CaseName       string `json:"caseName"`
	StepDefinition string `json:"stepDefinition"`
	Status         string `json:"status"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	DurationMS     int64  `json:"durationMs"`
}

// WorkerResult is the terminal payload of a run. Pass/fail travels here, not
// in the process exit code.
type WorkerResult struct {
	Status         string       `json:"status"`
	DurationMS     int64        `json:"durationMs"`
	TotalScenarios int64        `json:"totalScenarios"`
	TotalSteps     int64        `json:"totalSteps"`
	PassedSteps    int64        `json:"passedSteps"`
	FailedSteps    int64        `json:"failedSteps"`
	Steps          []WorkerStep `json:"steps"`
}

type WorkerEvent struct {
	Kind     WorkerEventKind
	Progress *ProgressEvent
	Result   *WorkerResult
}

// ParseWorkerLine classifies one stdout line from a worker process. Lines
// without a known marker, and marked lines whose payload does not parse, are
// noise.
func ParseWorkerLine(runID, line string) WorkerEvent {
	switch {
	case strings.HasPrefix(line, internal.ProgressMarker):
		p := new(ProgressEvent)
		if err := json.Unmarshal(
			[]byte(strings.TrimPrefix(line, internal.ProgressMarker)), p,
		); err != nil {
			return WorkerEvent{Kind: EventNoise}
		}
		p.RunID = runID
		return WorkerEvent{Kind: EventProgress, Progress: p}
	case strings.HasPrefix(line, internal.ResultMarker):
		r := new(WorkerResult)
		if err := json.Unmarshal(
			[]byte(strings.TrimPrefix(line, internal.ResultMarker)), r,
		); err != nil {
			return WorkerEvent{Kind: EventNoise}
		}
		return WorkerEvent{Kind: EventResult, Result: r}
	default:
		return WorkerEvent{Kind: EventNoise}
	}
}
