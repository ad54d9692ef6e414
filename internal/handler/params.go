package handler

type SubmitRunParams struct {
	TestSetID   int64  `param:"test_set_id"`
	ReleaseID   int64  `json:"release_id"`
	Environment string `json:"environment"`
}

type SubmitBatchParams struct {
	ReleaseID   int64   `param:"release_id"`
	Environment string  `json:"environment"`
	TestSetIDs  []int64 `json:"test_set_ids"`
}

type RunParams struct {
	RunID string `param:"run_id"`
}

type ListRunsParams struct {
	ReleaseID int64 `query:"release_id"`
	Page      int64 `query:"page"`
}

type BatchParams struct {
	BatchID string `param:"batch_id"`
}

type AgentParams struct {
	AgentID       int64  `param:"agent_id"`
	Name          string `json:"name"`
	Hostname      string `json:"hostname"`
	Username      string `json:"username"`
	Workspace     string `json:"workspace"`
	Description   string `json:"description"`
	SSHPrivateKey string `json:"ssh_private_key"`
}

type APIKeyParams struct {
	ID int64 `param:"id"`
}

type ScheduleParams struct {
	ScheduleID     int64  `param:"schedule_id"`
	ReleaseID      int64  `json:"release_id"`
	Environment    string `json:"environment"`
	CronExpression string `json:"cron_expression"`
}
