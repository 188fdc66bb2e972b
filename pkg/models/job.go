package models

// JobStatus represents the status of a job as reported by the platform
type JobStatus string

const (
	JobStatusNotStarted JobStatus = "NOT_STARTED"
	JobStatusPending    JobStatus = "PENDING"
	JobStatusRunning    JobStatus = "RUNNING"
	JobStatusCancelling JobStatus = "CANCELLING"
	JobStatusSucceeded  JobStatus = "SUCCEEDED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusError      JobStatus = "ERROR"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// IsTerminal reports whether the job will not change status anymore
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusError, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// IsFailure reports whether the job ended without producing results
func (s JobStatus) IsFailure() bool {
	return s == JobStatusFailed || s == JobStatusError
}

// JobMode distinguishes real jobs from test (dry run) jobs
type JobMode string

const (
	JobModeDefault JobMode = "DEFAULT"
	JobModeDryRun  JobMode = "DRY_RUN"
)

// JobSummary is one record of the project job listing
type JobSummary struct {
	ID         string                 `mapstructure:"id" json:"id"`
	Name       string                 `mapstructure:"name" json:"name,omitempty"`
	Status     JobStatus              `mapstructure:"status" json:"status"`
	Mode       JobMode                `mapstructure:"mode" json:"mode,omitempty"`
	WorkflowID string                 `mapstructure:"workflowId" json:"workflowId,omitempty"`
	Inputs     map[string]interface{} `mapstructure:"inputs" json:"inputs,omitempty"`
}

// JobInfo is the typed view of a job detail record
type JobInfo struct {
	ID         string                 `mapstructure:"id" json:"id,omitempty"`
	Name       string                 `mapstructure:"name" json:"name,omitempty"`
	Status     JobStatus              `mapstructure:"status" json:"status,omitempty"`
	Mode       JobMode                `mapstructure:"mode" json:"mode,omitempty"`
	WorkflowID string                 `mapstructure:"workflowId" json:"workflowId,omitempty"`
	Inputs     map[string]interface{} `mapstructure:"inputs" json:"inputs,omitempty"`
	CreatedAt  string                 `mapstructure:"createdAt" json:"createdAt,omitempty"`
	StartedAt  string                 `mapstructure:"startedAt" json:"startedAt,omitempty"`
	FinishedAt string                 `mapstructure:"finishedAt" json:"finishedAt,omitempty"`
}

// JobTask is one task of a running or finished job
type JobTask struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       JobStatus `json:"status"`
	BlockName    string    `json:"blockName,omitempty"`
	BlockVersion string    `json:"blockVersion,omitempty"`
	StartedAt    string    `json:"startedAt,omitempty"`
	FinishedAt   string    `json:"finishedAt,omitempty"`
}
