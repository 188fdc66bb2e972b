package up42

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/psantana5/up42-go/pkg/api"
	"github.com/psantana5/up42-go/pkg/auth"
	"github.com/psantana5/up42-go/pkg/models"
)

var (
	// ErrInvalidJobID is returned for job ids that are not UUIDs
	ErrInvalidJobID = errors.New("invalid job id")

	// ErrJobFailed is returned by TrackStatus when a job ends unsuccessfully
	ErrJobFailed = errors.New("job did not succeed")
)

// DefaultTrackInterval is the polling interval of TrackStatus
const DefaultTrackInterval = 30 * time.Second

// Job is the local proxy of a job in a project
type Job struct {
	JobID      string
	ProjectID  string
	WorkflowID string
	Mode       models.JobMode
	Inputs     map[string]interface{}

	auth   *auth.Auth
	logger hclog.Logger
	cache  infoCache

	mu     sync.Mutex
	status models.JobStatus
}

// NewJob binds a job. summary, when given, seeds the fields known from a
// listing. Info is fetched right away when a.GetInfo is set.
func NewJob(ctx context.Context, a *auth.Auth, projectID, jobID string, summary *models.JobSummary) (*Job, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidJobID, jobID)
	}

	j := &Job{
		JobID:     jobID,
		ProjectID: projectID,
		auth:      a,
		logger:    a.Logger().Named("job"),
	}
	if summary != nil {
		j.WorkflowID = summary.WorkflowID
		j.Mode = summary.Mode
		j.Inputs = summary.Inputs
		j.status = summary.Status
	}

	if a.GetInfo {
		if _, err := j.GetInfo(ctx); err != nil {
			return nil, fmt.Errorf("failed to get job info: %w", err)
		}
	}
	return j, nil
}

func (j *Job) url() string {
	return fmt.Sprintf("%s/jobs/%s", projectURL(j.auth, j.ProjectID), j.JobID)
}

// GetInfo fetches the job record, caches it and updates the known status
func (j *Job) GetInfo(ctx context.Context) (map[string]interface{}, error) {
	info, err := getRecord(ctx, j.auth, j.url())
	if err != nil {
		return nil, err
	}
	j.cache.set(info)
	if status := stringField(info, "status"); status != "" {
		j.setStatus(models.JobStatus(status))
	}
	return info, nil
}

// Info returns the cached job record, fetching it on first use
func (j *Job) Info(ctx context.Context) (map[string]interface{}, error) {
	if info, ok := j.cache.get(); ok {
		return info, nil
	}
	return j.GetInfo(ctx)
}

// HasInfo reports whether the job record is cached
func (j *Job) HasInfo() bool {
	return j.cache.has()
}

// InvalidateInfo drops the cached record
func (j *Job) InvalidateInfo() {
	j.cache.invalidate()
}

// DecodeInfo decodes the job record into out, usually a *models.JobInfo
func (j *Job) DecodeInfo(ctx context.Context, out interface{}) error {
	info, err := j.Info(ctx)
	if err != nil {
		return err
	}
	return decodeRecord(info, out)
}

// Status returns the last known status without contacting the platform
func (j *Job) Status() models.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) setStatus(status models.JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = status
}

// RefreshStatus fetches the job record again and returns its status
func (j *Job) RefreshStatus(ctx context.Context) (models.JobStatus, error) {
	if _, err := j.GetInfo(ctx); err != nil {
		return "", fmt.Errorf("failed to get job status: %w", err)
	}
	status := j.Status()
	j.logger.Debug("job status", "job_id", j.JobID, "status", status)
	return status, nil
}

// IsSucceeded refreshes the status and reports whether the job succeeded
func (j *Job) IsSucceeded(ctx context.Context) (bool, error) {
	status, err := j.RefreshStatus(ctx)
	if err != nil {
		return false, err
	}
	return status == models.JobStatusSucceeded, nil
}

// CreatedAt parses the creation timestamp of the job record
func (j *Job) CreatedAt(ctx context.Context) (time.Time, error) {
	info, err := j.Info(ctx)
	if err != nil {
		return time.Time{}, err
	}
	raw := stringField(info, "createdAt")
	if raw == "" {
		return time.Time{}, fmt.Errorf("job %s createdAt: %w", j.JobID, api.ErrNotFound)
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse createdAt %q: %w", raw, err)
	}
	return t, nil
}

// TrackStatus polls the job every interval until it reaches a terminal
// status. Jobs ending FAILED, ERROR or CANCELLED return ErrJobFailed.
func (j *Job) TrackStatus(ctx context.Context, interval time.Duration) (models.JobStatus, error) {
	if interval <= 0 {
		interval = DefaultTrackInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := j.RefreshStatus(ctx)
		if err != nil {
			return status, err
		}

		if status.IsTerminal() {
			if status != models.JobStatusSucceeded {
				return status, fmt.Errorf("job %s is %s: %w", j.JobID, status, ErrJobFailed)
			}
			j.logger.Info("job finished successfully", "job_id", j.JobID)
			return status, nil
		}
		j.logger.Info("tracking job status", "job_id", j.JobID, "status", status)

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cancel asks the platform to cancel the job
func (j *Job) Cancel(ctx context.Context) error {
	if err := j.auth.Requester().Post(ctx, j.url()+"/cancel/", nil, nil); err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	j.cache.invalidate()
	j.logger.Info("job cancelled", "job_id", j.JobID)
	return nil
}

// GetJobTasks returns the tasks of the job
func (j *Job) GetJobTasks(ctx context.Context) ([]models.JobTask, error) {
	var tasks []models.JobTask
	if err := j.auth.Requester().Get(ctx, j.url()+"/tasks", &tasks); err != nil {
		return nil, fmt.Errorf("failed to get job tasks: %w", err)
	}
	return tasks, nil
}

func (j *Job) String() string {
	return fmt.Sprintf("Job(job_id=%s, status=%s, mode=%s, project_id=%s)",
		j.JobID, j.Status(), j.Mode, j.ProjectID)
}
