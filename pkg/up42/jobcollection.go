package up42

import (
	"context"
	"fmt"
	"iter"

	"github.com/hashicorp/go-multierror"

	"github.com/psantana5/up42-go/pkg/models"
)

// JobCollection is an ordered group of jobs of one project
type JobCollection struct {
	ProjectID string
	Jobs      []*Job
}

// NewJobCollection groups jobs. The collection does not own them.
func NewJobCollection(projectID string, jobs []*Job) *JobCollection {
	return &JobCollection{ProjectID: projectID, Jobs: jobs}
}

// Len returns the number of jobs
func (c *JobCollection) Len() int {
	return len(c.Jobs)
}

// All iterates the jobs in order
func (c *JobCollection) All() iter.Seq2[int, *Job] {
	return func(yield func(int, *Job) bool) {
		for i, j := range c.Jobs {
			if !yield(i, j) {
				return
			}
		}
	}
}

// Info returns the info record of every job by job id. Failures are
// collected; the map holds every job that could be read.
func (c *JobCollection) Info(ctx context.Context) (map[string]map[string]interface{}, error) {
	out := make(map[string]map[string]interface{}, len(c.Jobs))
	err := c.Apply(ctx, func(ctx context.Context, j *Job) error {
		info, err := j.Info(ctx)
		if err != nil {
			return err
		}
		out[j.JobID] = info
		return nil
	})
	return out, err
}

// Status refreshes and returns the status of every job by job id
func (c *JobCollection) Status(ctx context.Context) (map[string]models.JobStatus, error) {
	out := make(map[string]models.JobStatus, len(c.Jobs))
	err := c.Apply(ctx, func(ctx context.Context, j *Job) error {
		status, err := j.RefreshStatus(ctx)
		if err != nil {
			return err
		}
		out[j.JobID] = status
		return nil
	})
	return out, err
}

// Apply runs fn on every job in order. It stops early only when ctx is
// done; other errors are aggregated.
func (c *JobCollection) Apply(ctx context.Context, fn func(context.Context, *Job) error) error {
	var result *multierror.Error
	for _, j := range c.Jobs {
		if err := ctx.Err(); err != nil {
			return multierror.Append(result, err).ErrorOrNil()
		}
		if err := fn(ctx, j); err != nil {
			result = multierror.Append(result, fmt.Errorf("job %s: %w", j.JobID, err))
		}
	}
	return result.ErrorOrNil()
}

func (c *JobCollection) String() string {
	return fmt.Sprintf("JobCollection(len=%d, project_id=%s)", len(c.Jobs), c.ProjectID)
}
