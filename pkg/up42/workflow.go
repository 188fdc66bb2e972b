package up42

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hashicorp/go-hclog"

	"github.com/psantana5/up42-go/pkg/api"
	"github.com/psantana5/up42-go/pkg/auth"
	"github.com/psantana5/up42-go/pkg/models"
)

// Workflow is the local proxy of a workflow in a project
type Workflow struct {
	WorkflowID string
	DisplayID  string
	ProjectID  string

	auth   *auth.Auth
	logger hclog.Logger
	cache  infoCache
}

// NewWorkflow binds an existing workflow. Info is fetched right away when
// a.GetInfo is set.
func NewWorkflow(ctx context.Context, a *auth.Auth, projectID, workflowID string) (*Workflow, error) {
	w := newWorkflow(a, projectID, workflowID, "")
	if a.GetInfo {
		info, err := w.GetInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get workflow info: %w", err)
		}
		w.DisplayID = stringField(info, "displayId")
	}
	return w, nil
}

func newWorkflow(a *auth.Auth, projectID, workflowID, displayID string) *Workflow {
	return &Workflow{
		WorkflowID: workflowID,
		DisplayID:  displayID,
		ProjectID:  projectID,
		auth:       a,
		logger:     a.Logger().Named("workflow"),
	}
}

func (w *Workflow) url() string {
	return fmt.Sprintf("%s/workflows/%s", projectURL(w.auth, w.ProjectID), w.WorkflowID)
}

// GetInfo fetches the workflow record and caches it
func (w *Workflow) GetInfo(ctx context.Context) (map[string]interface{}, error) {
	info, err := getRecord(ctx, w.auth, w.url())
	if err != nil {
		return nil, err
	}
	w.cache.set(info)
	return info, nil
}

// Info returns the cached workflow record, fetching it on first use
func (w *Workflow) Info(ctx context.Context) (map[string]interface{}, error) {
	if info, ok := w.cache.get(); ok {
		return info, nil
	}
	return w.GetInfo(ctx)
}

// HasInfo reports whether the workflow record is cached
func (w *Workflow) HasInfo() bool {
	return w.cache.has()
}

// InvalidateInfo drops the cached record
func (w *Workflow) InvalidateInfo() {
	w.cache.invalidate()
}

// DecodeInfo decodes the workflow record into out, usually a
// *models.WorkflowInfo.
func (w *Workflow) DecodeInfo(ctx context.Context, out interface{}) error {
	info, err := w.Info(ctx)
	if err != nil {
		return err
	}
	return decodeRecord(info, out)
}

// GetWorkflowTasks returns the blocks of the workflow
func (w *Workflow) GetWorkflowTasks(ctx context.Context) ([]models.WorkflowTask, error) {
	var tasks []models.WorkflowTask
	if err := w.auth.Requester().Get(ctx, w.url()+"/tasks", &tasks); err != nil {
		return nil, fmt.Errorf("failed to get workflow tasks: %w", err)
	}
	w.logger.Debug("got workflow tasks", "workflow_id", w.WorkflowID, "count", len(tasks))
	return tasks, nil
}

// UpdateName renames the workflow. Empty values are left unchanged.
func (w *Workflow) UpdateName(ctx context.Context, name, description string) error {
	body := map[string]string{}
	if name != "" {
		body["name"] = name
	}
	if description != "" {
		body["description"] = description
	}
	if len(body) == 0 {
		return nil
	}

	if err := w.auth.Requester().Put(ctx, w.url(), body, nil); err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	w.cache.invalidate()
	w.logger.Info("updated workflow", "workflow_id", w.WorkflowID, "name", name)
	return nil
}

// Delete removes the workflow from the platform
func (w *Workflow) Delete(ctx context.Context) error {
	if err := w.auth.Requester().Delete(ctx, w.url()); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}
	w.cache.invalidate()
	w.logger.Info("deleted workflow", "workflow_id", w.WorkflowID)
	return nil
}

// GetJobs returns the project jobs that ran this workflow
func (w *Workflow) GetJobs(ctx context.Context, opts ...JobsOption) (*JobCollection, error) {
	o, err := newJobsOptions(opts)
	if err != nil {
		return nil, err
	}
	o.workflowID = w.WorkflowID
	return listJobs(ctx, w.auth, w.ProjectID, o, w.logger)
}

// RunJob starts a job with the given input parameters. An empty name
// derives one from the workflow name.
func (w *Workflow) RunJob(ctx context.Context, params map[string]interface{}, name string) (*Job, error) {
	return w.startJob(ctx, params, name, false)
}

// TestJob starts a dry run job, which validates the parameters without
// processing data.
func (w *Workflow) TestJob(ctx context.Context, params map[string]interface{}, name string) (*Job, error) {
	return w.startJob(ctx, params, name, true)
}

func (w *Workflow) startJob(ctx context.Context, params map[string]interface{}, name string, dryRun bool) (*Job, error) {
	body := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		body[k] = v
	}
	if dryRun {
		body["config"] = map[string]interface{}{"mode": string(models.JobModeDryRun)}
	}

	if name == "" {
		info, err := w.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get workflow info: %w", err)
		}
		base := stringField(info, "name")
		if base == "" {
			base = w.WorkflowID
		}
		name = base + "_job"
	}

	var record map[string]interface{}
	endpoint := w.url() + "/jobs?name=" + url.QueryEscape(name)
	if err := w.auth.Requester().Post(ctx, endpoint, body, &record); err != nil {
		return nil, fmt.Errorf("failed to start job: %w", err)
	}

	var summary models.JobSummary
	if err := decodeRecord(record, &summary); err != nil {
		return nil, err
	}
	if summary.ID == "" {
		return nil, fmt.Errorf("failed to start job: %w: no id in response", api.ErrMalformedEnvelope)
	}
	if summary.WorkflowID == "" {
		summary.WorkflowID = w.WorkflowID
	}
	if summary.Mode == "" {
		summary.Mode = models.JobModeDefault
		if dryRun {
			summary.Mode = models.JobModeDryRun
		}
	}

	w.logger.Info("created and running new job", "job_id", summary.ID, "name", name, "dry_run", dryRun)
	return NewJob(ctx, w.auth, w.ProjectID, summary.ID, &summary)
}

func (w *Workflow) String() string {
	info, _ := w.cache.get()
	return fmt.Sprintf("Workflow(name=%s, workflow_id=%s, description=%s, project_id=%s)",
		stringField(info, "name"), w.WorkflowID, stringField(info, "description"), w.ProjectID)
}
