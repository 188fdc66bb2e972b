// Package up42 exposes the projects, workflows and jobs of the UP42 platform
// as local proxies over its REST API.
package up42

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/iancoleman/strcase"

	"github.com/psantana5/up42-go/pkg/api"
	"github.com/psantana5/up42-go/pkg/auth"
	"github.com/psantana5/up42-go/pkg/models"
)

var (
	// ErrNoJobMode is returned when both test and real jobs are filtered out
	ErrNoJobMode = errors.New("at least one of test jobs or real jobs must be selected")

	// ErrInvalidSetting is returned for setting values outside the allowed range
	ErrInvalidSetting = errors.New("invalid project setting")
)

// Project is the local proxy of a platform project
type Project struct {
	ProjectID string

	auth   *auth.Auth
	logger hclog.Logger
	cache  infoCache
}

// NewProject binds a project. An empty projectID uses the one of the auth
// session. Info is fetched right away when a.GetInfo is set.
func NewProject(ctx context.Context, a *auth.Auth, projectID string) (*Project, error) {
	if projectID == "" {
		projectID = a.ProjectID
	}
	p := &Project{
		ProjectID: projectID,
		auth:      a,
		logger:    a.Logger().Named("project"),
	}
	if a.GetInfo {
		if _, err := p.GetInfo(ctx); err != nil {
			return nil, fmt.Errorf("failed to get project info: %w", err)
		}
	}
	return p, nil
}

// Auth returns the session the project was bound with
func (p *Project) Auth() *auth.Auth {
	return p.auth
}

func (p *Project) url() string {
	return projectURL(p.auth, p.ProjectID)
}

// GetInfo fetches the project record and caches it
func (p *Project) GetInfo(ctx context.Context) (map[string]interface{}, error) {
	info, err := getRecord(ctx, p.auth, p.url())
	if err != nil {
		return nil, err
	}
	p.cache.set(info)
	return info, nil
}

// Info returns the cached project record, fetching it on first use
func (p *Project) Info(ctx context.Context) (map[string]interface{}, error) {
	if info, ok := p.cache.get(); ok {
		return info, nil
	}
	return p.GetInfo(ctx)
}

// HasInfo reports whether the project record is cached
func (p *Project) HasInfo() bool {
	return p.cache.has()
}

// InvalidateInfo drops the cached record so the next Info fetches again
func (p *Project) InvalidateInfo() {
	p.cache.invalidate()
}

// CreateWorkflow creates a new workflow. With useExisting set, a workflow
// with the same name and description is reused when the project has one.
// Newly created workflows carry no info.
func (p *Project) CreateWorkflow(ctx context.Context, name, description string, useExisting bool) (*Workflow, error) {
	if useExisting {
		existing, err := p.findWorkflow(ctx, name, description)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			p.logger.Info("using existing workflow", "workflow_id", existing.WorkflowID, "name", name)
			return existing, nil
		}
		p.logger.Debug("no matching workflow, creating a new one", "name", name)
	}

	var created models.WorkflowSummary
	body := map[string]string{"name": name, "description": description}
	if err := p.auth.Requester().Post(ctx, p.url()+"/workflows/", body, &created); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("failed to create workflow: %w: no id in response", api.ErrMalformedEnvelope)
	}

	p.logger.Info("created new workflow", "workflow_id", created.ID, "name", name)
	return newWorkflow(p.auth, p.ProjectID, created.ID, created.DisplayID), nil
}

// findWorkflow matches listing records on name and description. Records
// that carry neither are matched on their info, which is fetched for them.
func (p *Project) findWorkflow(ctx context.Context, name, description string) (*Workflow, error) {
	summaries, err := p.listWorkflows(ctx)
	if err != nil {
		return nil, err
	}

	for _, s := range summaries {
		if s.Name != "" || s.Description != "" {
			if s.Name != name || s.Description != description {
				continue
			}
		}

		w := newWorkflow(p.auth, p.ProjectID, s.ID, s.DisplayID)
		info, err := w.GetInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get workflow info: %w", err)
		}
		if stringField(info, "name") == name && stringField(info, "description") == description {
			return w, nil
		}
	}
	return nil, nil
}

func (p *Project) listWorkflows(ctx context.Context) ([]models.WorkflowSummary, error) {
	var summaries []models.WorkflowSummary
	if err := p.auth.Requester().Get(ctx, p.url()+"/workflows", &summaries); err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return summaries, nil
}

// GetWorkflows returns one Workflow per workflow of the project, in the
// order the platform lists them.
func (p *Project) GetWorkflows(ctx context.Context) ([]*Workflow, error) {
	summaries, err := p.listWorkflows(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*Workflow, 0, len(summaries))
	for _, s := range summaries {
		w := newWorkflow(p.auth, p.ProjectID, s.ID, s.DisplayID)
		if p.auth.GetInfo {
			if _, err := w.GetInfo(ctx); err != nil {
				return nil, fmt.Errorf("failed to get workflow info: %w", err)
			}
		}
		workflows = append(workflows, w)
	}

	p.logger.Info("got workflows", "count", len(workflows), "project_id", p.ProjectID)
	return workflows, nil
}

// GetWorkflowsJSON returns the raw workflow listing
func (p *Project) GetWorkflowsJSON(ctx context.Context) ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	if err := p.auth.Requester().Get(ctx, p.url()+"/workflows", &records); err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return records, nil
}

// JobsOption filters job listings
type JobsOption func(*jobsOptions)

type jobsOptions struct {
	testJobs   bool
	realJobs   bool
	workflowID string
}

// WithTestJobs includes (or excludes) dry run jobs
func WithTestJobs(include bool) JobsOption {
	return func(o *jobsOptions) { o.testJobs = include }
}

// WithRealJobs includes (or excludes) regular jobs
func WithRealJobs(include bool) JobsOption {
	return func(o *jobsOptions) { o.realJobs = include }
}

func newJobsOptions(opts []JobsOption) (jobsOptions, error) {
	o := jobsOptions{testJobs: true, realJobs: true}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.testJobs && !o.realJobs {
		return o, ErrNoJobMode
	}
	return o, nil
}

func (o jobsOptions) keep(s models.JobSummary) bool {
	if o.workflowID != "" && s.WorkflowID != o.workflowID {
		return false
	}
	if s.Mode == models.JobModeDryRun {
		return o.testJobs
	}
	return o.realJobs
}

// GetJobs returns the jobs of the project, in listing order
func (p *Project) GetJobs(ctx context.Context, opts ...JobsOption) (*JobCollection, error) {
	o, err := newJobsOptions(opts)
	if err != nil {
		return nil, err
	}
	return listJobs(ctx, p.auth, p.ProjectID, o, p.logger)
}

// GetJobsJSON returns the raw job listing records that pass the filters
func (p *Project) GetJobsJSON(ctx context.Context, opts ...JobsOption) ([]map[string]interface{}, error) {
	o, err := newJobsOptions(opts)
	if err != nil {
		return nil, err
	}
	records, summaries, err := fetchJobListing(ctx, p.auth, p.ProjectID)
	if err != nil {
		return nil, err
	}
	filtered := make([]map[string]interface{}, 0, len(records))
	for i, record := range records {
		if o.keep(summaries[i]) {
			filtered = append(filtered, record)
		}
	}
	return filtered, nil
}

func fetchJobListing(ctx context.Context, a *auth.Auth, projectID string) ([]map[string]interface{}, []models.JobSummary, error) {
	var records []map[string]interface{}
	if err := a.Requester().Get(ctx, projectURL(a, projectID)+"/jobs", &records); err != nil {
		return nil, nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	summaries := make([]models.JobSummary, len(records))
	for i, record := range records {
		if err := decodeRecord(record, &summaries[i]); err != nil {
			return nil, nil, fmt.Errorf("failed to decode job listing: %w", err)
		}
	}
	return records, summaries, nil
}

func listJobs(ctx context.Context, a *auth.Auth, projectID string, o jobsOptions, logger hclog.Logger) (*JobCollection, error) {
	_, summaries, err := fetchJobListing(ctx, a, projectID)
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(summaries))
	for i := range summaries {
		if !o.keep(summaries[i]) {
			continue
		}
		job, err := NewJob(ctx, a, projectID, summaries[i].ID, &summaries[i])
		if errors.Is(err, ErrInvalidJobID) {
			logger.Warn("skipping job with invalid id", "job_id", summaries[i].ID, "project_id", projectID)
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	logger.Info("got jobs", "count", len(jobs), "project_id", projectID)
	return NewJobCollection(projectID, jobs), nil
}

// GetProjectSettings returns the project setting records in server order,
// exactly as the platform sent them.
func (p *Project) GetProjectSettings(ctx context.Context) ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	if err := p.auth.Requester().Get(ctx, p.url()+"/settings", &records); err != nil {
		return nil, fmt.Errorf("failed to get project settings: %w", err)
	}
	return records, nil
}

func (p *Project) settings(ctx context.Context) ([]models.Setting, error) {
	records, err := p.GetProjectSettings(ctx)
	if err != nil {
		return nil, err
	}
	settings := make([]models.Setting, len(records))
	for i, record := range records {
		if err := decodeRecord(record, &settings[i]); err != nil {
			return nil, fmt.Errorf("failed to decode project settings: %w", err)
		}
	}
	return settings, nil
}

// Setting returns a single setting. The exact platform name is tried first,
// then its platform spelling, so "max-concurrent-jobs" finds
// MAX_CONCURRENT_JOBS.
func (p *Project) Setting(ctx context.Context, name string) (models.Setting, error) {
	settings, err := p.settings(ctx)
	if err != nil {
		return models.Setting{}, err
	}
	return findSetting(settings, name)
}

func findSetting(settings []models.Setting, name string) (models.Setting, error) {
	for _, s := range settings {
		if s.Name == name {
			return s, nil
		}
	}
	want := strcase.ToScreamingSnake(name)
	for _, s := range settings {
		if s.Name == want {
			return s, nil
		}
	}
	return models.Setting{}, fmt.Errorf("setting %s: %w", name, api.ErrNotFound)
}

// MaxConcurrentJobs returns the MAX_CONCURRENT_JOBS setting of the project
func (p *Project) MaxConcurrentJobs(ctx context.Context) (int, error) {
	s, err := p.Setting(ctx, models.SettingMaxConcurrentJobs)
	if err != nil {
		return 0, err
	}
	value, err := s.IntValue()
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", s.Name, err)
	}
	return value, nil
}

// SettingsUpdate holds the settings to change. Nil fields keep their
// current value.
type SettingsUpdate struct {
	MaxAOISize        *int
	MaxConcurrentJobs *int
	NumberOfImages    *int
}

// UpdateProjectSettings writes the three job limits of the project. Values
// outside a setting's advertised range are rejected before sending.
func (p *Project) UpdateProjectSettings(ctx context.Context, update SettingsUpdate) error {
	current, err := p.settings(ctx)
	if err != nil {
		return err
	}

	desired := []struct {
		name  string
		value *int
	}{
		{models.SettingMaxAOISize, update.MaxAOISize},
		{models.SettingMaxConcurrentJobs, update.MaxConcurrentJobs},
		{models.SettingMaxNumberOfImages, update.NumberOfImages},
	}

	values := make(map[string]string, len(desired))
	for _, d := range desired {
		existing, findErr := findSetting(current, d.name)
		if d.value == nil {
			if findErr != nil {
				return fmt.Errorf("failed to update project settings: %w", findErr)
			}
			values[d.name] = settingString(existing.Value)
			continue
		}
		if findErr == nil {
			if err := validateSettingValue(existing, *d.value); err != nil {
				return err
			}
		}
		values[d.name] = strconv.Itoa(*d.value)
	}

	body := map[string]interface{}{"settings": values}
	if err := p.auth.Requester().Post(ctx, p.url()+"/settings", body, nil); err != nil {
		return fmt.Errorf("failed to update project settings: %w", err)
	}

	p.logger.Info("updated project settings", "settings", values)
	return nil
}

func validateSettingValue(s models.Setting, value int) error {
	var rules []validation.Rule
	if lo, err := (models.Setting{Value: s.MinValue}).IntValue(); err == nil {
		// threshold rules skip zero values
		if lo > 0 {
			rules = append(rules, validation.Required)
		}
		rules = append(rules, validation.Min(lo))
	}
	if hi, err := (models.Setting{Value: s.MaxValue}).IntValue(); err == nil {
		rules = append(rules, validation.Max(hi))
	}
	if err := validation.Validate(value, rules...); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSetting, s.Name, err)
	}
	return nil
}

func settingString(v interface{}) string {
	if n, err := (models.Setting{Value: v}).IntValue(); err == nil {
		return strconv.Itoa(n)
	}
	return fmt.Sprint(v)
}

func (p *Project) String() string {
	info, _ := p.cache.get()
	return fmt.Sprintf("Project(name=%s, project_id=%s, description=%s, createdAt=%s)",
		stringField(info, "name"), p.ProjectID, stringField(info, "description"), stringField(info, "createdAt"))
}
