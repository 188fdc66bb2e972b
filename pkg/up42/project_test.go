package up42

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/up42-go/pkg/api"
	"github.com/psantana5/up42-go/pkg/models"
)

func TestProject_GetInfo(t *testing.T) {
	server := newServer(t)
	p := newTestProject(t, server, true)
	assert.False(t, p.HasInfo())

	server.StubData(http.MethodGet, projectPath(), map[string]int{"xyz": 789})

	info, err := p.GetInfo(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 789, info["xyz"])

	cached, err := p.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, info, cached)
	assert.True(t, p.HasInfo())
}

func TestProject_InfoIsCached(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath(), map[string]int{"xyz": 789})

	p := newTestProject(t, server, true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		info, err := p.Info(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 789, info["xyz"])
	}
	assert.Equal(t, 1, server.Calls(http.MethodGet, projectPath()))

	p.InvalidateInfo()
	assert.False(t, p.HasInfo())
	_, err := p.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, server.Calls(http.MethodGet, projectPath()))
}

func TestNewProject_EagerInfo(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath(), map[string]string{"name": "project_name123"})

	a := newTestAuth(t, server, true)
	p, err := NewProject(context.Background(), a, "")
	require.NoError(t, err)
	assert.Equal(t, testProjectID, p.ProjectID)
	assert.True(t, p.HasInfo())
	assert.Contains(t, p.String(), "name=project_name123")
}

func TestNewProject_InfoError(t *testing.T) {
	server := newServer(t)
	server.StubError(http.MethodGet, projectPath(), http.StatusNotFound, "PROJECT_NOT_FOUND", "no such project")

	a := newTestAuth(t, server, true)
	_, err := NewProject(context.Background(), a, testProjectID)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	remote, ok := api.AsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, "PROJECT_NOT_FOUND", remote.Code)
}

func TestProject_CreateWorkflow(t *testing.T) {
	for _, getInfo := range []bool{false, true} {
		server := newServer(t)
		server.StubData(http.MethodPost, projectPath("workflows")+"/", map[string]string{
			"id":        testWorkflowID,
			"displayId": "workflow_displayId123",
		})

		p := newTestProject(t, server, getInfo)
		w, err := p.CreateWorkflow(context.Background(), "workflow_name123", "workflow_description123", false)
		require.NoError(t, err)

		assert.Equal(t, testWorkflowID, w.WorkflowID)
		assert.Equal(t, "workflow_displayId123", w.DisplayID)
		assert.Equal(t, testProjectID, w.ProjectID)
		assert.False(t, w.HasInfo())
		assert.Equal(t, 0, server.Calls(http.MethodGet, projectPath("workflows", testWorkflowID)))

		reqs := server.RequestsFor(http.MethodPost, projectPath("workflows")+"/")
		require.Len(t, reqs, 1)
		var body map[string]string
		require.NoError(t, reqs[0].JSON(&body))
		assert.Equal(t, map[string]string{"name": "workflow_name123", "description": "workflow_description123"}, body)
	}
}

func TestProject_CreateWorkflowUseExisting(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("workflows"), []map[string]string{{"id": testWorkflowID}})
	server.StubData(http.MethodGet, projectPath("workflows", testWorkflowID), map[string]string{
		"name":        "workflow_name123",
		"description": "workflow_description123",
	})

	p := newTestProject(t, server, true)
	w, err := p.CreateWorkflow(context.Background(), "workflow_name123", "workflow_description123", true)
	require.NoError(t, err)

	assert.Equal(t, testWorkflowID, w.WorkflowID)
	assert.Equal(t, testProjectID, w.ProjectID)
	assert.True(t, w.HasInfo())
	assert.Equal(t, 0, server.Calls(http.MethodPost, projectPath("workflows")+"/"), "no workflow created")
}

func TestProject_CreateWorkflowUseExistingMatchesListing(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("workflows"), []map[string]string{
		{"id": "workflow_other", "name": "other", "description": "workflow_description123"},
		{"id": testWorkflowID, "name": "workflow_name123", "description": "workflow_description123"},
	})
	server.StubData(http.MethodGet, projectPath("workflows", testWorkflowID), map[string]string{
		"name":        "workflow_name123",
		"description": "workflow_description123",
	})

	p := newTestProject(t, server, false)
	w, err := p.CreateWorkflow(context.Background(), "workflow_name123", "workflow_description123", true)
	require.NoError(t, err)
	assert.Equal(t, testWorkflowID, w.WorkflowID)
	assert.Equal(t, 0, server.Calls(http.MethodGet, projectPath("workflows", "workflow_other")))
}

func TestProject_CreateWorkflowUseExistingFallsBackToCreate(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("workflows"), []map[string]string{
		{"id": "workflow_other", "name": "other", "description": "something else"},
	})
	server.StubData(http.MethodPost, projectPath("workflows")+"/", map[string]string{"id": "workflow_new"})

	p := newTestProject(t, server, true)
	w, err := p.CreateWorkflow(context.Background(), "workflow_name123", "workflow_description123", true)
	require.NoError(t, err)
	assert.Equal(t, "workflow_new", w.WorkflowID)
	assert.False(t, w.HasInfo())
}

func TestProject_GetWorkflows(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("workflows"), []map[string]string{
		{"id": testWorkflowID},
		{"id": "workflow_id789"},
	})

	p := newTestProject(t, server, false)
	workflows, err := p.GetWorkflows(context.Background())
	require.NoError(t, err)
	require.Len(t, workflows, 2)
	assert.Equal(t, testWorkflowID, workflows[0].WorkflowID)
	assert.Equal(t, "workflow_id789", workflows[1].WorkflowID)
	assert.False(t, workflows[0].HasInfo())

	records, err := p.GetWorkflowsJSON(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "workflow_id789", records[1]["id"])
}

func TestProject_GetWorkflowsEagerInfo(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("workflows"), []map[string]string{{"id": testWorkflowID}})
	server.StubData(http.MethodGet, projectPath("workflows", testWorkflowID), map[string]string{"name": "workflow_name123"})

	p := newTestProject(t, server, true)
	workflows, err := p.GetWorkflows(context.Background())
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.True(t, workflows[0].HasInfo())
}

func TestProject_GetJobs(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("jobs"), []map[string]interface{}{
		{"id": testJobID, "status": "SUCCEEDED", "inputs": map[string]interface{}{}, "error": map[string]interface{}{}},
	})
	server.StubData(http.MethodGet, projectPath("jobs", testJobID), map[string]int{"xyz": 789})

	p := newTestProject(t, server, true)
	jobs, err := p.GetJobs(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, jobs.Len())
	require.Len(t, jobs.Jobs, 1)
	assert.Equal(t, testJobID, jobs.Jobs[0].JobID)
	assert.Equal(t, models.JobStatusSucceeded, jobs.Jobs[0].Status())
	assert.Equal(t, testProjectID, jobs.ProjectID)
	assert.True(t, jobs.Jobs[0].HasInfo())
	assert.Equal(t, 1, server.Calls(http.MethodGet, projectPath("jobs", testJobID)))
}

func TestProject_GetJobsModeFilter(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("jobs"), []map[string]interface{}{
		{"id": testJobID, "status": "SUCCEEDED", "mode": "DEFAULT"},
		{"id": "0b9bd159-2c03-4b58-8c0b-0cd5c0fe1c51", "status": "FAILED", "mode": "DRY_RUN"},
	})

	p := newTestProject(t, server, false)
	ctx := context.Background()

	tests := []struct {
		name string
		opts []JobsOption
		want []string
	}{
		{"all", nil, []string{testJobID, "0b9bd159-2c03-4b58-8c0b-0cd5c0fe1c51"}},
		{"real only", []JobsOption{WithTestJobs(false)}, []string{testJobID}},
		{"test only", []JobsOption{WithRealJobs(false)}, []string{"0b9bd159-2c03-4b58-8c0b-0cd5c0fe1c51"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := p.GetJobs(ctx, tt.opts...)
			require.NoError(t, err)
			var ids []string
			for _, j := range jobs.All() {
				ids = append(ids, j.JobID)
			}
			assert.Equal(t, tt.want, ids)

			records, err := p.GetJobsJSON(ctx, tt.opts...)
			require.NoError(t, err)
			assert.Len(t, records, len(tt.want))
		})
	}

	_, err := p.GetJobs(ctx, WithTestJobs(false), WithRealJobs(false))
	assert.ErrorIs(t, err, ErrNoJobMode)
}

func TestProject_GetJobsSkipsInvalidID(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("jobs"), []map[string]interface{}{
		{"id": "not-a-uuid", "mode": "DEFAULT"},
		{"id": testJobID, "mode": "DEFAULT"},
	})

	p := newTestProject(t, server, false)
	jobs, err := p.GetJobs(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, jobs.Len())
	assert.Equal(t, testJobID, jobs.Jobs[0].JobID)
}

func TestProject_GetProjectSettings(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("settings"), []map[string]interface{}{
		{"name": "MAX_CONCURRENT_JOBS", "value": 5, "type": "INTEGER", "description": "limit"},
		{"name": "MAX_AOI_SIZE"},
		{"name": "JOB_QUERY_LIMIT_PARAMETER_MAX_VALUE"},
	})

	p := newTestProject(t, server, false)
	settings, err := p.GetProjectSettings(context.Background())
	require.NoError(t, err)
	require.Len(t, settings, 3)
	assert.Equal(t, "MAX_CONCURRENT_JOBS", settings[0]["name"])
	assert.Equal(t, "MAX_AOI_SIZE", settings[1]["name"])
	assert.Equal(t, "JOB_QUERY_LIMIT_PARAMETER_MAX_VALUE", settings[2]["name"])

	assert.Equal(t, "INTEGER", settings[0]["type"])
	assert.Equal(t, "limit", settings[0]["description"])
	assert.EqualValues(t, 5, settings[0]["value"])
}

func TestProject_SettingExactName(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("settings"), []map[string]interface{}{
		{"name": "MAX_AOI_SIZE_V2", "value": 10},
		{"name": "MAX_CONCURRENT_JOBS", "value": 5},
	})

	p := newTestProject(t, server, false)
	s, err := p.Setting(context.Background(), "MAX_AOI_SIZE_V2")
	require.NoError(t, err)
	assert.Equal(t, "MAX_AOI_SIZE_V2", s.Name)
	assert.EqualValues(t, 10, s.Value)

	s, err = p.Setting(context.Background(), "maxConcurrentJobs")
	require.NoError(t, err)
	assert.Equal(t, models.SettingMaxConcurrentJobs, s.Name)

	_, err = p.Setting(context.Background(), "MISSING_SETTING")
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestProject_MaxConcurrentJobs(t *testing.T) {
	server := newServer(t)
	stubSettings(server, 5)

	p := newTestProject(t, server, false)
	maxJobs, err := p.MaxConcurrentJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, maxJobs)

	s, err := p.Setting(context.Background(), "max-concurrent-jobs")
	require.NoError(t, err)
	assert.Equal(t, models.SettingMaxConcurrentJobs, s.Name)
}

func TestProject_MaxConcurrentJobsMissing(t *testing.T) {
	server := newServer(t)
	server.StubData(http.MethodGet, projectPath("settings"), []map[string]string{{"name": "MAX_AOI_SIZE"}})

	p := newTestProject(t, server, false)
	_, err := p.MaxConcurrentJobs(context.Background())
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestProject_UpdateProjectSettings(t *testing.T) {
	server := newServer(t)
	stubSettings(server, 5)
	server.StubData(http.MethodPost, projectPath("settings"), map[string]interface{}{})

	p := newTestProject(t, server, false)
	maxJobs := 20
	require.NoError(t, p.UpdateProjectSettings(context.Background(), SettingsUpdate{MaxConcurrentJobs: &maxJobs}))

	reqs := server.RequestsFor(http.MethodPost, projectPath("settings"))
	require.Len(t, reqs, 1)
	var body map[string]map[string]string
	require.NoError(t, reqs[0].JSON(&body))
	assert.Equal(t, map[string]string{
		"JOB_QUERY_MAX_AOI_SIZE":              "5000",
		"MAX_CONCURRENT_JOBS":                 "20",
		"JOB_QUERY_LIMIT_PARAMETER_MAX_VALUE": "10",
	}, body["settings"])
}

func TestProject_UpdateProjectSettingsOutOfRange(t *testing.T) {
	server := newServer(t)
	stubSettings(server, 5)

	p := newTestProject(t, server, false)
	for _, value := range []int{0, 101} {
		v := value
		err := p.UpdateProjectSettings(context.Background(), SettingsUpdate{MaxConcurrentJobs: &v})
		assert.ErrorIs(t, err, ErrInvalidSetting, "value %d", v)
	}
	assert.Equal(t, 0, server.Calls(http.MethodPost, projectPath("settings")))
}
