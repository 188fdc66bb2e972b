package up42

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/psantana5/up42-go/internal/fakeapi"
	"github.com/psantana5/up42-go/pkg/auth"
)

const (
	testProjectID  = "project_id123"
	testAPIKey     = "project_apikey123"
	testWorkflowID = "workflow_id123"
	testJobID      = "87c285b4-d69b-42a4-bdc5-6fe6d0ddcbbd"
)

func newServer(t *testing.T) *fakeapi.Server {
	t.Helper()
	server := fakeapi.New()
	t.Cleanup(server.Close)
	return server
}

func newTestAuth(t *testing.T, server *fakeapi.Server, getInfo bool) *auth.Auth {
	t.Helper()
	cfg := auth.DefaultConfig()
	cfg.ProjectID = testProjectID
	cfg.ProjectAPIKey = testAPIKey
	cfg.Endpoint = server.URL()
	cfg.GetInfo = getInfo

	a, err := auth.New(context.Background(), cfg)
	require.NoError(t, err)
	return a
}

// newTestProject binds the test project without fetching its info
func newTestProject(t *testing.T, server *fakeapi.Server, getInfo bool) *Project {
	t.Helper()
	a := newTestAuth(t, server, false)
	p, err := NewProject(context.Background(), a, testProjectID)
	require.NoError(t, err)
	a.GetInfo = getInfo
	return p
}

func projectPath(parts ...string) string {
	path := "/projects/" + testProjectID
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

func stubSettings(server *fakeapi.Server, maxConcurrentJobs interface{}) {
	server.StubData(http.MethodGet, projectPath("settings"), []map[string]interface{}{
		{"name": "MAX_CONCURRENT_JOBS", "value": maxConcurrentJobs, "minValue": 1, "maxValue": 100},
		{"name": "JOB_QUERY_MAX_AOI_SIZE", "value": "5000"},
		{"name": "JOB_QUERY_LIMIT_PARAMETER_MAX_VALUE", "value": 10},
	})
}
