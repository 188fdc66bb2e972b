package fakeapi

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, rawURL string) (int, string) {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_StubAndRecord(t *testing.T) {
	s := New()
	defer s.Close()

	s.StubData(http.MethodGet, "/projects/project_id123", map[string]int{"xyz": 789})

	status, body := get(t, s.URL()+"/projects/project_id123?limit=5")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"data": {"xyz": 789}, "error": {}}`, body)

	reqs := s.RequestsFor(http.MethodGet, "/projects/project_id123")
	require.Len(t, reqs, 1)
	assert.Equal(t, "limit=5", reqs[0].Query)
}

func TestServer_ReplacesStub(t *testing.T) {
	s := New()
	defer s.Close()

	s.Stub(http.MethodGet, "/projects/p/settings", http.StatusOK, `{"data": [], "error": {}}`)
	s.Stub(http.MethodGet, "/projects/p/settings", http.StatusOK, `{"data": [{"name": "MAX_CONCURRENT_JOBS"}], "error": {}}`)

	_, body := get(t, s.URL()+"/projects/p/settings")
	assert.Contains(t, body, "MAX_CONCURRENT_JOBS")
}

func TestServer_UnmatchedRoutes(t *testing.T) {
	s := New()
	defer s.Close()

	s.StubData(http.MethodGet, "/projects/p/workflows", []interface{}{})

	// trailing slash and method both matter
	status, _ := get(t, s.URL()+"/projects/p/workflows/")
	assert.Equal(t, http.StatusNotFound, status)

	resp, err := http.Post(s.URL()+"/projects/p/workflows", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Equal(t, 1, s.Calls(http.MethodPost, "/projects/p/workflows"))
}

func TestServer_Token(t *testing.T) {
	s := New()
	defer s.Close()

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequest(http.MethodPost, s.URL()+"/oauth/token", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPost, s.URL()+"/oauth/token", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("project_id123", "project_apikey123")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), DefaultToken)

	// the recorded body survives the handler reading it
	recorded := s.RequestsFor(http.MethodPost, "/oauth/token")
	require.Len(t, recorded, 2)
	assert.Equal(t, form.Encode(), string(recorded[1].Body))
}
