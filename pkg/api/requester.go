package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// Doer is the subset of *http.Client the requester needs
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Requester issues JSON requests against the platform and unwraps envelopes
type Requester struct {
	client Doer
	logger hclog.Logger
}

// NewRequester creates a requester on top of an (already authenticated) client
func NewRequester(client Doer, logger hclog.Logger) *Requester {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Requester{
		client: client,
		logger: logger,
	}
}

// Get issues a GET request and decodes the envelope data into out
func (r *Requester) Get(ctx context.Context, url string, out interface{}) error {
	return r.Request(ctx, http.MethodGet, url, nil, out)
}

// Post issues a POST request with a JSON body
func (r *Requester) Post(ctx context.Context, url string, body, out interface{}) error {
	return r.Request(ctx, http.MethodPost, url, body, out)
}

// Put issues a PUT request with a JSON body
func (r *Requester) Put(ctx context.Context, url string, body, out interface{}) error {
	return r.Request(ctx, http.MethodPut, url, body, out)
}

// Delete issues a DELETE request
func (r *Requester) Delete(ctx context.Context, url string) error {
	return r.Request(ctx, http.MethodDelete, url, nil, nil)
}

// Request executes a single request. There is no retry: transport errors and
// remote errors are reported to the caller immediately.
func (r *Requester) Request(ctx context.Context, method, url string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.logger.Debug("sending request", "method", method, "url", url)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	r.logger.Debug("received response", "method", method, "url", url, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	// No content responses (e.g. DELETE) carry no envelope
	if len(bytes.TrimSpace(respBody)) == 0 {
		if out != nil {
			return fmt.Errorf("%w: empty response body", ErrMalformedEnvelope)
		}
		return nil
	}

	return DecodeEnvelope(respBody, out)
}

// statusError prefers the envelope error when a failing response carries one
func statusError(statusCode int, body []byte) error {
	if env, err := parseEnvelope(body); err == nil && !isEmptyJSON(env.Error) {
		return newRemoteError(statusCode, env.Error)
	}
	return &HTTPError{StatusCode: statusCode, Body: string(body)}
}

// AsRemoteError unwraps a *RemoteError from err
func AsRemoteError(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}
